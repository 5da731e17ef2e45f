package refactor

import (
	"context"
	"testing"

	"github.com/kdab-labs/knutgo/internal/buffer"
	"github.com/kdab-labs/knutgo/internal/document"
	"github.com/kdab-labs/knutgo/internal/symbol"
	"github.com/stretchr/testify/require"
)

func newCppDoc(t *testing.T, text string) *document.CppDocument {
	t.Helper()
	doc := document.NewCppDocument()
	doc.Buffer = buffer.NewBuffer(text)
	require.NoError(t, doc.OnContentChanged(context.Background()))
	return doc
}

func TestInsertIncludeNewGroupAfterExisting(t *testing.T) {
	doc := newCppDoc(t, "#pragma once\n\n#include <QObject>\n#include <QString>\n\nclass Foo {};\n")
	require.NoError(t, InsertInclude(context.Background(), doc, "vector", true, true))
	text := doc.Buffer.Text()
	require.Contains(t, text, "#include <vector>")
	require.True(t, len(text) > 0)
}

func TestInsertIncludeJoinsBestGroupByPrefix(t *testing.T) {
	doc := newCppDoc(t, "#include \"foo.h\"\n#include \"foobar.h\"\n\n#include <vector>\n")
	require.NoError(t, InsertInclude(context.Background(), doc, "foobaz.h", false, false))
	text := doc.Buffer.Text()
	require.Less(t, indexOf(text, "foobaz.h"), indexOf(text, "<vector>"))
}

// TestInsertIncludeUsesFoldedGroupPrefixNotBestLine covers a group with an
// outlier member: group A's members fold to an empty common prefix ("q.h"
// drags "foobarXYZ.h" down to nothing), while group B's lone member starts
// with "foobar". Comparing against each group's one folded prefix picks
// group B, even though "foobarXYZ.h" alone shares more characters with the
// inserted name than any prefix of group B does.
func TestInsertIncludeUsesFoldedGroupPrefixNotBestLine(t *testing.T) {
	doc := newCppDoc(t, "#include \"foobarXYZ.h\"\n#include \"q.h\"\n\n#include \"foobar.h\"\n")
	require.NoError(t, InsertInclude(context.Background(), doc, "foobarXYZQ.h", false, false))
	text := doc.Buffer.Text()
	// Group A (foobarXYZ.h, q.h) is left untouched: its blank-line separator
	// from group B still immediately follows q.h.
	require.Contains(t, text, "\"q.h\"\n\n#include \"foobar.h\"")
	require.Greater(t, indexOf(text, "foobarXYZQ.h"), indexOf(text, "\"foobar.h\""))
}

func TestInsertIncludeAlreadyPresentIsNoop(t *testing.T) {
	doc := newCppDoc(t, "#include <QObject>\n#include <QString>\n")
	before := doc.Buffer.Text()
	require.NoError(t, InsertInclude(context.Background(), doc, "QObject", true, false))
	require.Equal(t, before, doc.Buffer.Text())
}

func TestRemoveIncludeDeletesLine(t *testing.T) {
	doc := newCppDoc(t, "#include <QObject>\n#include <QString>\n")
	require.NoError(t, RemoveInclude(context.Background(), doc, "QObject", true))
	require.NotContains(t, doc.Buffer.Text(), "QObject")
	require.Contains(t, doc.Buffer.Text(), "QString")
}

func TestRemoveIncludeMissingIsNoop(t *testing.T) {
	doc := newCppDoc(t, "#include <QObject>\n")
	require.NoError(t, RemoveInclude(context.Background(), doc, "QString", true))
	require.Contains(t, doc.Buffer.Text(), "QObject")
}

const memberHeader = `#pragma once

class Widget
{
public:
    Widget();

private:
    int m_count;
};
`

func TestAddMemberDeclarationExistingSection(t *testing.T) {
	doc := newCppDoc(t, memberHeader)
	require.NoError(t, AddMemberDeclaration(context.Background(), doc, "Widget", Public, "void reset();"))
	text := doc.Buffer.Text()
	require.Contains(t, text, "void reset();")
	pubIdx := indexOf(text, "public:")
	resetIdx := indexOf(text, "void reset();")
	privIdx := indexOf(text, "private:")
	require.Less(t, pubIdx, resetIdx)
	require.Less(t, resetIdx, privIdx)
}

func TestAddMemberDeclarationNewSection(t *testing.T) {
	doc := newCppDoc(t, "class Widget\n{\npublic:\n    Widget();\n};\n")
	require.NoError(t, AddMemberDeclaration(context.Background(), doc, "Widget", Protected, "int helper();"))
	text := doc.Buffer.Text()
	require.Contains(t, text, "protected:")
	require.Contains(t, text, "int helper();")
}

func TestAddMethodDefinitionStripsModifiersAndAppends(t *testing.T) {
	doc := newCppDoc(t, "#include \"widget.h\"\n\nWidget::Widget()\n{\n}\n")
	require.NoError(t, AddMethodDefinition(context.Background(), doc, "Widget", "virtual void reset() override", "m_count = 0;"))
	text := doc.Buffer.Text()
	require.Contains(t, text, "void Widget::reset()")
	require.Contains(t, text, "m_count = 0;")
	require.NotContains(t, text, "virtual void Widget::reset()")
}

func TestAddMethodBothUpdatesHeaderAndSource(t *testing.T) {
	header := newCppDoc(t, memberHeader)
	source := newCppDoc(t, "#include \"widget.h\"\n\nWidget::Widget()\n{\n}\n")
	require.NoError(t, AddMethodBoth(context.Background(), header, source, "Widget", Public, "void reset();", "m_count = 0;"))
	require.Contains(t, header.Buffer.Text(), "void reset();")
	require.Contains(t, source.Buffer.Text(), "void Widget::reset()")
}

func TestDeleteMethodDescendingOrderDoesNotCorruptRanges(t *testing.T) {
	text := "void A() { }\nvoid B() { }\nvoid C() { }\n"
	doc := newCppDoc(t, text)

	firstA := indexOf(text, "void A")
	firstB := indexOf(text, "void B")
	symbols := []symbol.Symbol{
		{Name: "A", Kind: symbol.KindFunction, Range: symbol.Range{Start: firstA, End: indexOf(text, "\nvoid B")}},
		{Name: "B", Kind: symbol.KindFunction, Range: symbol.Range{Start: firstB, End: indexOf(text, "\nvoid C")}},
	}
	require.NoError(t, DeleteMethod(context.Background(), doc, symbols))
	result := doc.Buffer.Text()
	require.NotContains(t, result, "void A")
	require.NotContains(t, result, "void B")
	require.Contains(t, result, "void C")
}

func TestHeaderSourceCacheSameDirectoryMatch(t *testing.T) {
	cache := NewHeaderSourceCache()
	candidates := []string{"/proj/widget.h", "/proj/widget.cpp", "/proj/other.cpp"}
	got, ok := cache.CorrespondingHeaderSource("/proj/widget.h", candidates, []string{".cpp", ".cc"})
	require.True(t, ok)
	require.Equal(t, "/proj/widget.cpp", got)

	got2, ok2 := cache.CorrespondingHeaderSource("/proj/widget.cpp", candidates, []string{".h", ".hpp"})
	require.True(t, ok2)
	require.Equal(t, "/proj/widget.h", got2)
}

const baseClassHeader = `#pragma once

class MyWidget : public QWidget
{
public:
    MyWidget();
};
`

const baseClassSource = `#include "mywidget.h"

MyWidget::MyWidget()
    : QWidget(nullptr)
{
}
`

func TestChangeBaseClassRewritesClauseIncludesAndUsages(t *testing.T) {
	header := newCppDoc(t, baseClassHeader)
	source := newCppDoc(t, baseClassSource)
	require.NoError(t, ChangeBaseClass(context.Background(), header, source, "MyWidget", "QWidget", "QFrame"))

	require.Contains(t, header.Buffer.Text(), "class MyWidget : public QFrame")
	require.Contains(t, source.Buffer.Text(), ": QFrame(nullptr)")
}

const toggleSource = `int compute(int x)
{
    return x * 2;
}
`

func TestToggleSectionWrapThenUnwrapRoundTrips(t *testing.T) {
	doc := newCppDoc(t, toggleSource)
	cfg := ToggleSectionConfig{Tag: "KNUT_DEBUG", DebugFormat: "qDebug() << %q"}
	cursor := indexOf(toggleSource, "return")

	require.NoError(t, ToggleSection(context.Background(), doc, cursor, cfg))
	wrapped := doc.Buffer.Text()
	require.Contains(t, wrapped, "#ifdef KNUT_DEBUG")
	require.Contains(t, wrapped, "#endif // KNUT_DEBUG")
	require.Contains(t, wrapped, "return {};")

	require.NoError(t, ToggleSection(context.Background(), doc, cursor, cfg))
	unwrapped := doc.Buffer.Text()
	require.NotContains(t, unwrapped, "#ifdef KNUT_DEBUG")
	require.Contains(t, unwrapped, "return x * 2;")
}

const ddxSource = `void MyDialog::DoDataExchange(CDataExchange* pDX)
{
    CDialog::DoDataExchange(pDX);
    DDX_Text(pDX, IDC_EDIT1, m_name);
    DDX_Check(pDX, IDC_CHECK1, m_enabled);
}
`

func TestExtractDDXFindsEntries(t *testing.T) {
	doc := newCppDoc(t, ddxSource)
	dx, err := ExtractDDX(doc, "MyDialog")
	require.NoError(t, err)
	require.Equal(t, "MyDialog", dx.ClassName)
	require.Len(t, dx.Entries, 2)
	require.Equal(t, DDXEntry{Function: "DDX_Text", ControlID: "IDC_EDIT1", Member: "m_name"}, dx.Entries[0])
	require.Equal(t, DDXEntry{Function: "DDX_Check", ControlID: "IDC_CHECK1", Member: "m_enabled"}, dx.Entries[1])
}

func TestExtractDDXMissingMethodErrors(t *testing.T) {
	doc := newCppDoc(t, "void MyDialog::OnOK() {}\n")
	_, err := ExtractDDX(doc, "MyDialog")
	require.Error(t, err)
}

const messageMapSource = `BEGIN_MESSAGE_MAP(MyDialog, CDialog)
	ON_BN_CLICKED(IDC_BUTTON1, &MyDialog::OnClicked)
	ON_WM_CLOSE()
END_MESSAGE_MAP()
`

func TestExtractMessageMapFindsEntries(t *testing.T) {
	doc := newCppDoc(t, messageMapSource)
	mm, err := ExtractMessageMap(doc, "MyDialog")
	require.NoError(t, err)
	require.Equal(t, "MyDialog", mm.ClassName)
	require.Equal(t, "CDialog", mm.SuperClass)
	require.Len(t, mm.Entries, 2)
	require.Equal(t, "ON_BN_CLICKED", mm.Entries[0].Name)
	require.Equal(t, []string{"IDC_BUTTON1", "&MyDialog::OnClicked"}, mm.Entries[0].Parameters)
	require.Equal(t, "ON_WM_CLOSE", mm.Entries[1].Name)
}

func TestExtractMessageMapWrongClassNotFound(t *testing.T) {
	doc := newCppDoc(t, messageMapSource)
	_, err := ExtractMessageMap(doc, "OtherDialog")
	require.Error(t, err)
}

const navigationSource = `void f() {
    if (x) {
        g(1, 2);
    }
}
`

func TestBlockNavigationFindsEnclosingBraces(t *testing.T) {
	doc := newCppDoc(t, navigationSource)
	callOffset := indexOf(navigationSource, "g(1")

	start, err := GotoBlockStart(doc, callOffset)
	require.NoError(t, err)
	require.Equal(t, byte('{'), navigationSource[start])

	end, err := GotoBlockEnd(doc, callOffset)
	require.NoError(t, err)
	require.Equal(t, byte('}'), navigationSource[end-1])

	upStart, upEnd, err := SelectBlockUp(doc, callOffset)
	require.NoError(t, err)
	require.Equal(t, "{\n        g(1, 2);\n    }", navigationSource[upStart:upEnd])
}

const syntaxNavigationSource = `int f() {
    return x + 1;
}
`

func TestSelectLargerSyntaxNodeGrowsFromIdentifierToStatement(t *testing.T) {
	doc := newCppDoc(t, syntaxNavigationSource)
	xOffset := indexOf(syntaxNavigationSource, "x + 1")
	doc.Buffer.SelectRegion(xOffset, xOffset)

	_, err := SelectLargerSyntaxNode(doc, 1)
	require.NoError(t, err)
	require.Equal(t, "x", doc.Buffer.SelectedText())

	_, err = SelectLargerSyntaxNode(doc, 2)
	require.NoError(t, err)
	require.Equal(t, "return x + 1;", doc.Buffer.SelectedText())
}

func TestSelectSmallerSyntaxNodeShrinksBackToIdentifier(t *testing.T) {
	doc := newCppDoc(t, syntaxNavigationSource)
	stmtStart := indexOf(syntaxNavigationSource, "return x + 1;")
	doc.Buffer.SelectRegion(stmtStart, stmtStart+len("return x + 1;"))

	_, err := SelectSmallerSyntaxNode(doc, 1)
	require.NoError(t, err)
	require.Equal(t, "x + 1", doc.Buffer.SelectedText())
}

func TestSelectNextSyntaxNodeMovesToSibling(t *testing.T) {
	doc := newCppDoc(t, syntaxNavigationSource)
	xOffset := indexOf(syntaxNavigationSource, "x + 1")
	doc.Buffer.SelectRegion(xOffset, xOffset+1)

	_, err := SelectNextSyntaxNode(doc, 1)
	require.NoError(t, err)
	require.Equal(t, "1", doc.Buffer.SelectedText())
}

func indexOf(text, substr string) int {
	for i := 0; i+len(substr) <= len(text); i++ {
		if text[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
