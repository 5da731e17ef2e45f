package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertDeleteRoundTrip(t *testing.T) {
	b := NewBuffer("hello world")
	b.InsertAtPosition(5, ",")
	assert.Equal(t, "hello, world", b.Text())
	b.DeleteRange(5, 6)
	assert.Equal(t, "hello world", b.Text())
}

func TestIndentRemoveIndentRestoresContent(t *testing.T) {
	b := NewBuffer("line one\nline two\nline three")
	b.SetTabSettings(TabSettings{InsertSpaces: true, TabSize: 4})
	b.Move(MotionStartOfDocument, 1, false)
	b.Move(MotionEndOfDocument, 1, true)

	before := b.Text()
	b.Indent(2)
	b.RemoveIndent(2)
	assert.Equal(t, before, b.Text())
}

func TestReplaceAllIsSelfInverse(t *testing.T) {
	b := NewBuffer("foo bar foo baz foo")
	n := b.ReplaceAll("foo", "XYZQ", FindCaseSensitively)
	require.Equal(t, 3, n)
	assert.Equal(t, "XYZQ bar XYZQ baz XYZQ", b.Text())

	n = b.ReplaceAll("XYZQ", "foo", FindCaseSensitively)
	require.Equal(t, 3, n)
	assert.Equal(t, "foo bar foo baz foo", b.Text())
}

func TestPreserveCase(t *testing.T) {
	b := NewBuffer("Cat CAT cat")
	b.ReplaceAll("cat", "dog", PreserveCase)
	assert.Equal(t, "Dog DOG dog", b.Text())
}

func TestFindBackwardStartsOneBeforeCursor(t *testing.T) {
	b := NewBuffer("aXbXcXd")
	b.setPosition(4, false) // just after the second X, so the search starts on it
	start, end, found := b.Find("X", FindBackward|FindCaseSensitively)
	require.True(t, found)
	assert.Equal(t, 3, start)
	assert.Equal(t, 4, end)
}

func TestWholeWordsWrapsBoundaries(t *testing.T) {
	b := NewBuffer("cat category cat")
	start, end, found := b.Find("cat", FindWholeWords|FindCaseSensitively)
	require.True(t, found)
	assert.Equal(t, 0, start)
	assert.Equal(t, 3, end)
}

func TestRegexpReplacementExpandsBackreferences(t *testing.T) {
	b := NewBuffer("John Smith")
	ok := b.ReplaceOne(`(\w+) (\w+)`, `$2 $1`, FindRegexp|FindCaseSensitively)
	require.True(t, ok)
	assert.Equal(t, "Smith John", b.Text())
}

func TestUndoRedo(t *testing.T) {
	b := NewBuffer("abc")
	b.InsertAtPosition(3, "def")
	assert.Equal(t, "abcdef", b.Text())
	require.True(t, b.Undo())
	assert.Equal(t, "abc", b.Text())
	require.True(t, b.Redo())
	assert.Equal(t, "abcdef", b.Text())
}

func TestMarkShiftAndCollapse(t *testing.T) {
	b := NewBuffer("0123456789ABCDEF")
	m := b.NewMark(10)

	b.InsertAtPosition(5, "xyz")
	assert.Equal(t, 13, m.Position())

	b.DeleteRange(5, 7)
	assert.Equal(t, 11, m.Position())

	// Collapse: deleting a range that contains the mark snaps it to `from`.
	b.DeleteRange(9, 12)
	assert.Equal(t, 9, m.Position())
}

func TestMarkInvalidAfterBufferClose(t *testing.T) {
	b := NewBuffer("hello")
	m := b.NewMark(2)
	require.True(t, m.IsValid())
	b.Close()
	assert.False(t, m.IsValid())
	assert.Equal(t, -1, m.Position())
}

func TestRangeMarkTracksBothEndpoints(t *testing.T) {
	b := NewBuffer("aaaXXXbbb")
	r := b.NewRangeMark(3, 6)
	assert.Equal(t, "XXX", r.Text())

	b.InsertAtPosition(0, "---")
	assert.Equal(t, 6, r.Start())
	assert.Equal(t, 9, r.End())
	assert.Equal(t, "XXX", r.Text())
}

func TestGotoMarkRejectsForeignBuffer(t *testing.T) {
	a := NewBuffer("one")
	bb := NewBuffer("two")
	m := a.NewMark(1)
	assert.False(t, bb.GotoMark(m))
}

func TestGotoLineColumnPlacesCursor(t *testing.T) {
	b := NewBuffer("one\ntwo\nthree\n")
	b.GotoLineColumn(2, 1)
	assert.Equal(t, 4, b.Position())

	b.GotoLineColumn(3, 3)
	assert.Equal(t, 10, b.Position())
}
