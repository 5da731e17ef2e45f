package symbol

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdab-labs/knutgo/internal/syntax"
)

const sampleCpp = `class Widget {
public:
    void paint() {}
    int value;
};

void free_function() {
}
`

func TestExtractQualifiesMethodsByClassScope(t *testing.T) {
	lang, ok := syntax.Resolve(syntax.LanguageCpp)
	require.True(t, ok)

	helper := syntax.NewHelper(lang)
	require.NoError(t, helper.Reparse(context.Background(), []byte(sampleCpp), nil))
	root, ok := helper.Root()
	require.True(t, ok)

	cache := syntax.NewQueryCache(lang)
	classQuery, err := cache.Construct(`(class_specifier name: (type_identifier) @class.name) @class.range`)
	require.NoError(t, err)
	fnQuery, err := cache.Construct(`(function_definition declarator: (function_declarator declarator: (field_identifier) @fn.name)) @fn.range`)
	require.NoError(t, err)
	freeFnQuery, err := cache.Construct(`(function_definition declarator: (function_declarator declarator: (identifier) @fn.name)) @fn.range`)
	require.NoError(t, err)

	content := helper.Content()
	classSymbols := Extract(classQuery, root, content, []KindCapture{
		{NameCapture: "class.name", RangeCapture: "class.range", Kind: KindClass},
	})
	methodSymbols := Extract(fnQuery, root, content, []KindCapture{
		{NameCapture: "fn.name", RangeCapture: "fn.range", Kind: KindFunction},
	})
	freeFnSymbols := Extract(freeFnQuery, root, content, []KindCapture{
		{NameCapture: "fn.name", RangeCapture: "fn.range", Kind: KindFunction},
	})

	all := append(append(classSymbols, methodSymbols...), freeFnSymbols...)
	qualified := QualifyScopes(all)

	var foundMethod, foundFree bool
	for _, s := range qualified {
		switch {
		case s.Name == "Widget::paint":
			foundMethod = true
			assert.Equal(t, KindMethod, s.Kind)
		case s.Name == "free_function":
			foundFree = true
			assert.Equal(t, KindFunction, s.Kind)
		}
	}
	assert.True(t, foundMethod, "expected Widget::paint in %+v", qualified)
	assert.True(t, foundFree, "expected free_function in %+v", qualified)
}
