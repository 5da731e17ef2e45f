package document

import "github.com/kdab-labs/knutgo/internal/syntax"

// CppDocument is stateless beyond CodeDocument (§3: "its data is
// inherited"); its identity is purely the C/C++ tree-sitter grammar.
type CppDocument struct {
	*CodeDocument
}

// NewCppDocument returns a CppDocument parsed against the C++ grammar.
func NewCppDocument() *CppDocument {
	return &CppDocument{CodeDocument: NewCodeDocument(TypeCpp, syntax.LanguageCpp)}
}
