// Package syntax implements Component D: a lazy tree-sitter parse/query
// helper shared by every CodeDocument.
package syntax

import (
	cforest "github.com/alexaandru/go-sitter-forest/c"
	csharpforest "github.com/alexaandru/go-sitter-forest/c_sharp"
	cppforest "github.com/alexaandru/go-sitter-forest/cpp"
	dartforest "github.com/alexaandru/go-sitter-forest/dart"
	jsonforest "github.com/alexaandru/go-sitter-forest/json"
	qmlforest "github.com/alexaandru/go-sitter-forest/qmljs"
	rustforest "github.com/alexaandru/go-sitter-forest/rust"
	xmlforest "github.com/alexaandru/go-sitter-forest/xml"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// LanguageID names one of the grammars the registry can hand out; it
// matches the document Type values from §3 that actually have a grammar
// (Text/Image/Slint have none and are never looked up here).
type LanguageID string

const (
	LanguageCpp    LanguageID = "Cpp"
	LanguageC      LanguageID = "C"
	LanguageCSharp LanguageID = "CSharp"
	LanguageRust   LanguageID = "Rust"
	LanguageDart   LanguageID = "Dart"
	LanguageQml    LanguageID = "Qml"
	LanguageXML    LanguageID = "Xml"
	LanguageJSON   LanguageID = "Json"
)

var grammarConstructors = map[LanguageID]func() sitter.Language{
	LanguageCpp:    func() sitter.Language { return sitter.NewLanguage(cppforest.GetLanguage()) },
	LanguageC:      func() sitter.Language { return sitter.NewLanguage(cforest.GetLanguage()) },
	LanguageCSharp: func() sitter.Language { return sitter.NewLanguage(csharpforest.GetLanguage()) },
	LanguageRust:   func() sitter.Language { return sitter.NewLanguage(rustforest.GetLanguage()) },
	LanguageDart:   func() sitter.Language { return sitter.NewLanguage(dartforest.GetLanguage()) },
	LanguageQml:    func() sitter.Language { return sitter.NewLanguage(qmlforest.GetLanguage()) },
	LanguageXML:    func() sitter.Language { return sitter.NewLanguage(xmlforest.GetLanguage()) },
	LanguageJSON:   func() sitter.Language { return sitter.NewLanguage(jsonforest.GetLanguage()) },
}

// languageCache memoizes the sitter.Language wrapper per grammar, since
// sitter.NewLanguage does non-trivial setup and every document of the same
// language can share the immutable grammar object.
var languageCache = map[LanguageID]sitter.Language{}

// Resolve returns the tree-sitter Language for id, constructing and caching
// it on first use.
func Resolve(id LanguageID) (sitter.Language, bool) {
	if lang, ok := languageCache[id]; ok {
		return lang, true
	}
	construct, ok := grammarConstructors[id]
	if !ok {
		return sitter.Language{}, false
	}
	lang := construct()
	languageCache[id] = lang
	return lang, true
}
