package source

import (
	"context"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

// TokenClass buckets source tokens for display styling.
type TokenClass string

const (
	ClassPlain   TokenClass = "plain"
	ClassKeyword TokenClass = "keyword"
	ClassIdent   TokenClass = "ident"
	ClassType    TokenClass = "type"
	ClassLiteral TokenClass = "literal"
	ClassComment TokenClass = "comment"
	ClassPunct   TokenClass = "punct"
)

// Token is one classified slice of the source text, addressed by byte
// offsets into the original string.
type Token struct {
	Class TokenClass
	Start int
	End   int
}

// Tokenize classifies the function source for styled rendering. The text
// between classified tokens is plain. When parsing fails the whole source
// comes back as a single plain token so rendering still works.
func Tokenize(src string) []Token {
	if src == "" {
		return nil
	}
	plain := []Token{{Class: ClassPlain, Start: 0, End: len(src)}}

	p := sitter.NewParser()
	p.SetLanguage(rust.GetLanguage())
	tree, err := p.ParseCtx(context.Background(), nil, []byte(src))
	if err != nil || tree == nil {
		return plain
	}
	defer tree.Close()

	var leaves []Token
	collectLeaves(tree.RootNode(), &leaves)
	if len(leaves) == 0 {
		return plain
	}

	// Fill the gaps so the token stream covers the whole source.
	out := make([]Token, 0, 2*len(leaves))
	cursor := 0
	for _, tok := range leaves {
		if tok.Start > cursor {
			out = append(out, Token{Class: ClassPlain, Start: cursor, End: tok.Start})
		}
		out = append(out, tok)
		cursor = tok.End
	}
	if cursor < len(src) {
		out = append(out, Token{Class: ClassPlain, Start: cursor, End: len(src)})
	}
	return out
}

func collectLeaves(node *sitter.Node, out *[]Token) {
	count := int(node.ChildCount())
	if count == 0 {
		start, end := int(node.StartByte()), int(node.EndByte())
		if end > start {
			*out = append(*out, Token{Class: classify(node), Start: start, End: end})
		}
		return
	}
	for i := 0; i < count; i++ {
		collectLeaves(node.Child(i), out)
	}
}

func classify(node *sitter.Node) TokenClass {
	switch node.Type() {
	case "identifier", "field_identifier", "shorthand_field_identifier":
		return ClassIdent
	case "type_identifier", "primitive_type":
		return ClassType
	case "integer_literal", "float_literal", "string_literal", "raw_string_literal",
		"char_literal", "boolean_literal", "string_content", "escape_sequence":
		return ClassLiteral
	case "line_comment", "block_comment":
		return ClassComment
	case "mutable_specifier", "self", "super", "crate":
		return ClassKeyword
	}
	if !node.IsNamed() {
		// Anonymous leaves are either keywords ("fn", "let") or
		// punctuation.
		for _, r := range node.Type() {
			if !unicode.IsLetter(r) && r != '_' {
				return ClassPunct
			}
		}
		return ClassKeyword
	}
	return ClassPlain
}
