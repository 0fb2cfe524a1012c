//go:build cgo

package treesitter

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// LanguageVersion returns the newest parser ABI the linked tree-sitter
// runtime accepts. Generated parsers target this version by default.
func LanguageVersion() int {
	return int(tree_sitter.LANGUAGE_VERSION)
}

// MinCompatibleLanguageVersion returns the oldest parser ABI the linked
// runtime still loads.
func MinCompatibleLanguageVersion() int {
	return int(tree_sitter.MIN_COMPATIBLE_LANGUAGE_VERSION)
}
