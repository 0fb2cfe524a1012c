//go:build !cgo

package treesitter

// Without CGo the tree-sitter runtime is not linked, so the ABI range is
// pinned to the one shipped with go-tree-sitter v0.25.
const (
	pinnedLanguageVersion      = 15
	pinnedMinCompatibleVersion = 13
)

// LanguageVersion returns the newest parser ABI supported by the pinned
// tree-sitter runtime.
func LanguageVersion() int {
	return pinnedLanguageVersion
}

// MinCompatibleLanguageVersion returns the oldest supported parser ABI.
func MinCompatibleLanguageVersion() int {
	return pinnedMinCompatibleVersion
}
