// Package diag bridges the compiler's offset-addressed problem records
// into protocol-addressed diagnostics.
//
// The compiler service reports problems as character offsets into source
// text; editors address text by line/column ranges. This package owns
// the translation between the two views: the position mapper, the
// severity translation, and the bridge that groups and converts raw
// diagnostics per requested file. Correctness here depends on mapping
// against the exact text the compiler analyzed; there is no way to
// detect a stale snapshot after the fact.
package diag
