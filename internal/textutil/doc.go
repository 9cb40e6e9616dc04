// Package textutil provides filename sanitization helpers.
//
// Output names are built from user-supplied display names, so stems are
// folded to ASCII where possible and stripped of characters that are unsafe
// on common filesystems before they reach the engine workspace.
package textutil
