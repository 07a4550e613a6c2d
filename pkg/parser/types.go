// Package parser reads the shared timestamp log and selects the lines that
// belong to one run.
package parser

// LogLine is a raw log line together with where it was read from.
type LogLine struct {
	// Content is the raw line text without the trailing newline.
	Content string

	// Source is the file path this line came from.
	Source string

	// LineNum is the 1-based line number in the source file.
	LineNum int
}
