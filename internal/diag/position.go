package diag

// Position is a zero-based line/column pair in a text document.
type Position struct {
	Line   int
	Column int
}

// Range is a start/end position pair.
type Range struct {
	Start Position
	End   Position
}

// PositionAt maps a character offset into text to a line/column
// position with a single forward scan. Only '\n' terminates a line;
// a carriage return counts as an ordinary column, matching the Java
// front end's own mapping for CRLF files. Offsets past the end of the
// text clamp to the final position.
func PositionAt(text string, offset int) Position {
	if offset > len(text) {
		offset = len(text)
	}
	var line, column int
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
			column = 0
		} else {
			column++
		}
	}
	return Position{Line: line, Column: column}
}
