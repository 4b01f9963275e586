package diag

import (
	"strings"

	"fortio.org/safecast"
)

// Kind classifies a raw compiler problem record. The set is closed: the
// Java front end reports exactly these kinds, and anything it grows in
// the future folds into KindOther.
type Kind uint8

const (
	KindError Kind = iota
	KindWarning
	KindMandatoryWarning
	KindNote
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindError:
		return "ERROR"
	case KindWarning:
		return "WARNING"
	case KindMandatoryWarning:
		return "MANDATORY_WARNING"
	case KindNote:
		return "NOTE"
	}
	return "OTHER"
}

// ParseKind maps a kind name from the analyzer wire format back to a
// Kind. Unrecognized names fold into KindOther rather than failing.
func ParseKind(s string) Kind {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return KindError
	case "WARNING":
		return KindWarning
	case "MANDATORY_WARNING":
		return KindMandatoryWarning
	case "NOTE":
		return KindNote
	}
	return KindOther
}

// Span is a half-open character offset range [Start, End) into a source
// text.
type Span struct {
	Start uint32
	End   uint32
}

// Diagnostic is one raw problem record as produced by the compiler
// service: offset-addressed and file-scoped. Records are read-only to
// this package; nothing mutates or persists them past a lint cycle.
type Diagnostic struct {
	// File is the URI of the source the compiler attributed the
	// problem to.
	File    string
	Span    Span
	Kind    Kind
	Code    string
	Message string
}

const maxUint32 = ^uint32(0)

// SafeOffset clamps an analyzer-reported offset into the uint32 range.
// Negative offsets clamp to zero.
func SafeOffset(n int64) uint32 {
	if n < 0 {
		return 0
	}
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return maxUint32
	}
	return v
}
