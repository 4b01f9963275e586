package diag

// Severity defines the protocol-level importance of a diagnostic.
type Severity uint8

const (
	// SevInfo is for informational diagnostics.
	SevInfo Severity = iota
	// SevWarning is for warning diagnostics.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// SeverityForKind translates a compiler kind into a protocol severity.
// The mapping is total: notes, other, and any unrecognized kind degrade
// to SevInfo instead of failing.
func SeverityForKind(k Kind) Severity {
	switch k {
	case KindError:
		return SevError
	case KindWarning, KindMandatoryWarning:
		return SevWarning
	}
	return SevInfo
}
