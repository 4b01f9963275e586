package diag

// Bag collects raw diagnostics for one lint cycle, capped at a maximum
// count. Order of insertion is preserved.
type Bag struct {
	items []Diagnostic
	max   int
}

func NewBag(max int) *Bag {
	if max < 0 {
		max = 0
	}
	return &Bag{
		items: make([]Diagnostic, 0, max),
		max:   max,
	}
}

// Add appends a diagnostic unless the cap is reached. Returns false
// when the diagnostic was not added.
func (b *Bag) Add(d Diagnostic) bool {
	if len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items returns the collected diagnostics. The slice aliases the Bag's
// internal storage; callers must not modify it.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// HasErrors reports whether any collected diagnostic maps to an error
// severity.
func (b *Bag) HasErrors() bool {
	for i := range b.items {
		if SeverityForKind(b.items[i].Kind) == SevError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any collected diagnostic maps to warning
// severity or higher.
func (b *Bag) HasWarnings() bool {
	for i := range b.items {
		if SeverityForKind(b.items[i].Kind) >= SevWarning {
			return true
		}
	}
	return false
}
