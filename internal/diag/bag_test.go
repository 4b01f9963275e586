package diag

import "testing"

func TestBagCapsAdditions(t *testing.T) {
	bag := NewBag(2)
	if !bag.Add(Diagnostic{Message: "one"}) {
		t.Fatal("first add should succeed")
	}
	if !bag.Add(Diagnostic{Message: "two"}) {
		t.Fatal("second add should succeed")
	}
	if bag.Add(Diagnostic{Message: "three"}) {
		t.Fatal("add past cap should be rejected")
	}
	if bag.Len() != 2 {
		t.Fatalf("len = %d, want 2", bag.Len())
	}
	items := bag.Items()
	if items[0].Message != "one" || items[1].Message != "two" {
		t.Fatal("bag must preserve insertion order")
	}
}

func TestBagSeverityQueries(t *testing.T) {
	bag := NewBag(10)
	bag.Add(Diagnostic{Kind: KindNote})
	if bag.HasErrors() || bag.HasWarnings() {
		t.Fatal("notes are informational")
	}
	bag.Add(Diagnostic{Kind: KindMandatoryWarning})
	if bag.HasErrors() {
		t.Fatal("warnings are not errors")
	}
	if !bag.HasWarnings() {
		t.Fatal("mandatory warnings count as warnings")
	}
	bag.Add(Diagnostic{Kind: KindError})
	if !bag.HasErrors() {
		t.Fatal("expected HasErrors after adding an error kind")
	}
}
