package compiler

import (
	"errors"
	"math"
	"testing"

	"github.com/rafaeldeoliveira/java-language-server/internal/diag"
)

func TestDecodeDiagnostics(t *testing.T) {
	data := []byte(`[
		{"file":"file:///a.java","startOffset":3,"endOffset":5,"kind":"ERROR","code":"compiler.err.expected","message":"';' expected"},
		{"file":"file:///a.java","startOffset":7,"endOffset":9,"kind":"MANDATORY_WARNING","message":"deprecated"}
	]`)

	got, err := DecodeDiagnostics(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", len(got))
	}
	if got[0].Span != (diag.Span{Start: 3, End: 5}) {
		t.Errorf("span = %+v", got[0].Span)
	}
	if got[0].Kind != diag.KindError {
		t.Errorf("kind = %v, want ERROR", got[0].Kind)
	}
	if got[0].Code != "compiler.err.expected" {
		t.Errorf("code = %q", got[0].Code)
	}
	if got[1].Kind != diag.KindMandatoryWarning {
		t.Errorf("kind = %v, want MANDATORY_WARNING", got[1].Kind)
	}
}

func TestDecodeDiagnosticsEmptyOutputIsClean(t *testing.T) {
	for _, data := range [][]byte{nil, []byte(""), []byte("  \n")} {
		got, err := DecodeDiagnostics(data)
		if err != nil {
			t.Fatalf("decode %q: %v", data, err)
		}
		if len(got) != 0 {
			t.Fatalf("expected no diagnostics for %q", data)
		}
	}
}

func TestDecodeDiagnosticsClampsOffsets(t *testing.T) {
	data := []byte(`[
		{"file":"file:///a.java","startOffset":-4,"endOffset":-1,"kind":"NOTE","message":"negative"},
		{"file":"file:///a.java","startOffset":9,"endOffset":2,"kind":"NOTE","message":"inverted"},
		{"file":"file:///a.java","startOffset":5000000000,"endOffset":5000000001,"kind":"NOTE","message":"huge"}
	]`)

	got, err := DecodeDiagnostics(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got[0].Span != (diag.Span{Start: 0, End: 0}) {
		t.Errorf("negative offsets should clamp to zero, got %+v", got[0].Span)
	}
	if got[1].Span != (diag.Span{Start: 9, End: 9}) {
		t.Errorf("inverted span should collapse to start, got %+v", got[1].Span)
	}
	if got[2].Span.Start != math.MaxUint32 || got[2].Span.End != math.MaxUint32 {
		t.Errorf("oversized offsets should clamp to max uint32, got %+v", got[2].Span)
	}
}

func TestDecodeDiagnosticsUnknownKind(t *testing.T) {
	data := []byte(`[{"file":"file:///a.java","startOffset":0,"endOffset":1,"kind":"SOMETHING_NEW","message":"m"}]`)
	got, err := DecodeDiagnostics(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got[0].Kind != diag.KindOther {
		t.Fatalf("unknown kind = %v, want OTHER", got[0].Kind)
	}
}

func TestDecodeDiagnosticsRejectsMalformedOutput(t *testing.T) {
	if _, err := DecodeDiagnostics([]byte(`{"not":"an array"`)); err == nil {
		t.Fatal("expected decode error for malformed output")
	}
}

func TestExternalFactoryRequiresCommand(t *testing.T) {
	_, err := NewExternalFactory(nil)([]string{"lib/a.jar"})
	if err == nil {
		t.Fatal("expected error for empty analyzer command")
	}
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition, got %v", err)
	}
}

func TestExternalFactoryCopiesArguments(t *testing.T) {
	argv := []string{"analyzer", "--json"}
	classpath := []string{"lib/a.jar"}
	linter, err := NewExternalFactory(argv)(classpath)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	ext, ok := linter.(*External)
	if !ok {
		t.Fatalf("expected *External, got %T", linter)
	}
	argv[1] = "mutated"
	classpath[0] = "mutated"
	if ext.argv[1] != "--json" || ext.classpath[0] != "lib/a.jar" {
		t.Fatal("factory must copy argv and classpath")
	}
}
