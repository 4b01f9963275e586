package uri

import (
	"path/filepath"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "src", "Main.java")
	uri := FromPath(path)
	if uri == "" {
		t.Fatal("FromPath returned empty URI")
	}
	if got := ToPath(uri); got != path {
		t.Fatalf("round trip = %q, want %q", got, path)
	}
}

func TestToPathRejectsForeignSchemes(t *testing.T) {
	if got := ToPath("https://example.com/Main.java"); got != "" {
		t.Fatalf("non-file scheme should yield empty path, got %q", got)
	}
}

func TestToPathUnescapes(t *testing.T) {
	got := ToPath("file:///tmp/My%20Project/Main.java")
	want := filepath.FromSlash("/tmp/My Project/Main.java")
	if got != want {
		t.Fatalf("ToPath = %q, want %q", got, want)
	}
}

func TestEmptyInputs(t *testing.T) {
	if ToPath("") != "" {
		t.Fatal("ToPath(\"\") should be empty")
	}
	if FromPath("") != "" {
		t.Fatal("FromPath(\"\") should be empty")
	}
}
