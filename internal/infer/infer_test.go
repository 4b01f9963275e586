package infer

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestIsBuildFile(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"/ws/javaconfig.toml", true},
		{"/ws/pom.xml", true},
		{"/ws/sub/build.gradle", true},
		{"/ws/Main.java", false},
		{"/ws/pom.xml.bak", false},
	}
	for _, tc := range cases {
		if got := IsBuildFile(tc.path); got != tc.want {
			t.Errorf("IsBuildFile(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestLoadConfigMissing(t *testing.T) {
	_, ok, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for missing manifest")
	}
}

func TestLoadConfigRejectsEmptyEntry(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "javaconfig.toml"), `
[classpath]
entries = ["lib/a.jar", "  "]
`)
	_, ok, err := LoadConfig(root)
	if !ok {
		t.Fatal("manifest exists, expected ok=true")
	}
	if err == nil {
		t.Fatal("expected error for blank classpath entry")
	}
}

func TestClasspathManifestWins(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "javaconfig.toml"), `
[classpath]
entries = ["lib/a.jar", "/abs/b.jar"]

[lint]
command = ["java-analyzer", "--json"]
`)
	// Conventional locations exist but must be ignored.
	writeFile(t, filepath.Join(root, "lib", "other.jar"), "jar")

	got, err := Classpath(root)
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	want := []string{filepath.Join(root, "lib", "a.jar"), filepath.FromSlash("/abs/b.jar")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("classpath = %v, want %v", got, want)
	}
}

func TestClasspathScansConventionalLocations(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "lib", "a.jar"), "jar")
	writeFile(t, filepath.Join(root, "lib", "nested", "b.jar"), "jar")
	writeFile(t, filepath.Join(root, "lib", "readme.txt"), "not a jar")
	writeFile(t, filepath.Join(root, "target", "dependency", "c.jar"), "jar")
	if err := os.MkdirAll(filepath.Join(root, "target", "classes"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := Classpath(root)
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	want := []string{
		filepath.Join(root, "lib", "a.jar"),
		filepath.Join(root, "lib", "nested", "b.jar"),
		filepath.Join(root, "target", "dependency", "c.jar"),
		filepath.Join(root, "target", "classes"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("classpath = %v, want %v", got, want)
	}
}

func TestClasspathRequiresDirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "not-a-dir")
	writeFile(t, file, "x")
	if _, err := Classpath(file); err == nil {
		t.Fatal("expected error for non-directory root")
	}
	if _, err := Classpath(filepath.Join(root, "missing")); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestClasspathEmptyWorkspace(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	got, err := Classpath(t.TempDir())
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty classpath, got %v", got)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	cache, err := OpenCache("jls-test")
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	key := digestWorkspace(t.TempDir())
	if _, hit, err := cache.Get(key); err != nil || hit {
		t.Fatalf("expected clean miss, hit=%v err=%v", hit, err)
	}

	want := []string{"lib/a.jar", "target/classes"}
	if err := cache.Put(key, want); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, hit, err := cache.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !hit {
		t.Fatal("expected hit after put")
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
}

func TestDigestChangesWithBuildFiles(t *testing.T) {
	root := t.TempDir()
	before := digestWorkspace(root)
	writeFile(t, filepath.Join(root, "pom.xml"), "<project/>")
	after := digestWorkspace(root)
	if before == after {
		t.Fatal("digest must change when a build file appears")
	}
	writeFile(t, filepath.Join(root, "pom.xml"), "<project><dependencies/></project>")
	if again := digestWorkspace(root); again == after {
		t.Fatal("digest must change when a build file changes")
	}
}
