// Package infer derives a Java classpath from a workspace root. A
// javaconfig.toml manifest wins when present; otherwise conventional
// build output locations are scanned. Scan results are cached on disk
// keyed by a digest of the workspace's build configuration.
package infer

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/sync/errgroup"
)

const cacheAppName = "java-language-server"

// buildFiles are the recognized build-configuration files. A change to
// any of them invalidates the compiler handle and the inference cache.
var buildFiles = []string{"javaconfig.toml", "pom.xml", "build.gradle"}

// IsBuildFile reports whether path names a recognized
// build-configuration file.
func IsBuildFile(path string) bool {
	base := filepath.Base(path)
	for _, name := range buildFiles {
		if base == name {
			return true
		}
	}
	return false
}

// Config mirrors javaconfig.toml at the workspace root.
type Config struct {
	Classpath classpathConfig `toml:"classpath"`
	Lint      lintConfig      `toml:"lint"`
}

type classpathConfig struct {
	Entries []string `toml:"entries"`
}

type lintConfig struct {
	Command []string `toml:"command"`
}

// LoadConfig reads javaconfig.toml under root. ok is false when the
// manifest does not exist.
func LoadConfig(root string) (Config, bool, error) {
	path := filepath.Join(root, "javaconfig.toml")
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, false, nil
		}
		return Config{}, false, fmt.Errorf("failed to stat %q: %w", path, err)
	}
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, true, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	for _, entry := range cfg.Classpath.Entries {
		if strings.TrimSpace(entry) == "" {
			return Config{}, true, fmt.Errorf("%s: empty [classpath].entries value", path)
		}
	}
	return cfg, true, nil
}

// Classpath infers the classpath for a workspace root. The root must
// resolve to an existing directory.
func Classpath(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("workspace root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root %q is not a directory", root)
	}

	cfg, ok, err := LoadConfig(root)
	if err != nil {
		return nil, err
	}
	if ok && len(cfg.Classpath.Entries) > 0 {
		entries := make([]string, 0, len(cfg.Classpath.Entries))
		for _, entry := range cfg.Classpath.Entries {
			if !filepath.IsAbs(entry) {
				entry = filepath.Join(root, entry)
			}
			entries = append(entries, entry)
		}
		return entries, nil
	}

	key := digestWorkspace(root)
	cache, cacheErr := OpenCache(cacheAppName)
	if cacheErr == nil {
		if entries, hit, err := cache.Get(key); err == nil && hit {
			return entries, nil
		}
	}

	entries, err := scanWorkspace(root)
	if err != nil {
		return nil, err
	}
	if cacheErr == nil {
		if err := cache.Put(key, entries); err != nil {
			slog.Debug("failed to cache inferred classpath",
				slog.String("root", root),
				slog.String("error", err.Error()),
			)
		}
	}
	return entries, nil
}

// jarDirs hold dependency jars; classDirs hold compiled classes. The
// order here fixes the order of the inferred classpath.
var (
	jarDirs   = []string{"lib", filepath.Join("target", "dependency")}
	classDirs = []string{filepath.Join("target", "classes"), filepath.Join("build", "classes")}
)

// scanWorkspace walks the conventional build locations concurrently and
// merges the results in a fixed, deterministic order.
func scanWorkspace(root string) ([]string, error) {
	results := make([][]string, len(jarDirs)+len(classDirs))
	var g errgroup.Group

	for i, dir := range jarDirs {
		i, dir := i, dir
		g.Go(func() error {
			jars, err := collectJars(filepath.Join(root, dir))
			if err != nil {
				return err
			}
			results[i] = jars
			return nil
		})
	}
	for i, dir := range classDirs {
		i, dir := i, dir
		g.Go(func() error {
			path := filepath.Join(root, dir)
			info, err := os.Stat(path)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return nil
				}
				return fmt.Errorf("failed to stat %q: %w", path, err)
			}
			if info.IsDir() {
				results[len(jarDirs)+i] = []string{path}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var entries []string
	for _, part := range results {
		entries = append(entries, part...)
	}
	return entries, nil
}

// collectJars gathers *.jar files under dir. WalkDir visits entries in
// lexical order, so the result is deterministic.
func collectJars(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, nil
	}
	var jars []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".jar") {
			jars = append(jars, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jars, nil
}
