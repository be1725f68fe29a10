package ingest

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"monoscope/internal/config"
)

// Scanner walks the project tree collecting Java sources, build files, and
// OpenAPI documents, honoring the exclusion globs.
type Scanner struct {
	root       string
	sourceDirs []string
	excludes   []glob.Glob
}

// ScanResult groups the discovered file paths by role.
type ScanResult struct {
	JavaFiles    []string
	BuildFiles   []string
	OpenAPIFiles []string
}

func NewScanner(cfg *config.Config) *Scanner {
	excludes := make([]glob.Glob, 0, len(cfg.Exclude.Dirs)+len(cfg.Exclude.Files))
	for _, pattern := range append(append([]string{}, cfg.Exclude.Dirs...), cfg.Exclude.Files...) {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			slog.Warn("invalid exclude pattern", "pattern", pattern, "error", err)
			continue
		}
		excludes = append(excludes, g)
	}
	return &Scanner{
		root:       cfg.Project.Root,
		sourceDirs: cfg.Project.SourceDirs,
		excludes:   excludes,
	}
}

// Scan collects every relevant file under the first source dir that exists,
// falling back to the project root.
func (s *Scanner) Scan() (*ScanResult, error) {
	base := s.root
	for _, dir := range s.sourceDirs {
		candidate := filepath.Join(s.root, dir)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			base = candidate
			break
		}
	}

	result := &ScanResult{}
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("scan error", "path", path, "error", err)
			return nil
		}
		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if s.excluded(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		name := strings.ToLower(d.Name())
		switch {
		case strings.HasSuffix(name, ".java"):
			result.JavaFiles = append(result.JavaFiles, path)
		case name == "pom.xml" || name == "build.gradle" || name == "build.gradle.kts":
			result.BuildFiles = append(result.BuildFiles, path)
		case isOpenAPIName(name):
			result.OpenAPIFiles = append(result.OpenAPIFiles, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Build files can also sit above the source root.
	for _, candidate := range []string{"pom.xml", "build.gradle", "build.gradle.kts"} {
		path := filepath.Join(s.root, candidate)
		if _, statErr := os.Stat(path); statErr == nil && !contains(result.BuildFiles, path) {
			result.BuildFiles = append(result.BuildFiles, path)
		}
	}

	sort.Strings(result.JavaFiles)
	sort.Strings(result.BuildFiles)
	sort.Strings(result.OpenAPIFiles)
	return result, nil
}

func (s *Scanner) excluded(rel string) bool {
	for _, g := range s.excludes {
		// Leading-slash form lets "**/target/**" catch top-level dirs too.
		if g.Match(rel) || g.Match("/"+rel) {
			return true
		}
	}
	return false
}

func isOpenAPIName(name string) bool {
	if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") &&
		!strings.HasSuffix(name, ".json") {
		return false
	}
	return strings.Contains(name, "openapi") || strings.Contains(name, "swagger")
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
