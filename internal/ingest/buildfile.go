package ingest

import (
	"encoding/xml"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// DependencyResolver reads Maven and Gradle build files and maps external
// coordinates. Keys are "group:artifact", values the full coordinate with
// version when one is declared.
type DependencyResolver struct {
	dependencies map[string]string
}

func NewDependencyResolver() *DependencyResolver {
	return &DependencyResolver{dependencies: make(map[string]string)}
}

type mavenProject struct {
	Dependencies struct {
		Dependency []mavenDependency `xml:"dependency"`
	} `xml:"dependencies"`
	DependencyManagement struct {
		Dependencies struct {
			Dependency []mavenDependency `xml:"dependency"`
		} `xml:"dependencies"`
	} `xml:"dependencyManagement"`
}

type mavenDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

var gradleDependencyRe = regexp.MustCompile(
	`(?m)(?:implementation|api|compile|compileOnly|runtimeOnly|testImplementation)\s*[\(]?\s*['"]([\w.\-]+):([\w.\-]+)(?::([\w.\-]+))?['"]`)

// LoadAll parses every discovered build file.
func (r *DependencyResolver) LoadAll(paths []string) {
	for _, path := range paths {
		lower := strings.ToLower(path)
		switch {
		case strings.HasSuffix(lower, "pom.xml"):
			r.loadMaven(path)
		case strings.Contains(lower, "build.gradle"):
			r.loadGradle(path)
		}
	}
}

// Dependencies returns the coordinate map.
func (r *DependencyResolver) Dependencies() map[string]string {
	out := make(map[string]string, len(r.dependencies))
	for k, v := range r.dependencies {
		out[k] = v
	}
	return out
}

// ResolveImport maps a fully-qualified import to a known coordinate when its
// package prefix matches a dependency group.
func (r *DependencyResolver) ResolveImport(fqImport string) (string, bool) {
	for coord, full := range r.dependencies {
		group := coord[:strings.Index(coord, ":")]
		if strings.HasPrefix(fqImport, group) {
			return full, true
		}
	}
	return "", false
}

func (r *DependencyResolver) loadMaven(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("failed to read pom", "path", path, "error", err)
		return
	}

	var project mavenProject
	if err := xml.Unmarshal(data, &project); err != nil {
		slog.Warn("failed to parse pom", "path", path, "error", err)
		return
	}

	deps := append(project.Dependencies.Dependency,
		project.DependencyManagement.Dependencies.Dependency...)
	for _, dep := range deps {
		r.add(dep.GroupID, dep.ArtifactID, dep.Version)
	}
}

func (r *DependencyResolver) loadGradle(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("failed to read gradle build", "path", path, "error", err)
		return
	}

	for _, m := range gradleDependencyRe.FindAllStringSubmatch(string(data), -1) {
		r.add(m[1], m[2], m[3])
	}
}

func (r *DependencyResolver) add(group, artifact, version string) {
	group = strings.TrimSpace(group)
	artifact = strings.TrimSpace(artifact)
	if group == "" || artifact == "" || strings.Contains(group, "$") {
		return
	}
	key := group + ":" + artifact
	full := key
	if version != "" && !strings.Contains(version, "$") {
		full = key + ":" + version
	}
	if existing, ok := r.dependencies[key]; !ok || len(full) > len(existing) {
		r.dependencies[key] = full
	}
}
