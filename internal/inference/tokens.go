package inference

import (
	"strings"

	"monoscope/internal/model"
)

// Role keywords that mark a simple name as role-bearing. Order is fixed so
// token extraction stays deterministic when a name contains several.
var roleKeywords = []string{
	"service", "controller", "repository", "repo", "usecase",
	"operations", "listener", "publisher", "adapter", "factory", "handler", "db",
}

// Data-object words excluded from similarity tokens. The name generator
// applies the larger configurable exclusion dictionary on top of these.
var dataExcludeTokens = map[string]bool{
	"entity": true, "model": true, "data": true, "dto": true,
	"event": true, "command": true, "query": true,
}

// ExtractDomainTokens collects domain tokens from role-bearing member names:
// the simple-name prefix before the first role keyword (with "repository"
// and "impl" residue stripped), plus the last package segment when longer
// than two characters. A nil exclude set falls back to the built-in
// data-object words with no minimum token length.
func ExtractDomainTokens(members []string, exclude map[string]bool) map[string]bool {
	minLen := 1
	if exclude == nil {
		exclude = dataExcludeTokens
	} else {
		minLen = 3
	}

	tokens := make(map[string]bool)
	for _, id := range members {
		simple := strings.ToLower(model.SimpleName(id))
		pkg := model.PackageOf(id)

		for _, role := range roleKeywords {
			idx := strings.Index(simple, role)
			if idx < 0 {
				continue
			}

			token := simple[:idx]
			token = strings.ReplaceAll(token, "repository", "")
			token = strings.ReplaceAll(token, "impl", "")
			if len(token) >= minLen && !exclude[token] {
				tokens[token] = true
			}

			if pkg != "" {
				segments := strings.Split(pkg, ".")
				last := segments[len(segments)-1]
				if len(last) > 2 && !exclude[last] {
					tokens[last] = true
				}
			}
			break
		}
	}
	return tokens
}
