package ingest

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"monoscope/internal/model"
)

var restMethodAnnotations = map[string]string{
	"GetMapping":     "GET",
	"PostMapping":    "POST",
	"PutMapping":     "PUT",
	"DeleteMapping":  "DELETE",
	"PatchMapping":   "PATCH",
	"GET":            "GET",
	"POST":           "POST",
	"PUT":            "PUT",
	"DELETE":         "DELETE",
	"PATCH":          "PATCH",
	"RequestMapping": "GET",
}

// The first quoted argument of a mapping annotation is its path.
var annotationPathRe = regexp.MustCompile(`"([^"]*)"`)

// CollectContracts merges annotation-derived endpoints with any OpenAPI
// documents checked into the project.
func CollectContracts(ctx context.Context, classes []*JavaClass, openAPIFiles []string) model.APIContracts {
	contracts := model.APIContracts{
		Endpoints: []model.APIEndpoint{},
		Schemas:   map[string]model.APISchema{},
	}

	for _, jc := range classes {
		basePath := ""
		for _, ann := range jc.Annotations {
			if ann.Name == "RequestMapping" || ann.Name == "Path" {
				basePath = pathFromArgs(ann.Args)
			}
		}

		for _, method := range jc.Methods {
			for _, ann := range method.Annotations {
				httpMethod, ok := restMethodAnnotations[ann.Name]
				if !ok {
					continue
				}
				contracts.Endpoints = append(contracts.Endpoints, model.APIEndpoint{
					Method:      httpMethod,
					Path:        joinPaths(basePath, pathFromArgs(ann.Args)),
					Component:   jc.ID(),
					OperationID: method.Name,
				})
			}
		}
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	for _, path := range openAPIFiles {
		doc, err := loader.LoadFromFile(path)
		if err != nil {
			slog.Warn("failed to load openapi document", "path", path, "error", err)
			continue
		}
		mergeOpenAPI(&contracts, doc)
	}

	sort.Slice(contracts.Endpoints, func(i, j int) bool {
		a, b := contracts.Endpoints[i], contracts.Endpoints[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Method < b.Method
	})
	return contracts
}

func mergeOpenAPI(contracts *model.APIContracts, doc *openapi3.T) {
	if doc.Paths != nil {
		for path, item := range doc.Paths.Map() {
			for method, op := range item.Operations() {
				endpoint := model.APIEndpoint{
					Method: strings.ToUpper(method),
					Path:   path,
				}
				if op != nil {
					endpoint.OperationID = op.OperationID
					endpoint.Summary = op.Summary
				}
				contracts.Endpoints = append(contracts.Endpoints, endpoint)
			}
		}
	}

	if doc.Components != nil {
		for name, ref := range doc.Components.Schemas {
			schema := model.APISchema{Name: name, Properties: map[string]string{}}
			if ref != nil && ref.Value != nil {
				for prop, propRef := range ref.Value.Properties {
					kind := ""
					if propRef != nil && propRef.Value != nil && propRef.Value.Type != nil {
						types := propRef.Value.Type.Slice()
						if len(types) > 0 {
							kind = types[0]
						}
					}
					schema.Properties[prop] = kind
				}
			}
			contracts.Schemas[name] = schema
		}
	}
}

func pathFromArgs(args string) string {
	if m := annotationPathRe.FindStringSubmatch(args); m != nil {
		return m[1]
	}
	return ""
}

func joinPaths(base, sub string) string {
	base = strings.TrimSuffix(base, "/")
	if sub == "" {
		if base == "" {
			return "/"
		}
		return base
	}
	if !strings.HasPrefix(sub, "/") {
		sub = "/" + sub
	}
	return base + sub
}
