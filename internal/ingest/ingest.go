package ingest

import (
	"context"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"

	"monoscope/internal/config"
	"monoscope/internal/model"
	"monoscope/internal/shared/observability"
)

var injectionAnnotations = map[string]bool{
	"Autowired": true,
	"Inject":    true,
	"Resource":  true,
}

var jpaRelationAnnotations = map[string]bool{
	"OneToOne":          true,
	"OneToMany":         true,
	"ManyToOne":         true,
	"ManyToMany":        true,
	"ElementCollection": true,
}

// Anonymous and generated class names never become components.
var invalidClassNameRe = regexp.MustCompile(`^\d|\$`)

// Ingester turns a scanned source tree into a sealed dependency graph plus
// the external-coordinate map for the recommendation engine.
type Ingester struct {
	cfg      *config.Config
	parser   *JavaParser
	resolver *DependencyResolver
}

func NewIngester(cfg *config.Config) *Ingester {
	return &Ingester{
		cfg:      cfg,
		parser:   NewJavaParser(),
		resolver: NewDependencyResolver(),
	}
}

// Resolver exposes the build-file coordinate map after Run.
func (ing *Ingester) Resolver() *DependencyResolver {
	return ing.resolver
}

// Run scans, parses, and builds the graph. Parse failures degrade to
// skipped files; referential closure is enforced by the graph builder.
func (ing *Ingester) Run(ctx context.Context) (*model.DependencyGraph, error) {
	ctx, span := observability.Tracer.Start(ctx, "ingest.Run")
	defer span.End()

	scan, err := NewScanner(ing.cfg).Scan()
	if err != nil {
		return nil, err
	}
	slog.Info("scan complete",
		"java_files", len(scan.JavaFiles),
		"build_files", len(scan.BuildFiles),
		"openapi_files", len(scan.OpenAPIFiles))

	ing.resolver.LoadAll(scan.BuildFiles)

	classes := make([]*JavaClass, 0, len(scan.JavaFiles))
	for _, path := range scan.JavaFiles {
		source, readErr := os.ReadFile(path)
		if readErr != nil {
			slog.Warn("failed to read source", "path", path, "error", readErr)
			continue
		}
		parsed, parseErr := ing.parser.ParseFile(path, source)
		if parseErr != nil {
			slog.Warn("failed to parse source", "path", path, "error", parseErr)
			continue
		}
		classes = append(classes, parsed...)
	}

	graph := ing.buildGraph(classes)
	graph.APIContracts = CollectContracts(ctx, classes, scan.OpenAPIFiles)

	observability.GraphComponents.Set(float64(len(graph.Components)))
	observability.GraphEdges.Set(float64(len(graph.Edges)))
	slog.Info("graph built", "components", len(graph.Components), "edges", len(graph.Edges))
	return graph, nil
}

// buildGraph registers every class, runs the detectors, and accumulates
// typed dependency edges.
func (ing *Ingester) buildGraph(classes []*JavaClass) *model.DependencyGraph {
	builder := model.NewGraphBuilder()

	// Pass 1: register components so edge targets resolve.
	bySimpleName := make(map[string][]*JavaClass)
	for _, jc := range classes {
		if invalidClassNameRe.MatchString(jc.Name) {
			continue
		}
		comp := builder.Register(jc.ID())
		ing.fillComponent(comp, jc)
		bySimpleName[jc.Name] = append(bySimpleName[jc.Name], jc)
	}

	// Pass 2: edges.
	for _, jc := range classes {
		if invalidClassNameRe.MatchString(jc.Name) {
			continue
		}
		ing.addEdges(builder, jc, bySimpleName)
	}

	graph := builder.Build(model.NewMeta("monoscope"))
	attachPackageDependencies(graph)
	return graph
}

// attachPackageDependencies groups each component's outgoing project calls
// by target package.
func attachPackageDependencies(graph *model.DependencyGraph) {
	for i := range graph.Components {
		comp := &graph.Components[i]
		byPackage := make(map[string][]string)
		for _, called := range comp.CallsOut {
			pkg := model.PackageOf(called)
			if pkg == "" {
				continue
			}
			byPackage[pkg] = append(byPackage[pkg], called)
		}
		if len(byPackage) == 0 {
			continue
		}
		packages := make([]string, 0, len(byPackage))
		for pkg := range byPackage {
			packages = append(packages, pkg)
		}
		sort.Strings(packages)
		for _, pkg := range packages {
			comp.PackageDependencies = append(comp.PackageDependencies, model.PackageGroup{
				PackageName: pkg,
				Components:  byPackage[pkg],
				Count:       len(byPackage[pkg]),
			})
		}
	}
}

func (ing *Ingester) fillComponent(comp *model.Component, jc *JavaClass) {
	comp.Files = append(comp.Files, jc.File)
	comp.LOC = jc.LOC
	comp.IsInterface = jc.IsInterface
	comp.TablesUsed = append(comp.TablesUsed, ExtractTables(jc)...)
	comp.SensitiveData = HasSensitiveData(jc)
	comp.SecretsReferences = DetectSecretReferences(jc)
	comp.Domain = ""

	for _, ann := range jc.Annotations {
		comp.Annotations = append(comp.Annotations, ann.Name)
	}

	messagingType, messagingRole := DetectMessaging(jc)
	comp.MessagingType = messagingType
	comp.MessagingRole = model.MessagingRole(messagingRole)
	comp.EJBType = DetectEJBType(jc)
	comp.WebType, comp.WebRole = DetectWeb(jc)

	cbo := ing.estimateCBO(jc)
	comp.CBO = &cbo
	if lcom, ok := estimateLCOM(jc); ok {
		comp.LCOM = &lcom
	}

	for _, fq := range jc.Imports {
		if coord, ok := ing.resolver.ResolveImport(fq); ok {
			comp.ExternalDependencies = append(comp.ExternalDependencies, coord)
		}
	}
}

func (ing *Ingester) addEdges(builder *model.GraphBuilder, jc *JavaClass,
	bySimpleName map[string][]*JavaClass) {

	from := jc.ID()
	resolve := func(simple string) string {
		return resolveType(simple, jc, bySimpleName)
	}

	if jc.Extends != "" {
		if to := resolve(jc.Extends); to != "" {
			builder.AddDependency(from, to, model.StructuralWeight, model.EdgeRelation)
		}
	}
	for _, iface := range jc.Implements {
		if to := resolve(iface); to != "" {
			builder.AddDependency(from, to, model.StructuralWeight, model.EdgeInterfaceImpl)
		}
	}

	// Repository interfaces own a db edge to their entity type argument.
	if IsRepositoryInterface(jc) {
		for _, ref := range jc.ReferencedTypes {
			if to := resolve(ref); to != "" && to != from {
				builder.AddDependency(from, to, model.RepositoryWeight, model.EdgeRepository)
				break
			}
		}
	}

	fieldTypeByName := make(map[string]string, len(jc.Fields))
	for _, field := range jc.Fields {
		fieldTypeByName[field.Name] = field.Type
		to := resolve(field.Type)
		if to == "" || to == from {
			continue
		}

		injected := false
		relation := false
		for _, ann := range field.Annotations {
			if injectionAnnotations[ann.Name] {
				injected = true
			}
			if jpaRelationAnnotations[ann.Name] {
				relation = true
			}
		}

		switch {
		case injected:
			builder.AddDependency(from, to, model.InjectionWeight, model.EdgeInjectionField)
		case relation:
			builder.AddDependency(from, to, model.StructuralWeight, model.EdgeRelation)
		default:
			builder.AddDependency(from, to, model.CallWeight, model.EdgeUses)
		}
	}

	for _, method := range jc.Methods {
		if method.Name == "<init>" {
			for _, param := range method.ParamTypes {
				if to := resolve(param); to != "" && to != from {
					builder.AddDependency(from, to, model.InjectionWeight, model.EdgeInjectionConstructor)
				}
			}
		}

		for _, invoked := range method.Invoked {
			// A bare receiver may be a field; resolve through its type.
			target := invoked
			if fieldType, ok := fieldTypeByName[invoked]; ok {
				target = fieldType
			}
			if to := resolve(target); to != "" && to != from {
				builder.AddDependency(from, to, model.CallWeight, model.EdgeCall)
			}
		}
	}
}

// resolveType maps a simple type name to a project component id via the
// class's imports, its own package, or a unique project-wide match.
func resolveType(simple string, jc *JavaClass, bySimpleName map[string][]*JavaClass) string {
	if simple == "" {
		return ""
	}
	if fq, ok := jc.Imports[simple]; ok {
		if candidates, exists := bySimpleName[simple]; exists {
			for _, candidate := range candidates {
				if candidate.ID() == fq {
					return fq
				}
			}
		}
		return ""
	}
	if candidates, ok := bySimpleName[simple]; ok {
		for _, candidate := range candidates {
			if candidate.Package == jc.Package {
				return candidate.ID()
			}
		}
		if len(candidates) == 1 {
			return candidates[0].ID()
		}
	}
	return ""
}

// estimateCBO counts distinct project-external and internal types the class
// references, excluding itself.
func (ing *Ingester) estimateCBO(jc *JavaClass) int {
	seen := make(map[string]bool)
	for _, ref := range jc.ReferencedTypes {
		if ref != jc.Name && !isPrimitiveLike(ref) {
			seen[ref] = true
		}
	}
	return len(seen)
}

var primitiveLike = map[string]bool{
	"String": true, "Integer": true, "Long": true, "Double": true, "Float": true,
	"Boolean": true, "Byte": true, "Short": true, "Character": true, "Object": true,
	"List": true, "Set": true, "Map": true, "Collection": true, "Optional": true,
	"BigDecimal": true, "BigInteger": true, "LocalDate": true, "LocalDateTime": true,
	"Instant": true, "UUID": true, "Void": true,
}

func isPrimitiveLike(name string) bool {
	return primitiveLike[name]
}

// estimateLCOM computes an LCOM-HS style score in [0,1]: how little the
// methods share the class's fields. Undefined for classes with fewer than
// two methods or no fields.
func estimateLCOM(jc *JavaClass) (float64, bool) {
	methods := 0
	fieldAccess := 0
	fields := len(jc.Fields)
	if fields == 0 {
		return 0, false
	}

	for _, method := range jc.Methods {
		if method.Name == "<init>" || strings.HasPrefix(method.Name, "get") ||
			strings.HasPrefix(method.Name, "set") {
			continue
		}
		methods++
		fieldAccess += len(method.FieldsUsed)
	}
	if methods < 2 {
		return 0, false
	}

	avgPerField := float64(fieldAccess) / float64(fields)
	lcom := (float64(methods) - avgPerField) / float64(methods-1)
	if lcom < 0 {
		lcom = 0
	}
	if lcom > 1 {
		lcom = 1
	}
	return lcom, true
}
