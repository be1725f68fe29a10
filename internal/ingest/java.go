package ingest

import (
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"monoscope/internal/core/errors"
	"monoscope/internal/shared/observability"
)

// JavaClass is the intermediate extraction of one top-level or nested type
// declaration. The ingester folds these into graph components.
type JavaClass struct {
	Package         string
	Name            string
	IsInterface     bool
	LOC             int
	Annotations     []Annotation
	Extends         string
	Implements      []string
	Fields          []Field
	Methods         []Method
	Imports         map[string]string // simple name -> fully-qualified import
	ReferencedTypes []string
	StringLiterals  []string
	File            string
}

// Annotation is a simple annotation name plus its raw argument text.
type Annotation struct {
	Name string
	Args string
}

type Field struct {
	Name        string
	Type        string
	Annotations []Annotation
}

type Method struct {
	Name        string
	LOC         int
	ParamTypes  []string
	Annotations []Annotation
	// Own-field names the body reads or writes, used for the LCOM estimate.
	FieldsUsed map[string]bool
	// Simple type names invoked or constructed in the body.
	Invoked []string
}

// ID returns the fully-qualified class name.
func (jc *JavaClass) ID() string {
	if jc.Package == "" {
		return jc.Name
	}
	return jc.Package + "." + jc.Name
}

// HasAnnotation matches a simple annotation name case-insensitively.
func (jc *JavaClass) HasAnnotation(name string) bool {
	for _, a := range jc.Annotations {
		if strings.EqualFold(a.Name, name) {
			return true
		}
	}
	return false
}

// JavaParser extracts class declarations from Java source files with the
// tree-sitter Java grammar.
type JavaParser struct {
	language *sitter.Language
}

func NewJavaParser() *JavaParser {
	return &JavaParser{language: sitter.NewLanguage(tree_sitter_java.Language())}
}

// ParseFile extracts every type declaration from one source file.
func (p *JavaParser) ParseFile(path string, source []byte) ([]*JavaClass, error) {
	start := time.Now()
	defer func() {
		observability.ParsingDuration.WithLabelValues("java").Observe(time.Since(start).Seconds())
	}()

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(p.language); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "set java grammar")
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, errors.AddContext(errors.New(errors.CodeInternal, "parse failed"), errors.CtxPath, path)
	}
	defer tree.Close()

	root := tree.RootNode()

	pkg := ""
	imports := make(map[string]string)
	classes := make([]*JavaClass, 0, 1)

	var walkTop func(node *sitter.Node)
	walkTop = func(node *sitter.Node) {
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			switch child.Kind() {
			case "package_declaration":
				pkg = p.scopedName(child, source)
			case "import_declaration":
				fq := p.scopedName(child, source)
				if fq != "" && !strings.HasSuffix(fq, "*") {
					simple := fq[strings.LastIndex(fq, ".")+1:]
					imports[simple] = fq
				}
			case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
				if jc := p.extractClass(child, source, pkg, imports, path); jc != nil {
					classes = append(classes, jc)
				}
			}
		}
	}
	walkTop(root)

	return classes, nil
}

func (p *JavaParser) extractClass(node *sitter.Node, source []byte, pkg string,
	imports map[string]string, path string) *JavaClass {

	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	jc := &JavaClass{
		Package:     pkg,
		Name:        text(nameNode, source),
		IsInterface: node.Kind() == "interface_declaration",
		LOC:         int(node.EndPosition().Row-node.StartPosition().Row) + 1,
		Imports:     imports,
		File:        path,
	}

	jc.Annotations = p.modifierAnnotations(node, source)

	// The superclass node text carries the "extends" keyword.
	if superclass := node.ChildByFieldName("superclass"); superclass != nil {
		if names := typeListNames(text(superclass, source)); len(names) > 0 {
			jc.Extends = names[0]
		}
	}
	if interfaces := node.ChildByFieldName("interfaces"); interfaces != nil {
		jc.Implements = typeListNames(text(interfaces, source))
	}
	// Interface extends clause counts as implements for dependency purposes.
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "extends_interfaces" {
			jc.Implements = append(jc.Implements, typeListNames(text(child, source))...)
		}
	}

	body := node.ChildByFieldName("body")
	if body != nil {
		p.extractBody(jc, body, source)
	}

	fieldNames := make(map[string]bool, len(jc.Fields))
	for _, f := range jc.Fields {
		fieldNames[f.Name] = true
	}
	for i := range jc.Methods {
		pruned := make(map[string]bool)
		for name := range jc.Methods[i].FieldsUsed {
			if fieldNames[name] {
				pruned[name] = true
			}
		}
		jc.Methods[i].FieldsUsed = pruned
	}

	p.collectReferences(jc, node, source)
	return jc
}

func (p *JavaParser) extractBody(jc *JavaClass, body *sitter.Node, source []byte) {
	for i := uint(0); i < body.ChildCount(); i++ {
		child := body.Child(i)
		switch child.Kind() {
		case "field_declaration":
			fieldType := ""
			if tn := child.ChildByFieldName("type"); tn != nil {
				fieldType = lastTypeName(text(tn, source))
			}
			annotations := p.modifierAnnotations(child, source)
			for j := uint(0); j < child.ChildCount(); j++ {
				decl := child.Child(j)
				if decl.Kind() != "variable_declarator" {
					continue
				}
				if nameNode := decl.ChildByFieldName("name"); nameNode != nil {
					jc.Fields = append(jc.Fields, Field{
						Name:        text(nameNode, source),
						Type:        fieldType,
						Annotations: annotations,
					})
				}
			}

		case "method_declaration", "constructor_declaration":
			method := Method{
				LOC:         int(child.EndPosition().Row-child.StartPosition().Row) + 1,
				Annotations: p.modifierAnnotations(child, source),
				FieldsUsed:  make(map[string]bool),
			}
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				method.Name = text(nameNode, source)
			}
			if params := child.ChildByFieldName("parameters"); params != nil {
				for j := uint(0); j < params.ChildCount(); j++ {
					param := params.Child(j)
					if param.Kind() != "formal_parameter" {
						continue
					}
					if tn := param.ChildByFieldName("type"); tn != nil {
						method.ParamTypes = append(method.ParamTypes, lastTypeName(text(tn, source)))
					}
				}
			}
			if methodBody := child.ChildByFieldName("body"); methodBody != nil {
				p.walkMethodBody(&method, methodBody, source)
			}
			if child.Kind() == "constructor_declaration" {
				method.Name = "<init>"
			}
			jc.Methods = append(jc.Methods, method)

		case "class_declaration", "interface_declaration", "enum_declaration":
			// Nested types are flattened into the outer class LOC; their
			// references still surface through collectReferences.
		}
	}
}

func (p *JavaParser) walkMethodBody(method *Method, node *sitter.Node, source []byte) {
	switch node.Kind() {
	case "method_invocation":
		if object := node.ChildByFieldName("object"); object != nil {
			base := text(object, source)
			if i := strings.IndexAny(base, ".("); i > 0 {
				base = base[:i]
			}
			if base != "" {
				method.Invoked = append(method.Invoked, base)
			}
		}
	case "object_creation_expression":
		if tn := node.ChildByFieldName("type"); tn != nil {
			method.Invoked = append(method.Invoked, lastTypeName(text(tn, source)))
		}
	case "field_access":
		if object := node.ChildByFieldName("object"); object != nil && text(object, source) == "this" {
			if fieldNode := node.ChildByFieldName("field"); fieldNode != nil {
				method.FieldsUsed[text(fieldNode, source)] = true
			}
		}
	case "identifier":
		method.FieldsUsed[text(node, source)] = true
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		p.walkMethodBody(method, node.Child(i), source)
	}
}

// collectReferences gathers every type identifier and string literal in the
// declaration subtree.
func (p *JavaParser) collectReferences(jc *JavaClass, node *sitter.Node, source []byte) {
	switch node.Kind() {
	case "type_identifier":
		jc.ReferencedTypes = append(jc.ReferencedTypes, text(node, source))
	case "scoped_type_identifier":
		jc.ReferencedTypes = append(jc.ReferencedTypes, lastTypeName(text(node, source)))
	case "string_literal":
		jc.StringLiterals = append(jc.StringLiterals, strings.Trim(text(node, source), `"`))
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		p.collectReferences(jc, node.Child(i), source)
	}
}

// modifierAnnotations pulls annotations off the modifiers child of a
// declaration node.
func (p *JavaParser) modifierAnnotations(node *sitter.Node, source []byte) []Annotation {
	annotations := make([]Annotation, 0, 2)
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() != "modifiers" {
			continue
		}
		for j := uint(0); j < child.ChildCount(); j++ {
			mod := child.Child(j)
			switch mod.Kind() {
			case "marker_annotation", "annotation":
				name := ""
				args := ""
				if nameNode := mod.ChildByFieldName("name"); nameNode != nil {
					name = lastTypeName(text(nameNode, source))
				}
				if argsNode := mod.ChildByFieldName("arguments"); argsNode != nil {
					args = text(argsNode, source)
				}
				if name != "" {
					annotations = append(annotations, Annotation{Name: name, Args: args})
				}
			}
		}
	}
	return annotations
}

// scopedName returns the dotted identifier of a package or import
// declaration, without keywords or the trailing semicolon.
func (p *JavaParser) scopedName(node *sitter.Node, source []byte) string {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "scoped_identifier", "identifier":
			return text(child, source)
		case "asterisk":
			return "*"
		}
	}
	return ""
}

func text(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// lastTypeName strips packages and generics from a type expression:
// "java.util.List<Foo>" -> "List", "JpaRepository<Item, Long>" -> "JpaRepository".
func lastTypeName(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, "<"); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.LastIndex(raw, "."); i >= 0 {
		raw = raw[i+1:]
	}
	return strings.TrimSpace(raw)
}

// typeListNames splits "implements A, B<C>" into simple type names.
func typeListNames(raw string) []string {
	raw = strings.TrimSpace(raw)
	for _, prefix := range []string{"implements", "extends"} {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, prefix))
	}
	names := make([]string, 0, 2)
	depth := 0
	current := strings.Builder{}
	for _, r := range raw {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				if name := lastTypeName(current.String()); name != "" {
					names = append(names, name)
				}
				current.Reset()
				continue
			}
		}
		current.WriteRune(r)
	}
	if name := lastTypeName(current.String()); name != "" {
		names = append(names, name)
	}
	return names
}

// GenericTypeArguments returns the simple names inside the first generic
// argument list of a type expression, e.g. repository supertypes.
func GenericTypeArguments(raw string) []string {
	open := strings.Index(raw, "<")
	end := strings.LastIndex(raw, ">")
	if open < 0 || end <= open {
		return nil
	}
	return typeListNames(raw[open+1 : end])
}
