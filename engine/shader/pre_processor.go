// pre_processor.go implements the Oxy WGSL shader pre-processor. It scans shader
// source code for @oxy: annotations, replaces them with generated WGSL declarations
// or injected struct source, and collects a declarations list that callers use to
// attach buffers to bindings by role.
//
// The pre-processor keeps two registries:
//   - structRegistry: struct keys mapped to their WGSL source and type name, filled by
//     the packages that own the matching Go GPU types (see WithStruct).
//   - addressSpaceRegistry: address space argument keys mapped to WGSL var<> syntax.
package shader

import (
	"fmt"
	"strings"
)

// registryEntry pairs a WGSL struct source string (embedded from a .wgsl asset file)
// with the WGSL type name used in generated @group/@binding declarations.
type registryEntry struct {
	// Source is the raw WGSL struct definition text injected by @oxy:include.
	Source string

	// Type is the WGSL type name emitted in @oxy:group declarations (e.g. "ClusterSpace").
	Type string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	structRegistry       map[AnnotationArg]registryEntry
	addressSpaceRegistry map[AnnotationArg]string

	// declarations accumulates group and provider annotations during a Process call.
	declarations []Annotation
}

// PreProcessor processes raw WGSL shader source code containing @oxy: annotations.
type PreProcessor interface {
	// Process replaces @oxy:include annotations with registered struct sources and
	// @oxy:group annotations with generated @group/@binding declarations. @oxy:provider
	// annotations produce no WGSL output. The declarations list is reset on every call.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code containing annotations to be processed
	//
	// Returns:
	//   - string: the processed WGSL shader source code with annotations replaced
	//   - error: an error if any annotation is malformed or references an unknown type
	Process(source string) (string, error)

	// Declarations returns the group and provider annotations collected during the most
	// recent call to Process, in source order.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last Process call
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// PreProcessorOption is a functional option for configuring a PreProcessor.
type PreProcessorOption func(*preProcessor)

// WithStruct registers a struct for @oxy:include and @oxy:group annotations.
//
// Parameters:
//   - key: the annotation argument naming the struct (e.g. "cluster_space")
//   - source: the WGSL struct definition
//   - typeName: the WGSL type name declared by source
//
// Returns:
//   - PreProcessorOption: option function to apply
func WithStruct(key, source, typeName string) PreProcessorOption {
	return func(p *preProcessor) {
		p.structRegistry[AnnotationArg(key)] = registryEntry{Source: source, Type: typeName}
	}
}

// NewPreProcessor creates a PreProcessor with the address space mappings and any
// registered structs.
//
// Parameters:
//   - options: functional options registering structs
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(options ...PreProcessorOption) PreProcessor {
	p := &preProcessor{
		structRegistry: make(map[AnnotationArg]registryEntry),
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgStorageTypeUniform:   "var<uniform>",
			annotationArgStorageTypeRead:      "var<storage, read>",
			annotationArgStorageTypeReadWrite: "var<storage, read_write>",
		},
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			entry, ok := p.structRegistry[a.Args[0]]
			if !ok {
				return "", fmt.Errorf("line %d: unknown @oxy:include argument %q", i+1, a.Args[0])
			}
			out = append(out, entry.Source)
		case AnnotationTypeBindingGroup:
			wgslType, err := p.resolveType(string(a.Args[2]))
			if err != nil {
				return "", fmt.Errorf("line %d: %w", i+1, err)
			}
			addrSpace := p.addressSpaceRegistry[a.Args[0]]
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", *a.Group, *a.Binding, addrSpace, a.Args[1], wgslType))
			p.declarations = append(p.declarations, *a)
		case AnnotationTypeProvider:
			p.declarations = append(p.declarations, *a)
		default:
			return "", fmt.Errorf("line %d: unknown annotation type %q", i+1, a.Type)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}

// resolveType maps a type argument to WGSL. Registered struct keys resolve to their type
// name; WGSL primitives pass through; array<T> resolves T recursively.
func (p *preProcessor) resolveType(arg string) (string, error) {
	if inner, ok := strings.CutPrefix(arg, "array<"); ok {
		elem, err := p.resolveType(strings.TrimSuffix(inner, ">"))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("array<%s>", elem), nil
	}
	if entry, ok := p.structRegistry[AnnotationArg(arg)]; ok {
		return entry.Type, nil
	}
	if _, ok := primitiveLayout(arg); ok {
		return arg, nil
	}
	return "", fmt.Errorf("unknown type %q in @oxy group annotation", arg)
}
