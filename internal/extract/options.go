package extract

import "fmt"

// ElementType is a content category extracted as structured data.
type ElementType string

const (
	ElementText   ElementType = "text"
	ElementTables ElementType = "tables"
)

// RenditionType is a content category rendered as standalone files.
type RenditionType string

const (
	RenditionTables  RenditionType = "tables"
	RenditionFigures RenditionType = "figures"
)

// Options describes what an extraction job mines from a document. The zero
// value is not valid; use DefaultOptions or NewOptions.
type Options struct {
	elements   []ElementType
	renditions []RenditionType
}

// DefaultOptions extracts text and tables and renders tables and figures.
func DefaultOptions() Options {
	o, _ := NewOptions(
		[]ElementType{ElementText, ElementTables},
		[]RenditionType{RenditionTables, RenditionFigures},
	)
	return o
}

// NewOptions validates and copies the given categories.
func NewOptions(elements []ElementType, renditions []RenditionType) (Options, error) {
	if len(elements) == 0 {
		return Options{}, fmt.Errorf("at least one element type is required")
	}
	seen := map[string]bool{}
	for _, e := range elements {
		if e != ElementText && e != ElementTables {
			return Options{}, fmt.Errorf("unknown element type %q", e)
		}
		if seen["e:"+string(e)] {
			return Options{}, fmt.Errorf("duplicate element type %q", e)
		}
		seen["e:"+string(e)] = true
	}
	for _, r := range renditions {
		if r != RenditionTables && r != RenditionFigures {
			return Options{}, fmt.Errorf("unknown rendition type %q", r)
		}
		if seen["r:"+string(r)] {
			return Options{}, fmt.Errorf("duplicate rendition type %q", r)
		}
		seen["r:"+string(r)] = true
	}
	return Options{
		elements:   append([]ElementType(nil), elements...),
		renditions: append([]RenditionType(nil), renditions...),
	}, nil
}

// Elements returns a copy of the structured-data categories.
func (o Options) Elements() []ElementType { return append([]ElementType(nil), o.elements...) }

// Renditions returns a copy of the rendition categories.
func (o Options) Renditions() []RenditionType { return append([]RenditionType(nil), o.renditions...) }
