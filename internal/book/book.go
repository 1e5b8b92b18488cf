// Package book holds the compiler's view of a Bend program: the top-level
// definitions, HVM definitions and algebraic data types of one document,
// keyed by name. The analysis layer only reads it.
package book

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Span is a byte range [Start, End) into the document text.
type Span struct {
	Start int `yaml:"start" json:"start"`
	End   int `yaml:"end" json:"end"`
}

// Def is a function or HVM definition.
type Def struct {
	Name string `yaml:"name" json:"name"`
	Span Span   `yaml:"span" json:"span"`
}

// Field is a constructor field.
type Field struct {
	Name string `yaml:"name" json:"name"`
	Rec  bool   `yaml:"rec,omitempty" json:"rec,omitempty"`
}

// Ctr is a constructor of an ADT. Span is nil when the compiler did not
// record where the constructor was declared.
type Ctr struct {
	Name   string  `yaml:"name" json:"name"`
	Span   *Span   `yaml:"span,omitempty" json:"span,omitempty"`
	Fields []Field `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// Adt is an algebraic data type.
type Adt struct {
	Name string `yaml:"name" json:"name"`
	Span Span   `yaml:"span" json:"span"`
	Ctrs []Ctr  `yaml:"ctrs,omitempty" json:"ctrs,omitempty"`
}

// Book is the set of definitions of one document. Each list keeps
// declaration order and holds at most one entry per name.
type Book struct {
	Defs    []Def `yaml:"defs,omitempty" json:"defs,omitempty"`
	HvmDefs []Def `yaml:"hvm_defs,omitempty" json:"hvm_defs,omitempty"`
	Adts    []Adt `yaml:"adts,omitempty" json:"adts,omitempty"`
}

// New returns an empty book.
func New() *Book { return &Book{} }

// AddDef records a function definition, replacing any earlier one with the
// same name.
func (b *Book) AddDef(d Def) { b.Defs = upsert(b.Defs, d, func(x Def) string { return x.Name }) }

// AddHvmDef records an HVM definition, replacing any earlier one with the
// same name.
func (b *Book) AddHvmDef(d Def) {
	b.HvmDefs = upsert(b.HvmDefs, d, func(x Def) string { return x.Name })
}

// AddAdt records an ADT, replacing any earlier one with the same name.
func (b *Book) AddAdt(a Adt) { b.Adts = upsert(b.Adts, a, func(x Adt) string { return x.Name }) }

// AddCtr appends a constructor to the named ADT.
func (b *Book) AddCtr(adt string, c Ctr) error {
	a := b.Adt(adt)
	if a == nil {
		return fmt.Errorf("book: add constructor %q: unknown type %q", c.Name, adt)
	}
	a.Ctrs = upsert(a.Ctrs, c, func(x Ctr) string { return x.Name })
	return nil
}

// AddField appends a field to a constructor of the named ADT.
func (b *Book) AddField(adt, ctr string, f Field) error {
	a := b.Adt(adt)
	if a == nil {
		return fmt.Errorf("book: add field %q: unknown type %q", f.Name, adt)
	}
	i := slices.IndexFunc(a.Ctrs, func(c Ctr) bool { return c.Name == ctr })
	if i < 0 {
		return fmt.Errorf("book: add field %q: unknown constructor %q", f.Name, ctr)
	}
	a.Ctrs[i].Fields = append(a.Ctrs[i].Fields, f)
	return nil
}

// Def returns the function definition called name, or nil.
func (b *Book) Def(name string) *Def {
	i := slices.IndexFunc(b.Defs, func(d Def) bool { return d.Name == name })
	if i < 0 {
		return nil
	}
	return &b.Defs[i]
}

// Adt returns the ADT called name, or nil.
func (b *Book) Adt(name string) *Adt {
	i := slices.IndexFunc(b.Adts, func(a Adt) bool { return a.Name == name })
	if i < 0 {
		return nil
	}
	return &b.Adts[i]
}

// Empty reports whether the book has no definitions at all.
func (b *Book) Empty() bool {
	return b == nil || len(b.Defs) == 0 && len(b.HvmDefs) == 0 && len(b.Adts) == 0
}

func upsert[T any](list []T, v T, key func(T) string) []T {
	k := key(v)
	if i := slices.IndexFunc(list, func(x T) bool { return key(x) == k }); i >= 0 {
		list[i] = v
		return list
	}
	return append(list, v)
}

// Load decodes a book from YAML. JSON input is accepted as well, JSON being
// a subset of YAML. Duplicate names are collapsed, the last entry winning.
func Load(data []byte) (*Book, error) {
	var raw Book
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("book: decode: %w", err)
	}
	b := New()
	for _, d := range raw.Defs {
		b.AddDef(d)
	}
	for _, d := range raw.HvmDefs {
		b.AddHvmDef(d)
	}
	for _, a := range raw.Adts {
		ctrs := a.Ctrs
		a.Ctrs = nil
		b.AddAdt(a)
		for _, c := range ctrs {
			if err := b.AddCtr(a.Name, c); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}

// LoadFile reads and decodes a book file.
func LoadFile(path string) (*Book, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("book: read %s: %w", path, err)
	}
	return Load(data)
}
