package fieldmeta

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Table is a concrete, builder-style FieldMeta implementation. Callers
// assemble one with New and the With* methods, or load one from a JSON
// schema file with DecodeTable.
type Table struct {
	defaultField string
	types        map[string]FieldType
	aliases      map[string]string
	transforms   map[string]Transform
	noDowncase   map[string]struct{}
	nested       map[string]string
}

// New creates an empty Table with the given default field.
func New(defaultField string) *Table {
	return &Table{
		defaultField: defaultField,
		types:        make(map[string]FieldType),
		aliases:      make(map[string]string),
		transforms:   make(map[string]Transform),
		noDowncase:   make(map[string]struct{}),
		nested:       make(map[string]string),
	}
}

// WithType declares field's type and returns the Table for chaining.
func (t *Table) WithType(field string, ft FieldType) *Table {
	t.types[strings.ToLower(field)] = ft
	return t
}

// WithAlias declares field as an alias of canonical.
func (t *Table) WithAlias(field, canonical string) *Table {
	t.aliases[strings.ToLower(field)] = canonical
	return t
}

// WithTransform registers tr as field's value transform.
func (t *Table) WithTransform(field string, tr Transform) *Table {
	t.transforms[strings.ToLower(field)] = tr
	return t
}

// WithNoDowncase exempts the given literal fields from downcasing.
func (t *Table) WithNoDowncase(fields ...string) *Table {
	for _, f := range fields {
		t.noDowncase[strings.ToLower(f)] = struct{}{}
	}
	return t
}

// WithNested declares field as a nested sub-field of parentPath.
func (t *Table) WithNested(field, parentPath string) *Table {
	t.nested[strings.ToLower(field)] = parentPath
	return t
}

// WithDefaultField overrides the default field and returns the Table for
// chaining.
func (t *Table) WithDefaultField(field string) *Table {
	t.defaultField = field
	return t
}

// TypeOf implements FieldMeta.
func (t *Table) TypeOf(field string) (FieldType, bool) {
	ft, ok := t.types[strings.ToLower(field)]
	return ft, ok
}

// AliasOf implements FieldMeta.
func (t *Table) AliasOf(field string) (string, bool) {
	canonical, ok := t.aliases[strings.ToLower(field)]
	return canonical, ok
}

// TransformOf implements FieldMeta.
func (t *Table) TransformOf(field string) (Transform, bool) {
	tr, ok := t.transforms[strings.ToLower(field)]
	return tr, ok
}

// NoDowncase implements FieldMeta.
func (t *Table) NoDowncase(field string) bool {
	_, ok := t.noDowncase[strings.ToLower(field)]
	return ok
}

// NestedPathOf implements FieldMeta.
func (t *Table) NestedPathOf(field string) (string, bool) {
	path, ok := t.nested[strings.ToLower(field)]
	return path, ok
}

// DefaultField implements FieldMeta.
func (t *Table) DefaultField() string { return t.defaultField }

// schemaFile is the on-disk JSON shape DecodeTable reads. It intentionally
// omits transforms: a transform is Go code, not data, so it must still be
// registered with WithTransform after decoding.
type schemaFile struct {
	DefaultField string            `json:"default_field"`
	Fields       map[string]string `json:"fields"`
	Aliases      map[string]string `json:"aliases"`
	Nested       map[string]string `json:"nested"`
	NoDowncase   []string          `json:"no_downcase"`
}

// DecodeTable reads a JSON field-metadata schema of the form:
//
//	{
//	  "default_field": "t.name",
//	  "fields": {"score": "integer", "created_at": "date"},
//	  "aliases": {"name": "t.name"},
//	  "nested": {"review.author": "review"},
//	  "no_downcase": ["id"]
//	}
func DecodeTable(r io.Reader) (*Table, error) {
	var raw schemaFile
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("fieldmeta: decode schema: %w", err)
	}

	table := New(raw.DefaultField)
	for field, typeName := range raw.Fields {
		ft, ok := ParseFieldType(strings.ToLower(typeName))
		if !ok {
			return nil, fmt.Errorf("fieldmeta: field %q: unknown type %q", field, typeName)
		}
		table.WithType(field, ft)
	}
	for field, canonical := range raw.Aliases {
		table.WithAlias(field, canonical)
	}
	for field, parentPath := range raw.Nested {
		table.WithNested(field, parentPath)
	}
	table.WithNoDowncase(raw.NoDowncase...)

	return table, nil
}
