package types

// FieldKind classifies a stored field by the shape of value it holds.
type FieldKind string

// Field kinds recognised by stores and classification policies.
const (
	KindChar    FieldKind = "char"  // bounded short text (VARCHAR, CHAR)
	KindEmail   FieldKind = "email" // short text holding an e-mail address
	KindText    FieldKind = "text"  // unbounded text
	KindInteger FieldKind = "int"
	KindOther   FieldKind = "other"
)

// validKinds is the set of recognized FieldKind values.
var validKinds = map[FieldKind]bool{
	KindChar:    true,
	KindEmail:   true,
	KindText:    true,
	KindInteger: true,
	KindOther:   true,
}

// Valid reports whether k is one of the recognized kinds.
func (k FieldKind) Valid() bool {
	return validKinds[k]
}

// Field describes one field of a record type.
type Field struct {
	Name string    `json:"name"`
	Kind FieldKind `json:"kind"`
}

// RecordSchema enumerates the fields of one record type as seen by the store.
// Key names the field that identifies a record for updates.
type RecordSchema struct {
	RecordType string  `json:"record_type"`
	Table      string  `json:"table"`
	Key        string  `json:"key"`
	Fields     []Field `json:"fields"`
}

// Field returns the field with the given name.
func (s RecordSchema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Record is a mutable bag of named field values owned by the store. Key holds
// the value of the schema's key field and is never rewritten.
type Record struct {
	Key    any
	Values map[string]any
}

// NewRecord returns a record with an empty value map.
func NewRecord(key any) *Record {
	return &Record{Key: key, Values: make(map[string]any)}
}

// Get returns the value of a field and whether it is present.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// Set replaces the value of a field.
func (r *Record) Set(name string, value any) {
	if r.Values == nil {
		r.Values = make(map[string]any)
	}
	r.Values[name] = value
}
