package value

import "pagedb/internal/errs"

// ColumnDef names one column of a table's schema, following the shape of
// DaemonDB's types.ColumnDef (Name, type, size) generalized onto this
// package's Kind instead of a bare string type name.
type ColumnDef struct {
	Name string
	Kind Kind
	// Size bounds a VARCHAR column's length; zero means unbounded. Ignored
	// for other kinds.
	Size int
}

// Schema is an ordered list of column definitions a Tuple is validated and
// encoded against.
type Schema struct {
	Columns []ColumnDef
}

func NewSchema(columns ...ColumnDef) Schema {
	return Schema{Columns: columns}
}

func (s Schema) ColumnIndex(name string) (int, bool) {
	for i, c := range s.Columns {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Validate checks that values matches the schema's column count, kinds,
// and any VARCHAR size bound.
func (s Schema) Validate(values []Value) error {
	if len(values) != len(s.Columns) {
		return errs.New(errs.SchemaMismatch,
			"value count does not match schema column count")
	}
	for i, col := range s.Columns {
		v := values[i]
		if v.IsNull() {
			continue
		}
		if v.Kind != col.Kind {
			return errs.New(errs.SchemaMismatch,
				"column "+col.Name+" kind mismatch")
		}
		if col.Kind == KindVarchar && col.Size > 0 && len(v.Str) > col.Size {
			return errs.New(errs.SchemaMismatch,
				"column "+col.Name+" exceeds its declared size")
		}
	}
	return nil
}
