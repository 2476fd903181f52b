package records

import "sort"

const (
	// FieldEmployeeID names the field that ties every record to an employee.
	FieldEmployeeID = "employeeId"
	// FieldInitialRole is the role level recorded at hiring. The column keeps
	// its historical spelling.
	FieldInitialRole = "initalRole"
)

// Record is a schema-tagged set of field values. Records are not safe for
// concurrent mutation; each caller works on its own instance.
type Record struct {
	kind   Kind
	values map[string]string
}

// New builds a record of kind holding a copy of values.
func New(kind Kind, values map[string]string) *Record {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &Record{kind: kind, values: copied}
}

// Placeholder builds the partial record used to check a View before the row
// is known. It carries only the employee id.
func Placeholder(kind Kind, employeeID string) *Record {
	return New(kind, map[string]string{FieldEmployeeID: employeeID})
}

// FromRow pairs column names with scanned values.
func FromRow(kind Kind, names, values []string) *Record {
	m := make(map[string]string, len(names))
	for i, name := range names {
		if i < len(values) {
			m[name] = values[i]
		}
	}
	return &Record{kind: kind, values: m}
}

func (r *Record) Kind() Kind {
	return r.kind
}

// Values returns a copy of the field map.
func (r *Record) Values() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

func (r *Record) Value(name string) (string, bool) {
	v, ok := r.values[name]
	return v, ok
}

// EmployeeID returns the employee id when present and non-empty.
func (r *Record) EmployeeID() (string, bool) {
	v, ok := r.values[FieldEmployeeID]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (r *Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

func (r *Record) Len() int {
	return len(r.values)
}

// SetValue changes an existing field. It returns false, leaving the record
// untouched, when name is not already part of the record.
func (r *Record) SetValue(name, value string) bool {
	if _, ok := r.values[name]; !ok {
		return false
	}
	r.values[name] = value
	return true
}

// ReplaceValues swaps in a whole new field map. The key set of values must
// equal the current key set exactly; otherwise nothing changes and it
// returns false.
func (r *Record) ReplaceValues(values map[string]string) bool {
	if len(values) != len(r.values) {
		return false
	}
	for k := range values {
		if _, ok := r.values[k]; !ok {
			return false
		}
	}
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	r.values = copied
	return true
}

// Keys returns the record's field names, schema fields first in canonical
// order followed by any unknown names sorted.
func (r *Record) Keys() []string {
	out := make([]string, 0, len(r.values))
	seen := make(map[string]struct{}, len(r.values))
	for _, name := range FieldNames(r.kind) {
		if _, ok := r.values[name]; ok {
			out = append(out, name)
			seen[name] = struct{}{}
		}
	}
	var extra []string
	for name := range r.values {
		if _, ok := seen[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// UnknownFields lists field names that the record's kind does not define.
func (r *Record) UnknownFields() []string {
	var out []string
	for name := range r.values {
		if _, ok := Lookup(r.kind, name); !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (r *Record) Clone() *Record {
	return New(r.kind, r.values)
}
