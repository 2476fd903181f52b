package records

// Validate checks every visible field of the record's kind and returns the
// error messages of the fields that do not match, in field order. Missing
// values are checked as the empty string. An empty result means the record
// may be persisted.
func Validate(record *Record) []string {
	var errs []string
	for _, def := range registry[record.kind].fields {
		if def.Hidden {
			continue
		}
		value := record.values[def.Name]
		if !def.Matches(value) {
			errs = append(errs, def.ErrorMessage)
		}
	}
	return errs
}

// FieldError pairs a failed field with its message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateFields is Validate with the failing field names attached.
func ValidateFields(record *Record) []FieldError {
	var errs []FieldError
	for _, def := range registry[record.kind].fields {
		if def.Hidden {
			continue
		}
		if !def.Matches(record.values[def.Name]) {
			errs = append(errs, FieldError{Field: def.Name, Message: def.ErrorMessage})
		}
	}
	return errs
}
