package records

import "regexp"

// FieldDefinition describes one attribute of a record kind. Values are
// validated against Pattern using whole-string matching.
type FieldDefinition struct {
	Name         string `json:"name"`
	Label        string `json:"label"`
	Pattern      string `json:"pattern"`
	ErrorMessage string `json:"errorMessage"`
	// Hidden fields are generated by storage and never entered by users.
	Hidden   bool `json:"hidden"`
	Editable bool `json:"editable"`

	re *regexp.Regexp
}

// Matches reports whether the entire value matches the field pattern.
func (f FieldDefinition) Matches(value string) bool {
	re := f.re
	if re == nil {
		compiled, err := compileFull(f.Pattern)
		if err != nil {
			return false
		}
		re = compiled
	}
	return re.MatchString(value)
}

func compileFull(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(`^(?:` + pattern + `)$`)
}

func field(name, label, pattern, message string, hidden, editable bool) FieldDefinition {
	re, err := compileFull(pattern)
	if err != nil {
		panic("records: bad pattern for " + name + ": " + err.Error())
	}
	return FieldDefinition{
		Name:         name,
		Label:        label,
		Pattern:      pattern,
		ErrorMessage: message,
		Hidden:       hidden,
		Editable:     editable,
		re:           re,
	}
}

type schema struct {
	fields     []FieldDefinition
	naturalKey []string
}

const (
	patternEmployeeID = `[0-9]{6}`
	patternDate       = `[0-9]{4}-(0[1-9]|1[0-2])-(0[1-9]|[1-2][0-9]|3[0-1])`
	patternPhone      = `[0-9]{8,12}`
	patternStatus     = `pending|approved|rejected`
	patternFreeText   = `(?s).+`

	msgEmployeeID = "Employee ID must be 6 digits long"
	msgDate       = "Must be in the format yyyy-mm-dd"
	msgPhone      = "Telephone number must be between 8-12 numbers only"
	msgStatus     = "Must be 'pending', 'approved', or 'rejected'"
)

var registry = map[Kind]schema{
	PersonalDetails: {
		fields: []FieldDefinition{
			field("employeeId", "Employee ID", patternEmployeeID, msgEmployeeID, false, false),
			field("forename", "Forename", `[A-Za-z]*`, "Forename must only contain characters", false, true),
			field("surname", "Surname", `[a-zA-Z]*`, "Surname must only contain characters", false, true),
			field("dateOfBirth", "Date Of Birth (yyyy-mm-dd)", patternDate, "Date of birth must be in the format yyyy-mm-dd", false, true),
			field("addressLine1", "House # and Street", `[a-zA-Z0-9 _]*`, "House # and Street can only contain numbers and characters", false, true),
			field("addressTown", "Town", `[a-zA-Z]*`, "Town name can only contain characters", false, true),
			field("addressCounty", "County", `[a-zA-Z]*`, "County can only contain characters", false, true),
			field("addressPostcode", "Postcode", `[a-zA-Z_0-9]{3}[" "][a-zA-Z_0-9]{3}|[a-zA-Z_0-9]{3}[a-zA-Z_0-9]{3}`, "Postcode must only contain numbers or characters", false, true),
			field("telNo", "Telephone #", patternPhone, msgPhone, false, true),
			field("mobNo", "Mobile #", patternPhone, msgPhone, false, true),
			field("emergencyContact", "Emergency Contact", `[a-zA-Z ]*`, "Emergency contact can only contain characters", false, true),
			field("emergencyContactNo", "Emergency Contact #", patternPhone, msgPhone, false, true),
		},
		naturalKey: []string{"employeeId"},
	},
	InitialEmploymentDetails: {
		fields: []FieldDefinition{
			field("employeeId", "Employee ID", patternEmployeeID, msgEmployeeID, false, false),
			field("initialDepartment", "Department ID", `[1-4]`, "Must be a number between 1 - 4", false, true),
			field(FieldInitialRole, "Initial Role", `[1-3]`, "Must be a number between 1 - 3", false, true),
			field("initalSalary", "Initial Salary", `[0-9.]*`, "Must contain only numbers", false, true),
			field("CV", "CV", `[a-zA-Z0-9.,'";!-]*`, "CV Must contain only alphabetical, numerical or basic punctuation characters.", false, true),
			field("interviewNotes", "Interview Notes", `[a-zA-Z0-9 .,'"();!$£-]*`, "Interview Notes must contain only alphabetical, numerical or basic punctuation characters.", false, true),
			field("interviewer", "Interviewer", patternEmployeeID, "Must be a 6 digit employee ID", false, true),
		},
		naturalKey: []string{"employeeId"},
	},
	AnnualReview: {
		fields: []FieldDefinition{
			field("employeeId", "Employee ID", patternEmployeeID, msgEmployeeID, false, false),
			field("year", "Review Year", `[0-9]{4}`, "Must be in the format yyyy", false, true),
			field("firstReviewer", "First Reviewer", `[a-zA-Z ]+`, "Must contain only characters", false, true),
			field("secondReviewer", "Second Reviewer", `[a-zA-Z ]+`, "Must contain only characters", false, true),
			field("section", "Section", `[a-zA-Z_0-9]+`, "Must contain only numbers and characters", false, true),
			field("jobTitle", "Job Title", `[a-zA-Z ]+`, "Must contain only characters", false, true),
			field("pastObjectives", "Past Objectives", patternFreeText, "Past objectives must not be empty", false, true),
			field("pastPerformanceSummary", "Past Performance Summary", patternFreeText, "Past performance summary must not be empty", false, true),
			field("futureObjectives", "Future Objectives", patternFreeText, "Future objectives must not be empty", false, true),
			field("reviewerComments", "Reviewer Comments", patternFreeText, "Reviewer comments must not be empty", false, true),
			field("revieweeSignature", "Reviewee Signature", patternFreeText, "Reviewee signature must not be empty", false, true),
			field("revieweeSignatureDate", "Reviewee Signature Date (yyyy-mm-dd)", patternDate, msgDate, false, true),
			field("firstReviewerSignature", "First Reviewer Signature", patternFreeText, "First reviewer signature must not be empty", false, true),
			field("firstReviewerSignatureDate", "First Reviewer Signature Date", patternDate, msgDate, false, true),
			field("secondReviewerSignature", "Second Reviewer Signature", patternFreeText, "Second reviewer signature must not be empty", false, true),
			field("secondReviewerSignatureDate", "Second Reviewer Signature Date", patternDate, msgDate, false, true),
		},
		naturalKey: []string{"employeeId", "year"},
	},
	SalaryIncrease: {
		fields: []FieldDefinition{
			field("employeeId", "Employee ID", patternEmployeeID, msgEmployeeID, false, false),
			field("startDate", "Start Date", patternDate, msgDate, false, true),
			field("newSalary", "New Salary", `[0-9.]+`, "Must contain only numbers", false, true),
			field("status", "Approval Status", patternStatus, msgStatus, false, true),
		},
		naturalKey: []string{"employeeId", "startDate"},
	},
	Promotion: {
		fields: []FieldDefinition{
			field("promotionId", "Promotion ID", `[0-9]*`, "Promotion id must contain only numbers", true, false),
			field("employeeId", "Employee ID", patternEmployeeID, msgEmployeeID, false, false),
			field("newRole", "New Role", `[1-3]`, "New role ID must be between 1-3", false, true),
			field("newSalary", "New Salary", `[0-9.]*`, "New Salary must contain only numbers or decimal points", false, true),
			field("startDate", "Start date", patternDate, msgDate, false, true),
		},
		naturalKey: []string{"promotionId"},
	},
	Probation: {
		fields: []FieldDefinition{
			field("employeeId", "Employee ID", patternEmployeeID, msgEmployeeID, false, false),
			field("startDate", "Start Date", patternDate, msgDate, false, true),
			field("reviewDate", "Review Date", patternDate, msgDate, false, true),
			field("endDate", "End Date", patternDate, msgDate, false, true),
			field("reasons", "Reasons", patternFreeText, "Reasons must not be empty", false, true),
			field("status", "Approval Status", patternStatus, msgStatus, false, true),
		},
		naturalKey: []string{"employeeId", "startDate"},
	},
	Termination: {
		fields: []FieldDefinition{
			field("employeeId", "Employee ID", patternEmployeeID, msgEmployeeID, false, true),
			field("endDate", "End Date", patternDate, msgDate, false, true),
			field("Reasons", "Reason(s)", patternFreeText, "Reasons must not be empty", false, true),
			field("status", "Approval Status", patternStatus, msgStatus, false, true),
		},
		naturalKey: []string{"employeeId"},
	},
	Employee: {
		fields: []FieldDefinition{
			field("employeeId", "Employee ID", patternEmployeeID, msgEmployeeID, false, true),
			field("employeeLogin", "Employee Login", `[a-zA-Z_0-9]+`, "Must contain only characters and numbers", false, true),
			field("departmentId", "Department ID", `[0-9]+`, "Must contain only numbers", false, true),
		},
		naturalKey: []string{"employeeId"},
	},
}

// Definitions returns the ordered field definitions of kind. The order is the
// canonical column order used for validation, storage and presentation.
func Definitions(kind Kind) []FieldDefinition {
	s, ok := registry[kind]
	if !ok {
		return nil
	}
	out := make([]FieldDefinition, len(s.fields))
	copy(out, s.fields)
	return out
}

// PresentationFields returns the definitions users may see and enter.
func PresentationFields(kind Kind) []FieldDefinition {
	var out []FieldDefinition
	for _, def := range registry[kind].fields {
		if !def.Hidden {
			out = append(out, def)
		}
	}
	return out
}

// FieldNames returns every field name of kind in canonical order.
func FieldNames(kind Kind) []string {
	fields := registry[kind].fields
	out := make([]string, 0, len(fields))
	for _, def := range fields {
		out = append(out, def.Name)
	}
	return out
}

// NaturalKey returns the fields identifying a stored row for updates.
func NaturalKey(kind Kind) []string {
	key := registry[kind].naturalKey
	out := make([]string, len(key))
	copy(out, key)
	return out
}

func Lookup(kind Kind, name string) (FieldDefinition, bool) {
	for _, def := range registry[kind].fields {
		if def.Name == name {
			return def, true
		}
	}
	return FieldDefinition{}, false
}
