package records

import "strings"

// Kind identifies one of the fixed HR record kinds.
type Kind int

const (
	PersonalDetails Kind = iota + 1
	InitialEmploymentDetails
	AnnualReview
	SalaryIncrease
	Promotion
	Probation
	Termination
	Employee
)

var kindNames = map[Kind]string{
	PersonalDetails:          "Personal Details",
	InitialEmploymentDetails: "Initial Employment Details",
	AnnualReview:             "Annual Review",
	SalaryIncrease:           "Salary Increase",
	Promotion:                "Promotion",
	Probation:                "Probation",
	Termination:              "Termination",
	Employee:                 "Employee",
}

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		PersonalDetails,
		InitialEmploymentDetails,
		AnnualReview,
		SalaryIncrease,
		Promotion,
		Probation,
		Termination,
		Employee,
	}
}

// Name returns the canonical display name, e.g. "Personal Details".
func (k Kind) Name() string {
	return kindNames[k]
}

func (k Kind) String() string {
	return k.Name()
}

// Token is the lower-cased name with spaces removed, e.g. "personaldetails".
// It is the form used inside capability strings and URLs.
func (k Kind) Token() string {
	return strings.ToLower(strings.ReplaceAll(k.Name(), " ", ""))
}

// Table is the storage table backing the kind.
func (k Kind) Table() string {
	return strings.ReplaceAll(k.Name(), " ", "")
}

func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind accepts a token ("salaryincrease"), a table name ("SalaryIncrease")
// or a display name ("Salary Increase"), case-insensitively.
func ParseKind(raw string) (Kind, bool) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
	if normalized == "" {
		return 0, false
	}
	for _, kind := range Kinds() {
		if kind.Token() == normalized {
			return kind, true
		}
	}
	return 0, false
}
