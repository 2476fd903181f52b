package records

import "testing"

func TestEveryKindHasUniqueFields(t *testing.T) {
	for _, kind := range Kinds() {
		defs := Definitions(kind)
		if len(defs) == 0 {
			t.Fatalf("kind %s has no fields", kind)
		}
		seen := map[string]struct{}{}
		for _, def := range defs {
			if _, ok := seen[def.Name]; ok {
				t.Fatalf("kind %s has duplicate field %s", kind, def.Name)
			}
			seen[def.Name] = struct{}{}
		}
		if _, ok := seen[FieldEmployeeID]; !ok {
			t.Fatalf("kind %s has no %s field", kind, FieldEmployeeID)
		}
	}
}

func TestNaturalKeysAreSchemaFields(t *testing.T) {
	for _, kind := range Kinds() {
		key := NaturalKey(kind)
		if len(key) == 0 {
			t.Fatalf("kind %s has no natural key", kind)
		}
		for _, name := range key {
			if _, ok := Lookup(kind, name); !ok {
				t.Fatalf("kind %s natural key field %s is not defined", kind, name)
			}
		}
	}
}

func TestDefinitionsReturnsCopy(t *testing.T) {
	defs := Definitions(PersonalDetails)
	defs[0].Name = "changed"
	if Definitions(PersonalDetails)[0].Name != FieldEmployeeID {
		t.Fatal("registry was mutated through returned slice")
	}
}

func TestPresentationFieldsSkipHidden(t *testing.T) {
	for _, def := range PresentationFields(Promotion) {
		if def.Name == "promotionId" {
			t.Fatal("hidden promotionId should not be presented")
		}
	}
	if len(PresentationFields(Promotion)) != len(Definitions(Promotion))-1 {
		t.Fatal("expected exactly one hidden Promotion field")
	}
}

func TestKindTokens(t *testing.T) {
	tests := map[Kind]string{
		PersonalDetails:          "personaldetails",
		InitialEmploymentDetails: "initialemploymentdetails",
		SalaryIncrease:           "salaryincrease",
		Employee:                 "employee",
	}
	for kind, want := range tests {
		if got := kind.Token(); got != want {
			t.Fatalf("token for %s: expected %s, got %s", kind, want, got)
		}
	}
	if PersonalDetails.Table() != "PersonalDetails" {
		t.Fatalf("unexpected table name %s", PersonalDetails.Table())
	}
}

func TestParseKind(t *testing.T) {
	for _, raw := range []string{"salaryincrease", "SalaryIncrease", "Salary Increase", " salary increase "} {
		kind, ok := ParseKind(raw)
		if !ok || kind != SalaryIncrease {
			t.Fatalf("expected %q to parse as SalaryIncrease, got %v %v", raw, kind, ok)
		}
	}
	if _, ok := ParseKind("payroll"); ok {
		t.Fatal("unexpected kind for payroll")
	}
	if _, ok := ParseKind(""); ok {
		t.Fatal("unexpected kind for empty input")
	}
}

func TestMatchesUsesWholeValue(t *testing.T) {
	def, ok := Lookup(PersonalDetails, FieldEmployeeID)
	if !ok {
		t.Fatal("employeeId missing")
	}
	if !def.Matches("123456") {
		t.Fatal("expected 123456 to match")
	}
	if def.Matches("1234567") || def.Matches("x123456") {
		t.Fatal("partial match should not be accepted")
	}
}

func TestZeroValueDefinitionCompilesLazily(t *testing.T) {
	def := FieldDefinition{Name: "code", Pattern: `[A-Z]{2}`}
	if !def.Matches("AB") || def.Matches("ABC") {
		t.Fatal("lazy pattern compile gave wrong result")
	}
	broken := FieldDefinition{Name: "broken", Pattern: `(`}
	if broken.Matches("") {
		t.Fatal("invalid pattern should never match")
	}
}

func TestStorageColumnNames(t *testing.T) {
	tests := map[Kind][]string{
		InitialEmploymentDetails: {"employeeId", "initialDepartment", "initalRole", "initalSalary", "CV", "interviewNotes", "interviewer"},
		Termination:              {"employeeId", "endDate", "Reasons", "status"},
		Promotion:                {"promotionId", "employeeId", "newRole", "newSalary", "startDate"},
	}
	for kind, want := range tests {
		got := FieldNames(kind)
		if len(got) != len(want) {
			t.Fatalf("%s: expected %v, got %v", kind, want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s: expected %v, got %v", kind, want, got)
			}
		}
	}
}

func TestFieldPatterns(t *testing.T) {
	tests := []struct {
		kind  Kind
		field string
		value string
		ok    bool
	}{
		{PersonalDetails, "addressPostcode", "CT1 2AB", true},
		{PersonalDetails, "addressPostcode", "CT12AB", true},
		{PersonalDetails, "addressPostcode", `CT1"2AB`, true},
		{PersonalDetails, "addressPostcode", "CT1  2AB", false},
		{InitialEmploymentDetails, "CV", "Engineer,BSc.", true},
		{InitialEmploymentDetails, "CV", "Engineer BSc", false},
		{AnnualReview, "pastObjectives", "x", true},
		{AnnualReview, "pastObjectives", "Ship the ledger.\nHire two engineers.", true},
		{AnnualReview, "pastObjectives", "", false},
		{AnnualReview, "firstReviewer", "J", true},
		{AnnualReview, "firstReviewer", "Jane Doe", true},
		{SalaryIncrease, "newSalary", "7", true},
		{SalaryIncrease, "newSalary", "32000.50", true},
		{Employee, "employeeLogin", "m", true},
		{Employee, "employeeLogin", "msmith_2", true},
		{Employee, "departmentId", "12", true},
		{Probation, "startDate", "2024-02-30", true},
		{Probation, "startDate", "2024-13-01", false},
	}
	for _, tt := range tests {
		def, ok := Lookup(tt.kind, tt.field)
		if !ok {
			t.Fatalf("%s has no field %s", tt.kind, tt.field)
		}
		if got := def.Matches(tt.value); got != tt.ok {
			t.Fatalf("%s.%s matching %q: expected %v, got %v", tt.kind, tt.field, tt.value, tt.ok, got)
		}
	}
}
