package sqlbuild

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"hrrecords/internal/domain/records"
)

func TestInsertPostgres(t *testing.T) {
	rec := records.New(records.SalaryIncrease, map[string]string{
		"status":     "pending",
		"employeeId": "000111",
		"newSalary":  "32000",
		"startDate":  "2024-04-01",
		"injected":   "x); DROP TABLE users;--",
	})
	stmt, err := Insert(Postgres, rec)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	want := `INSERT INTO "SalaryIncrease" ("employeeId", "startDate", "newSalary", "status") VALUES ($1, $2, $3, $4)`
	if stmt.SQL != want {
		t.Fatalf("unexpected sql:\n%s\nwant:\n%s", stmt.SQL, want)
	}
	if !reflect.DeepEqual(stmt.Args, []any{"000111", "2024-04-01", "32000", "pending"}) {
		t.Fatalf("unexpected args %v", stmt.Args)
	}
}

func TestInsertSkipsHiddenFields(t *testing.T) {
	rec := records.New(records.Promotion, map[string]string{
		"promotionId": "77",
		"employeeId":  "000111",
		"newRole":     "2",
	})
	stmt, err := Insert(SQLite, rec)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if strings.Contains(stmt.SQL, "promotionId") {
		t.Fatalf("hidden field must not be inserted: %s", stmt.SQL)
	}
	if strings.Count(stmt.SQL, "?") != 2 {
		t.Fatalf("expected 2 sqlite placeholders: %s", stmt.SQL)
	}
}

func TestInsertEmptyRecord(t *testing.T) {
	if _, err := Insert(Postgres, records.New(records.Employee, nil)); !errors.Is(err, ErrNoFields) {
		t.Fatalf("expected ErrNoFields, got %v", err)
	}
	if _, err := Insert(Postgres, records.New(records.Kind(99), map[string]string{"a": "b"})); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestUpdateByNaturalKey(t *testing.T) {
	rec := records.New(records.Probation, map[string]string{
		"employeeId": "000222",
		"startDate":  "2024-01-01",
		"reviewDate": "2024-03-01",
		"status":     "approved",
	})
	stmt, err := Update(Postgres, rec)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	want := `UPDATE "Probation" SET "reviewDate" = $1, "status" = $2 WHERE "employeeId" = $3 AND "startDate" = $4`
	if stmt.SQL != want {
		t.Fatalf("unexpected sql:\n%s\nwant:\n%s", stmt.SQL, want)
	}
	if !reflect.DeepEqual(stmt.Args, []any{"2024-03-01", "approved", "000222", "2024-01-01"}) {
		t.Fatalf("unexpected args %v", stmt.Args)
	}
}

func TestUpdateSkipsNonEditable(t *testing.T) {
	rec := records.New(records.PersonalDetails, map[string]string{
		"employeeId": "000222",
		"forename":   "Ada",
	})
	stmt, err := Update(SQLite, rec)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	want := `UPDATE "PersonalDetails" SET "forename" = ? WHERE "employeeId" = ?`
	if stmt.SQL != want {
		t.Fatalf("unexpected sql: %s", stmt.SQL)
	}
}

func TestUpdatePromotionUsesGeneratedID(t *testing.T) {
	rec := records.New(records.Promotion, map[string]string{
		"promotionId": "12",
		"employeeId":  "000222",
		"newRole":     "3",
	})
	stmt, err := Update(Postgres, rec)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	want := `UPDATE "Promotion" SET "newRole" = $1 WHERE "promotionId" = $2 AND "employeeId" = $3`
	if stmt.SQL != want {
		t.Fatalf("unexpected sql:\n%s\nwant:\n%s", stmt.SQL, want)
	}
	if !reflect.DeepEqual(stmt.Args, []any{"3", "12", "000222"}) {
		t.Fatalf("unexpected args %v", stmt.Args)
	}

	rec = records.New(records.Promotion, map[string]string{"employeeId": "000222", "newRole": "3"})
	if _, err := Update(Postgres, rec); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}

	rec = records.New(records.Promotion, map[string]string{"promotionId": "12", "newRole": "3"})
	if _, err := Update(Postgres, rec); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey without an owner, got %v", err)
	}
}

func TestSelectByEmployee(t *testing.T) {
	stmt, err := SelectByEmployee(Postgres, records.Termination, "000333")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	want := `SELECT COALESCE(CAST("employeeId" AS TEXT), ''), COALESCE(CAST("endDate" AS TEXT), ''), ` +
		`COALESCE(CAST("Reasons" AS TEXT), ''), COALESCE(CAST("status" AS TEXT), '') ` +
		`FROM "Termination" WHERE "employeeId" = $1 ORDER BY "employeeId"`
	if stmt.SQL != want {
		t.Fatalf("unexpected sql:\n%s\nwant:\n%s", stmt.SQL, want)
	}
	if !reflect.DeepEqual(stmt.Args, []any{"000333"}) {
		t.Fatalf("unexpected args %v", stmt.Args)
	}
}

func TestCreateTable(t *testing.T) {
	ddl, err := CreateTable(SQLite, records.Promotion)
	if err != nil {
		t.Fatalf("ddl: %v", err)
	}
	if !strings.Contains(ddl, `"promotionId" INTEGER PRIMARY KEY AUTOINCREMENT`) {
		t.Fatalf("expected generated id column: %s", ddl)
	}
	if strings.Contains(ddl, "UNIQUE") {
		t.Fatalf("generated key needs no unique constraint: %s", ddl)
	}

	ddl, err = CreateTable(Postgres, records.AnnualReview)
	if err != nil {
		t.Fatalf("ddl: %v", err)
	}
	if !strings.Contains(ddl, `UNIQUE ("employeeId", "year")`) {
		t.Fatalf("expected natural key constraint: %s", ddl)
	}
}

func TestQuote(t *testing.T) {
	if got := Quote(`we"ird`); got != `"we""ird"` {
		t.Fatalf("unexpected quoting %s", got)
	}
}
