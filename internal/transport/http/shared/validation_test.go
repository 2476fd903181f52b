package shared

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"hrrecords/internal/domain/records"
)

func TestValidatorRecordKeepsSchemaOrder(t *testing.T) {
	rec := records.New(records.Probation, map[string]string{
		"employeeId": "12",
		"startDate":  "2024-01-01",
		"bogus":      "x",
	})

	v := NewValidator()
	v.Record(rec)
	issues := v.Issues()
	if len(issues) < 3 {
		t.Fatalf("expected unknown field plus field failures, got %+v", issues)
	}
	if issues[0].Field != "bogus" {
		t.Fatalf("expected unknown field first, got %+v", issues[0])
	}
	if issues[1].Field != "employeeId" {
		t.Fatalf("expected employeeId to be the first schema failure, got %+v", issues[1])
	}
}

func TestValidatorReject(t *testing.T) {
	v := NewValidator()
	rec := httptest.NewRecorder()
	if v.Reject(rec, "req-1") {
		t.Fatal("empty validator must not reject")
	}

	v.Required("userId", " ", "is required")
	v.Add("role", "is required")
	if !v.Reject(rec, "req-1") {
		t.Fatal("expected reject")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var body struct {
		Error struct {
			Details struct {
				Messages []string `json:"messages"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := body.Error.Details.Messages
	if len(got) != 2 || got[0] != "is required" {
		t.Fatalf("unexpected messages %v", got)
	}
}
