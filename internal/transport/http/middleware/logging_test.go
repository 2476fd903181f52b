package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hrrecords/internal/domain/auth"
	"hrrecords/internal/platform/requestctx"
)

type recordedRequest struct {
	status int
}

type fakeRecorder struct {
	requests []recordedRequest
}

func (f *fakeRecorder) Record(status int, _ time.Duration) {
	f.requests = append(f.requests, recordedRequest{status: status})
}

func TestLoggerWritesAccessLine(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	recorder := &fakeRecorder{}

	handler := Logger(logger, recorder)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	ctx := requestctx.WithUser(testContext(t), auth.UserContext{UserID: "u1", RoleName: "Employee"})
	ctx = requestctx.WithRequestID(ctx, "req-1")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/records/Probation/100001", nil).WithContext(ctx)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if len(recorder.requests) != 1 || recorder.requests[0].status != http.StatusForbidden {
		t.Fatalf("unexpected recorded requests: %+v", recorder.requests)
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if line["status"] != float64(http.StatusForbidden) {
		t.Fatalf("expected status 403 in log, got %v", line["status"])
	}
	if line["requestId"] != "req-1" || line["userId"] != "u1" {
		t.Fatalf("unexpected log attrs: %v", line)
	}
}

// testContext stands in for testing.T.Context (Go 1.24+): it is cancelled
// when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
