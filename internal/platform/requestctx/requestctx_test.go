package requestctx

import (
	"context"
	"testing"

	"hrrecords/internal/domain/auth"
)

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if got := GetRequestID(ctx); got != "req-1" {
		t.Fatalf("expected req-1, got %q", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}

func TestUser(t *testing.T) {
	if _, ok := GetUser(context.Background()); ok {
		t.Fatal("did not expect user")
	}
	ctx := WithUser(context.Background(), auth.UserContext{UserID: "u1", RoleName: "Manager"})
	user, ok := GetUser(ctx)
	if !ok || user.UserID != "u1" {
		t.Fatalf("unexpected user %+v", user)
	}
}
