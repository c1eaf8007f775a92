package interceptors

import (
	"context"
	"testing"
)

func TestWithIdentity(t *testing.T) {
	ctx := WithIdentity(context.Background(), "acc-1", "sess-1", "admin-scope")
	if v, ok := GetAccountID(ctx); !ok || v != "acc-1" {
		t.Errorf("GetAccountID = %q, %v", v, ok)
	}
	if v, ok := GetSessionID(ctx); !ok || v != "sess-1" {
		t.Errorf("GetSessionID = %q, %v", v, ok)
	}
	if v, ok := GetGuard(ctx); !ok || v != "admin-scope" {
		t.Errorf("GetGuard = %q, %v", v, ok)
	}
}

func TestGetters_Unset(t *testing.T) {
	ctx := context.Background()
	if _, ok := GetAccountID(ctx); ok {
		t.Error("GetAccountID ok on empty context")
	}
	if _, ok := GetSessionID(ctx); ok {
		t.Error("GetSessionID ok on empty context")
	}
	if _, ok := GetGuard(ctx); ok {
		t.Error("GetGuard ok on empty context")
	}
}
