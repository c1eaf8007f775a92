package interceptors

import (
	"context"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"risk-adaptive-auth/internal/telemetry"
)

type captureEmitter struct {
	mu     sync.Mutex
	events []*telemetry.Event
	got    chan struct{}
}

func (c *captureEmitter) Emit(ctx context.Context, e *telemetry.Event) error {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
	c.got <- struct{}{}
	return nil
}

func TestTelemetryUnary_EmitsEvent(t *testing.T) {
	em := &captureEmitter{got: make(chan struct{}, 1)}
	interceptor := TelemetryUnary(em, nil, nil)
	ctx := WithIdentity(context.Background(), "acc-1", "sess-1", "customer-scope")

	_, err := interceptor(ctx, "req", &grpc.UnaryServerInfo{FullMethod: "/svc/M"}, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.PermissionDenied, "no")
	})
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("err = %v, want the handler's error", err)
	}
	select {
	case <-em.got:
	case <-time.After(2 * time.Second):
		t.Fatal("no telemetry event emitted")
	}
	em.mu.Lock()
	defer em.mu.Unlock()
	e := em.events[0]
	if e.FullMethod != "/svc/M" || e.StatusCode != "PermissionDenied" || e.AccountID != "acc-1" || e.SessionID != "sess-1" {
		t.Errorf("event = %+v", e)
	}
}

func TestTelemetryUnary_SkipAndNil(t *testing.T) {
	em := &captureEmitter{got: make(chan struct{}, 1)}
	ok := func(ctx context.Context, req interface{}) (interface{}, error) { return "ok", nil }

	if _, err := TelemetryUnary(em, map[string]bool{"/svc/Health": true}, nil)(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Health"}, ok); err != nil {
		t.Fatal(err)
	}
	if _, err := TelemetryUnary(nil, nil, nil)(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/M"}, ok); err != nil {
		t.Fatal(err)
	}
	select {
	case <-em.got:
		t.Fatal("skipped method emitted")
	case <-time.After(50 * time.Millisecond):
	}
}
