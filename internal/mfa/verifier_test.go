package mfa

import (
	"context"
	"errors"
	"testing"
	"time"

	mfarepo "risk-adaptive-auth/internal/mfa/repository"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestVerifier(maxAttempts int) (*Verifier, *mfarepo.MemoryRepository, *clock) {
	repo := mfarepo.NewMemoryRepository()
	clk := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewVerifier(repo, 10*time.Minute, maxAttempts, clk.now), repo, clk
}

func wrongCode(code string) string {
	if code == "000000" {
		return "000001"
	}
	return "000000"
}

func TestVerifier_GenerateStoresHashOnly(t *testing.T) {
	v, repo, clk := newTestVerifier(5)
	code, c, err := v.Generate(context.Background(), "acc-1", "sess-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !WellFormed(code) {
		t.Fatalf("code %q is not six digits", code)
	}
	stored := repo.Get(c.ID)
	if stored.CodeHash == code || stored.CodeHash != HashOTP(code) {
		t.Error("challenge must store the code hash, not the code")
	}
	if !stored.ExpiresAt.Equal(clk.t.Add(10 * time.Minute)) {
		t.Errorf("ExpiresAt = %v, want created + 10m", stored.ExpiresAt)
	}
}

func TestVerifier_VerifyOnce(t *testing.T) {
	v, _, _ := newTestVerifier(5)
	ctx := context.Background()
	code, _, _ := v.Generate(ctx, "acc-1", "sess-1")

	got, err := v.Verify(ctx, "acc-1", "sess-1", code)
	if err != nil || got != Verified {
		t.Fatalf("first Verify = %v, %v; want Verified", got, err)
	}
	got, err = v.Verify(ctx, "acc-1", "sess-1", code)
	if err != nil || got != Invalid {
		t.Fatalf("replayed Verify = %v, %v; want Invalid", got, err)
	}
}

func TestVerifier_Expiry(t *testing.T) {
	v, _, clk := newTestVerifier(5)
	ctx := context.Background()
	code, _, _ := v.Generate(ctx, "acc-1", "sess-1")

	clk.advance(10*time.Minute + time.Second)
	if got, _ := v.Verify(ctx, "acc-1", "sess-1", code); got != Invalid {
		t.Errorf("Verify after 10m = %v, want Invalid", got)
	}
}

func TestVerifier_JustBeforeExpiry(t *testing.T) {
	v, _, clk := newTestVerifier(5)
	ctx := context.Background()
	code, _, _ := v.Generate(ctx, "acc-1", "sess-1")

	clk.advance(10*time.Minute - time.Second)
	if got, _ := v.Verify(ctx, "acc-1", "sess-1", code); got != Verified {
		t.Errorf("Verify before expiry = %v, want Verified", got)
	}
}

func TestVerifier_LatestChallengeWins(t *testing.T) {
	v, _, clk := newTestVerifier(5)
	ctx := context.Background()
	first, _, _ := v.Generate(ctx, "acc-1", "sess-1")
	clk.advance(time.Second)
	second, _, _ := v.Generate(ctx, "acc-1", "sess-1")
	if first == second {
		t.Skip("codes collided; nothing to distinguish")
	}
	if got, _ := v.Verify(ctx, "acc-1", "sess-1", first); got != Invalid {
		t.Errorf("superseded code = %v, want Invalid", got)
	}
	if got, _ := v.Verify(ctx, "acc-1", "sess-1", second); got != Verified {
		t.Errorf("latest code = %v, want Verified", got)
	}
}

func TestVerifier_BoundToSession(t *testing.T) {
	v, _, _ := newTestVerifier(5)
	ctx := context.Background()
	code, _, _ := v.Generate(ctx, "acc-1", "sess-1")
	if got, _ := v.Verify(ctx, "acc-1", "sess-2", code); got != Invalid {
		t.Errorf("other session = %v, want Invalid", got)
	}
	if got, _ := v.Verify(ctx, "acc-2", "sess-1", code); got != Invalid {
		t.Errorf("other account = %v, want Invalid", got)
	}
}

func TestVerifier_AttemptsExceeded(t *testing.T) {
	v, repo, _ := newTestVerifier(3)
	ctx := context.Background()
	code, _, _ := v.Generate(ctx, "acc-1", "sess-1")
	bad := wrongCode(code)

	for i := 1; i < 3; i++ {
		if got, _ := v.Verify(ctx, "acc-1", "sess-1", bad); got != Invalid {
			t.Fatalf("wrong guess %d = %v, want Invalid", i, got)
		}
	}
	if got, _ := v.Verify(ctx, "acc-1", "sess-1", bad); got != AttemptsExceeded {
		t.Fatalf("third wrong guess = %v, want AttemptsExceeded", got)
	}
	if repo.Len() != 0 {
		t.Error("exhausted challenge should be deleted")
	}
	if got, _ := v.Verify(ctx, "acc-1", "sess-1", code); got != Invalid {
		t.Errorf("correct code after exhaustion = %v, want Invalid", got)
	}
}

func TestVerifier_NoCap(t *testing.T) {
	v, _, _ := newTestVerifier(0)
	ctx := context.Background()
	code, _, _ := v.Generate(ctx, "acc-1", "sess-1")
	for i := 0; i < 10; i++ {
		_, _ = v.Verify(ctx, "acc-1", "sess-1", wrongCode(code))
	}
	if got, _ := v.Verify(ctx, "acc-1", "sess-1", code); got != Verified {
		t.Errorf("Verify without cap = %v, want Verified", got)
	}
}

func TestVerifier_GenerateStoreFailure(t *testing.T) {
	v, repo, _ := newTestVerifier(5)
	repo.CreateErr = errors.New("db down")
	if _, _, err := v.Generate(context.Background(), "acc-1", "sess-1"); err == nil {
		t.Fatal("Generate should surface store failures")
	}
}

func TestVerifier_Sweep(t *testing.T) {
	v, repo, clk := newTestVerifier(5)
	ctx := context.Background()
	_, _, _ = v.Generate(ctx, "acc-1", "sess-1")
	clk.advance(5 * time.Minute)
	_, _, _ = v.Generate(ctx, "acc-2", "sess-2")
	clk.advance(6 * time.Minute)

	n, err := v.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 1 || repo.Len() != 1 {
		t.Errorf("Sweep removed %d, remaining %d; want 1 and 1", n, repo.Len())
	}
}

func TestOutcome_String(t *testing.T) {
	if Verified.String() != "verified" || Invalid.String() != "invalid" || AttemptsExceeded.String() != "attempts_exceeded" {
		t.Error("unexpected Outcome strings")
	}
}
