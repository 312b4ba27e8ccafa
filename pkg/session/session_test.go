package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/redartera/flytekit/pkg/ferr"
	"github.com/redartera/flytekit/pkg/flog"
)

func quietLog() *flog.Logger {
	return flog.NewLogger(slog.LevelError+1, io.Discard)
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "tester",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return s
}

func TestEnsureConcurrentSingleLogin(t *testing.T) {
	var logins atomic.Int32
	var loggedIn atomic.Bool

	probe := func(ctx context.Context) error {
		if loggedIn.Load() {
			return nil
		}
		return errors.New("no session")
	}
	login := func(ctx context.Context) (string, error) {
		logins.Add(1)
		loggedIn.Store(true)
		return "", nil
	}

	m := NewManager(probe, login, quietLog())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = m.Ensure(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("Ensure %d failed: %v", i, err)
		}
	}
	if got := logins.Load(); got != 1 {
		t.Errorf("Expected exactly one login exchange, got %d", got)
	}
}

func TestEnsureProbeValidSkipsLogin(t *testing.T) {
	var logins int
	probe := func(ctx context.Context) error { return nil }
	login := func(ctx context.Context) (string, error) {
		logins++
		return "", nil
	}

	m := NewManager(probe, login, quietLog())
	for i := 0; i < 3; i++ {
		if err := m.Ensure(context.Background()); err != nil {
			t.Fatalf("Ensure failed: %v", err)
		}
	}
	if logins != 0 {
		t.Errorf("Expected no logins with valid session, got %d", logins)
	}
}

func TestEnsureLoginFailure(t *testing.T) {
	probe := func(ctx context.Context) error { return errors.New("no session") }
	login := func(ctx context.Context) (string, error) {
		return "", errors.New("bad credentials")
	}

	m := NewManager(probe, login, quietLog())
	err := m.Ensure(context.Background())
	if err == nil {
		t.Fatal("Expected auth error")
	}
	if !ferr.IsCode(err, ferr.CodeAuth) {
		t.Errorf("Expected auth error code, got %v", err)
	}
}

func TestEnsureCachedTokenSkipsProbe(t *testing.T) {
	var probes, logins int
	probe := func(ctx context.Context) error {
		probes++
		return errors.New("no session")
	}
	login := func(ctx context.Context) (string, error) {
		logins++
		return signedToken(t, time.Now().Add(time.Hour)), nil
	}

	m := NewManager(probe, login, quietLog())
	if err := m.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if err := m.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	if logins != 1 {
		t.Errorf("Expected one login, got %d", logins)
	}
	if probes != 1 {
		t.Errorf("Expected one probe, got %d", probes)
	}
	if m.Token() == "" {
		t.Error("Expected cached token")
	}
}

func TestEnsureExpiredTokenRelogins(t *testing.T) {
	var logins int
	login := func(ctx context.Context) (string, error) {
		logins++
		if logins == 1 {
			return signedToken(t, time.Now().Add(-time.Hour)), nil
		}
		return signedToken(t, time.Now().Add(time.Hour)), nil
	}

	m := NewManager(nil, login, quietLog())
	if err := m.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if err := m.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if logins != 2 {
		t.Errorf("Expected re-login after expiry, got %d logins", logins)
	}
}

func TestTokenExpired(t *testing.T) {
	expired, err := TokenExpired(signedToken(t, time.Now().Add(time.Hour)), 30*time.Second)
	if err != nil {
		t.Fatalf("TokenExpired failed: %v", err)
	}
	if expired {
		t.Error("Expected fresh token to be valid")
	}

	expired, err = TokenExpired(signedToken(t, time.Now().Add(-time.Minute)), 30*time.Second)
	if err != nil {
		t.Fatalf("TokenExpired failed: %v", err)
	}
	if !expired {
		t.Error("Expected past-exp token to be expired")
	}

	if expired, _ := TokenExpired("not-a-jwt", 0); !expired {
		t.Error("Expected malformed token to be treated as expired")
	}
}
