// Package session manages the process-wide authenticated session with an
// execution backend. Sessions are established lazily, re-established
// transparently when expired, and torn down only by process exit.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/redartera/flytekit/pkg/ferr"
	"github.com/redartera/flytekit/pkg/flog"
)

// ProbeFunc cheaply checks whether a session is currently valid, e.g. a
// "login --info" or "whoami" call.
type ProbeFunc func(ctx context.Context) error

// LoginFunc performs the full login exchange and returns a bearer token when
// the backend issues one. CLI-style backends that keep session state on
// their side return an empty token.
type LoginFunc func(ctx context.Context) (string, error)

// Manager implements ensureSession(): callable before every privileged
// operation at the cost of at most one cheap probe when the session is
// already valid.
//
// Logins are serialized: when two operations detect a missing session at
// the same time, one performs the login while the other waits and then
// observes the established session through its probe, so at most one login
// exchange is ever in flight.
type Manager struct {
	mu     sync.Mutex
	probe  ProbeFunc
	login  LoginFunc
	leeway time.Duration
	token  string
	log    *flog.Logger
}

// NewManager wires a probe and a login exchange. probe may be nil for
// backends whose only validity signal is token expiry.
func NewManager(probe ProbeFunc, login LoginFunc, log *flog.Logger) *Manager {
	if log == nil {
		log = flog.NewDefault()
	}
	return &Manager{
		probe:  probe,
		login:  login,
		leeway: 30 * time.Second,
		log:    log,
	}
}

// Ensure verifies an existing session is valid and performs the login
// exchange if not. A rejected login is an auth error that aborts the
// calling operation; the manager never retries it on its own.
func (m *Manager) Ensure(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" {
		expired, err := TokenExpired(m.token, m.leeway)
		if err == nil && !expired {
			return nil
		}
		m.token = ""
	}

	if m.probe != nil {
		if err := m.probe(ctx); err == nil {
			return nil
		}
	}

	m.log.Info("establishing backend session")
	token, err := m.login(ctx)
	if err != nil {
		m.log.Error("login exchange rejected", "error", err.Error())
		return ferr.New(ferr.CodeAuth, err)
	}
	m.token = token
	m.log.Info("backend session established")
	return nil
}

// Token returns the bearer token from the last successful login, or empty
// when the backend keeps session state on its own side.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// TokenExpired reports whether a JWT's exp claim falls within leeway of
// now. The token is parsed without signature verification; the backend is
// the authority on validity, this only avoids sending tokens that are
// certainly dead.
func TokenExpired(token string, leeway time.Duration) (bool, error) {
	var claims jwt.MapClaims
	parser := new(jwt.Parser)
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return true, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return true, err
	}
	if exp == nil {
		return false, nil
	}
	return time.Now().Add(leeway).After(exp.Time), nil
}
