// Package auth manages the signed-in session on top of the token store and
// the backend client.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/storycraft/backend/internal/apiclient"
	"github.com/zhouzirui/storycraft/backend/internal/model/user"
	"github.com/zhouzirui/storycraft/backend/internal/token"
)

// State is the session lifecycle state.
type State string

const (
	StateLoading       State = "loading"
	StateAnonymous     State = "anonymous"
	StateAuthenticated State = "authenticated"
	StateError         State = "error"
)

// Session is a snapshot of the current session.
type Session struct {
	State           State      `json:"state"`
	User            *user.User `json:"user"`
	IsAuthenticated bool       `json:"isAuthenticated"`
	Error           string     `json:"error,omitempty"`
}

// Manager owns the session. All mutations go through its methods.
type Manager struct {
	client *apiclient.Client
	tokens token.Store
	now    func() time.Time
	log    *logrus.Entry

	mu      sync.RWMutex
	session Session
}

// NewManager builds a manager and its backend client for baseURL. The client
// reports rejected sessions back to the manager.
func NewManager(baseURL string, tokens token.Store, opts ...apiclient.Option) *Manager {
	m := &Manager{
		tokens:  tokens,
		now:     time.Now,
		log:     logrus.WithField("component", "auth"),
		session: Session{State: StateLoading},
	}
	opts = append(opts, apiclient.WithSessionExpired(m.sessionExpired))
	m.client = apiclient.New(baseURL, tokens, opts...)
	return m
}

// Client returns the authenticated backend client.
func (m *Manager) Client() *apiclient.Client {
	return m.client
}

// Session returns a copy of the current session.
func (m *Manager) Session() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.session
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.State
}

// IsAuthenticated reports whether a non-expired token is stored.
func (m *Manager) IsAuthenticated() bool {
	return token.Valid(m.tokens, m.now())
}

// Login exchanges credentials for a token and loads the user.
func (m *Manager) Login(ctx context.Context, creds user.Credentials) (*user.User, error) {
	m.setSession(Session{State: StateLoading})
	m.log.WithField("email", creds.Email).Info("login attempt")

	resp, err := m.client.PostForm(ctx, "/auth/token", url.Values{
		"username":   {creds.Email},
		"password":   {creds.Password},
		"grant_type": {"password"},
	})
	if err != nil {
		var se *apiclient.StatusError
		if errors.As(err, &se) && se.StatusCode < http.StatusInternalServerError {
			msg := se.Detail()
			if msg == "" {
				msg = "Login failed"
			}
			err = &LoginError{Status: se.StatusCode, Message: msg}
		}
		return nil, m.fail(err)
	}

	var grant struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(resp.Body, &grant); err != nil || grant.AccessToken == "" {
		return nil, m.fail(ErrNoAccessToken)
	}
	if err := m.tokens.SetToken(grant.AccessToken); err != nil {
		return nil, m.fail(err)
	}

	u, err := m.CurrentUser(ctx)
	if err != nil {
		return nil, m.fail(err)
	}
	m.setSession(Session{State: StateAuthenticated, User: u, IsAuthenticated: true})
	m.log.WithField("user_id", u.ID).Info("login succeeded")
	return u, nil
}

// Register creates an account and stores the returned token.
func (m *Manager) Register(ctx context.Context, data user.RegisterData) (*user.User, error) {
	m.setSession(Session{State: StateLoading})

	body, err := json.Marshal(data)
	if err != nil {
		return nil, m.fail(err)
	}
	resp, err := m.client.Do(ctx, apiclient.Request{
		Method:      http.MethodPost,
		Path:        "/auth/register",
		Body:        body,
		ContentType: "application/json",
		SkipRefresh: true,
	}, 0)
	if err != nil {
		var se *apiclient.StatusError
		if errors.As(err, &se) {
			if msg := se.Detail(); msg != "" {
				err = &LoginError{Status: se.StatusCode, Message: msg}
			}
		}
		return nil, m.fail(err)
	}

	var out struct {
		User  json.RawMessage `json:"user"`
		Token string          `json:"token"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, m.fail(err)
	}
	if out.Token == "" {
		return nil, m.fail(ErrNoAccessToken)
	}
	if err := m.tokens.SetToken(out.Token); err != nil {
		return nil, m.fail(err)
	}
	u, err := decodeUser(out.User, m.now())
	if err != nil {
		return nil, m.fail(err)
	}
	m.setSession(Session{State: StateAuthenticated, User: u, IsAuthenticated: true})
	return u, nil
}

// Restore resumes a session from a stored token. Any failure leaves the
// manager anonymous with the token cleared.
func (m *Manager) Restore(ctx context.Context) Session {
	if m.tokens.Token() == "" {
		m.setSession(Session{State: StateAnonymous})
		return m.Session()
	}

	u, err := m.CurrentUser(ctx)
	if err != nil {
		m.log.WithError(err).Info("stored session not restored")
		m.clearToken()
		m.setSession(Session{State: StateAnonymous})
		return m.Session()
	}
	m.setSession(Session{State: StateAuthenticated, User: u, IsAuthenticated: true})
	return m.Session()
}

// Logout tells the backend best-effort and always clears the local session.
func (m *Manager) Logout(ctx context.Context) {
	if m.tokens.Token() != "" {
		_, err := m.client.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: "/auth/logout", SkipRefresh: true}, 0)
		if err != nil {
			m.log.WithError(err).Warn("logout request failed")
		}
	}
	m.clearToken()
	m.setSession(Session{State: StateAnonymous})
}

// CurrentUser fetches /users/me. An expired token fails fast without a request.
func (m *Manager) CurrentUser(ctx context.Context) (*user.User, error) {
	if token.Expired(m.tokens.Token(), m.now()) {
		return nil, ErrSessionExpired
	}

	var raw json.RawMessage
	if err := m.client.GetJSON(ctx, "/users/me", &raw); err != nil {
		return nil, err
	}
	return decodeUser(raw, m.now())
}

// Refresh swaps the stored token for a fresh one. On failure the session is
// cleared.
func (m *Manager) Refresh(ctx context.Context) error {
	if _, err := m.client.Refresh(ctx); err != nil {
		m.log.WithError(err).Warn("token refresh failed")
		m.clearToken()
		m.setSession(Session{State: StateAnonymous})
		return ErrRefreshFailed
	}
	return nil
}

// RefreshIfExpiring refreshes an authenticated session whose token expires
// within window. It is a no-op otherwise.
func (m *Manager) RefreshIfExpiring(ctx context.Context, window time.Duration) error {
	if m.State() != StateAuthenticated {
		return nil
	}
	exp, ok := token.ExpiresAt(m.tokens.Token())
	if ok && exp.Sub(m.now()) > window {
		return nil
	}
	return m.Refresh(ctx)
}

// UpdateUser merges patch into the local user without calling the backend.
func (m *Manager) UpdateUser(patch user.Patch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.User == nil {
		return
	}
	u := patch.Apply(*m.session.User)
	m.session.User = &u
}

// UpdateProfile saves patch on the backend and merges it locally.
func (m *Manager) UpdateProfile(ctx context.Context, patch user.Patch) (*user.User, error) {
	if m.State() != StateAuthenticated {
		return nil, ErrNotAuthenticated
	}
	if patch.Empty() {
		s := m.Session()
		return s.User, nil
	}

	var raw json.RawMessage
	if err := m.client.PutJSON(ctx, "/users/me", patch, &raw); err != nil {
		return nil, err
	}
	if saved, err := decodeUser(raw, m.now()); err == nil {
		m.mu.Lock()
		m.session.User = saved
		m.mu.Unlock()
	} else {
		m.UpdateUser(patch)
	}
	return m.Session().User, nil
}

func (m *Manager) sessionExpired() {
	m.log.Info("backend rejected session")
	m.setSession(Session{State: StateAnonymous})
}

func (m *Manager) fail(err error) error {
	m.clearToken()
	m.setSession(Session{State: StateError, Error: err.Error()})
	m.log.WithError(err).Warn("authentication failed")
	return err
}

func (m *Manager) clearToken() {
	if err := m.tokens.ClearToken(); err != nil {
		m.log.WithError(err).Warn("failed to clear token")
	}
}

func (m *Manager) setSession(s Session) {
	m.mu.Lock()
	m.session = s
	m.mu.Unlock()
}
