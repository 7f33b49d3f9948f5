// Package session gives each browser an anonymous identity. The identity is a
// random UUID carried in a signed cookie; it maps server-side to the backend
// session cookies and the mirrored compare selection.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rideal/bike-catalog/internal/compare"
	"github.com/rideal/bike-catalog/internal/upstream"
)

const (
	CookieName = "catalog_session"
	tokenTTL   = 24 * time.Hour
)

type contextKey string

const stateKey contextKey = "session_state"

var (
	secretOnce    sync.Once
	secretRuntime []byte
	secretErr     error
)

func secretFromEnv() ([]byte, error) {
	secretOnce.Do(func() {
		secret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
		if secret != "" {
			secretRuntime = []byte(secret)
			return
		}

		buf := make([]byte, 48)
		if _, err := rand.Read(buf); err != nil {
			secretErr = fmt.Errorf("failed to generate session fallback secret: %w", err)
			return
		}

		secretRuntime = []byte(base64.RawURLEncoding.EncodeToString(buf))
		log.Print("SESSION_SECRET is not set; using ephemeral in-memory fallback secret")
	})

	if secretErr != nil {
		return nil, secretErr
	}
	if len(secretRuntime) == 0 {
		return nil, errors.New("session secret unavailable")
	}
	return secretRuntime, nil
}

// State holds everything the server keeps per browser session.
type State struct {
	ID        uuid.UUID
	Upstream  *upstream.Session
	Selection *compare.Selection

	lastSeen time.Time
}

// Manager mints, validates and stores sessions. States are in-memory only;
// a restart hands every browser a fresh session on its next request.
type Manager struct {
	backend compare.Backend

	mu     sync.Mutex
	states map[uuid.UUID]*State
}

func NewManager(backend compare.Backend) *Manager {
	return &Manager{
		backend: backend,
		states:  make(map[uuid.UUID]*State),
	}
}

// Middleware resolves the session cookie, minting a new session when the
// cookie is absent, invalid or expired, and stores the State in the context.
func (m *Manager) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		state, fresh, err := m.resolve(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Server session configuration error")
		}
		if fresh {
			token, err := issueToken(state.ID)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Server session configuration error")
			}
			c.SetCookie(&http.Cookie{
				Name:     CookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(tokenTTL / time.Second),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		c.Set(string(stateKey), state)
		return next(c)
	}
}

// FromContext retrieves the session state placed by Middleware.
func FromContext(c echo.Context) (*State, error) {
	state, ok := c.Get(string(stateKey)).(*State)
	if !ok {
		return nil, errors.New("session state not found in context")
	}
	return state, nil
}

func (m *Manager) resolve(c echo.Context) (*State, bool, error) {
	if cookie, err := c.Cookie(CookieName); err == nil && cookie.Value != "" {
		if id, err := parseToken(cookie.Value); err == nil {
			m.mu.Lock()
			state, ok := m.states[id]
			if ok {
				state.lastSeen = time.Now()
			}
			m.mu.Unlock()
			if ok {
				return state, false, nil
			}
			// Valid token for a session this process never saw (restart
			// or eviction). Recreate under the same ID so the cookie
			// stays stable.
			return m.create(id), false, nil
		}
	}
	return m.create(uuid.New()), true, nil
}

func (m *Manager) create(id uuid.UUID) *State {
	upSession := &upstream.Session{}
	state := &State{
		ID:        id,
		Upstream:  upSession,
		Selection: compare.NewSelection(m.backend, upSession),
		lastSeen:  time.Now(),
	}
	m.mu.Lock()
	m.states[id] = state
	m.pruneLocked()
	m.mu.Unlock()
	return state
}

// pruneLocked drops sessions idle past the token lifetime. Caller holds mu.
func (m *Manager) pruneLocked() {
	cutoff := time.Now().Add(-tokenTTL)
	for id, state := range m.states {
		if state.lastSeen.Before(cutoff) {
			delete(m.states, id)
		}
	}
}

func issueToken(sessionID uuid.UUID) (string, error) {
	secretKey, err := secretFromEnv()
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"sub": sessionID.String(),
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}

func parseToken(tokenString string) (uuid.UUID, error) {
	secretKey, err := secretFromEnv()
	if err != nil {
		return uuid.Nil, err
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secretKey, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, errors.New("invalid or expired session token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid session claims")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return uuid.Nil, errors.New("invalid session subject")
	}
	return uuid.Parse(sub)
}
