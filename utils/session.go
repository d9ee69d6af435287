package utils

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionCookieName is the cookie carrying the signed session.
const SessionCookieName = "session"

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Session is the request-scoped client state. Handlers mutate it and the codec writes it
// back before the response is sent.
type Session struct {
	ID        string
	LoggedIn  bool
	Permanent bool
	Flashes   []Flash
	ExpiresAt time.Time

	modified bool
}

// NewSession returns an empty anonymous session.
func NewSession() *Session {
	return &Session{ID: uuid.NewString()}
}

// LogIn marks the session authenticated and keeps it beyond the browser session.
func (s *Session) LogIn() {
	s.LoggedIn = true
	s.Permanent = true
	s.modified = true
}

// Clear drops all state and starts over under a fresh id.
func (s *Session) Clear() {
	*s = Session{ID: uuid.NewString(), modified: true}
}

// Flash queues a message for the next rendered page.
func (s *Session) Flash(category, message string) {
	s.Flashes = append(s.Flashes, Flash{Category: category, Message: message})
	s.modified = true
}

// TakeFlashes returns and removes the queued messages.
func (s *Session) TakeFlashes() []Flash {
	flashes := s.Flashes
	if len(flashes) > 0 {
		s.Flashes = nil
		s.modified = true
	}
	return flashes
}

// Modified reports whether the session must be written back.
func (s *Session) Modified() bool { return s.modified }

func (s *Session) empty() bool {
	return !s.LoggedIn && !s.Permanent && len(s.Flashes) == 0
}

type sessionClaims struct {
	LoggedIn  bool    `json:"logged_in,omitempty"`
	Permanent bool    `json:"permanent,omitempty"`
	Flashes   []Flash `json:"_flashes,omitempty"`
	jwt.RegisteredClaims
}

// SessionCodec stores sessions in an HMAC signed JWT cookie.
type SessionCodec struct {
	secret   []byte
	lifetime time.Duration
	secure   bool
}

// NewSessionCodec signs with secret; permanent sessions live for lifetime.
func NewSessionCodec(secret string, lifetime time.Duration, secure bool) *SessionCodec {
	return &SessionCodec{secret: []byte(secret), lifetime: lifetime, secure: secure}
}

// Load reads the session from the request. Missing, tampered, expired or revoked cookies
// yield an empty session.
func (c *SessionCodec) Load(ctx *gin.Context) *Session {
	raw, err := ctx.Cookie(SessionCookieName)
	if err != nil || raw == "" {
		return NewSession()
	}
	claims, err := c.parse(raw)
	if err != nil {
		Sugar.Debugf("discarding session cookie: %v", err)
		return NewSession()
	}
	if claims.ID == "" || IsSessionRevoked(ctx.Request.Context(), claims.ID) {
		return NewSession()
	}

	s := &Session{
		ID:        claims.ID,
		LoggedIn:  claims.LoggedIn,
		Permanent: claims.Permanent,
		Flashes:   claims.Flashes,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s
}

// Save writes the session cookie if the session changed. An emptied session deletes it.
func (c *SessionCodec) Save(ctx *gin.Context, s *Session) error {
	if !s.modified {
		return nil
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	if s.empty() {
		ctx.SetCookie(SessionCookieName, "", -1, "/", "", c.secure, true)
		s.modified = false
		return nil
	}

	now := time.Now()
	claims := sessionClaims{
		LoggedIn:  s.LoggedIn,
		Permanent: s.Permanent,
		Flashes:   s.Flashes,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       s.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	maxAge := 0
	if s.Permanent {
		s.ExpiresAt = now.Add(c.lifetime)
		claims.ExpiresAt = jwt.NewNumericDate(s.ExpiresAt)
		maxAge = int(c.lifetime / time.Second)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return err
	}
	ctx.SetCookie(SessionCookieName, token, maxAge, "/", "", c.secure, true)
	s.modified = false
	return nil
}

// RevocationDeadline is how long a revoked session id must be remembered.
func (c *SessionCodec) RevocationDeadline(s *Session) time.Time {
	if !s.ExpiresAt.IsZero() {
		return s.ExpiresAt
	}
	return time.Now().Add(c.lifetime)
}

func (c *SessionCodec) parse(raw string) (*sessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid session claims")
	}
	return claims, nil
}
