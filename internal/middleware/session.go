package middleware

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const sessionLocalsKey = "session"

type sessionContextKey struct{}

// Session describes the authenticated caller of a request.
type Session struct {
	UserID    uint
	Email     string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// IsAdmin reports whether the session belongs to an administrator.
func (s Session) IsAdmin() bool {
	return s.Role == "admin"
}

// CanAccessUser reports whether the caller may read or change data owned by userID.
func (s Session) CanAccessUser(userID uint) bool {
	return s.IsAdmin() || (s.UserID != 0 && s.UserID == userID)
}

// SetSession binds the session to the fiber context and the request context.
func SetSession(c *fiber.Ctx, session Session) {
	c.Locals(sessionLocalsKey, session)
	c.Locals("user_id", session.UserID)
	c.Locals("user_role", session.Role)
	c.SetUserContext(ContextWithSession(c.UserContext(), session))
}

// GetSession returns the session for the active request, if any.
func GetSession(c *fiber.Ctx) (Session, bool) {
	if c == nil {
		return Session{}, false
	}
	if session, ok := c.Locals(sessionLocalsKey).(Session); ok {
		return session, true
	}
	return SessionFromContext(c.UserContext())
}

// ContextWithSession attaches the session to ctx.
func ContextWithSession(ctx context.Context, session Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// SessionFromContext extracts a session previously stored with ContextWithSession.
func SessionFromContext(ctx context.Context) (Session, bool) {
	if ctx == nil {
		return Session{}, false
	}
	session, ok := ctx.Value(sessionContextKey{}).(Session)
	return session, ok
}
