package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/jwt"
)

const (
	UserIDKey     = "user_id"
	EmailKey      = "email"
	UsernameKey   = "username"
	RolesKey      = "roles"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "

	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// AuthMiddleware validates JWT tokens locally against the issuer's
// public key. A nil verifier disables enforcement (local development).
type AuthMiddleware struct {
	verifier *jwt.Verifier
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(verifier *jwt.Verifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth returns a Gin middleware that rejects requests without a
// valid bearer token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.verifier == nil {
			c.Next()
			return
		}

		claims, err := m.claimsFromHeader(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": err.Error(),
			})
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth parses a bearer token when present but lets anonymous
// requests through. Viewer-facing routes use this.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.verifier == nil || c.GetHeader(AuthHeaderKey) == "" {
			c.Next()
			return
		}

		claims, err := m.claimsFromHeader(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": err.Error(),
			})
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// RequireRole gates a route on a role. Admins pass every gate.
// Must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.verifier == nil {
			c.Next()
			return
		}

		for _, r := range GetRoles(c) {
			if r == role || r == RoleAdmin {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "insufficient role",
		})
	}
}

func (m *AuthMiddleware) claimsFromHeader(c *gin.Context) (*jwt.Claims, error) {
	authHeader := c.GetHeader(AuthHeaderKey)
	if authHeader == "" {
		return nil, errMissingHeader
	}
	if !strings.HasPrefix(authHeader, BearerPrefix) {
		return nil, errBadFormat
	}
	return m.verifier.Validate(strings.TrimPrefix(authHeader, BearerPrefix))
}

var (
	errMissingHeader = &authError{"missing authorization header"}
	errBadFormat     = &authError{"invalid authorization format"}
)

type authError struct{ msg string }

func (e *authError) Error() string { return e.msg }

func setIdentity(c *gin.Context, claims *jwt.Claims) {
	c.Set(UserIDKey, claims.UserID)
	c.Set(EmailKey, claims.Email)
	c.Set(UsernameKey, claims.Username)
	c.Set(RolesKey, claims.Roles)
}

// GetUserID extracts the user ID from Gin context.
func GetUserID(c *gin.Context) string {
	if id, exists := c.Get(UserIDKey); exists {
		return id.(string)
	}
	return ""
}

// GetUsername extracts the username from Gin context.
func GetUsername(c *gin.Context) string {
	if username, exists := c.Get(UsernameKey); exists {
		return username.(string)
	}
	return ""
}

// GetEmail extracts the email from Gin context.
func GetEmail(c *gin.Context) string {
	if email, exists := c.Get(EmailKey); exists {
		return email.(string)
	}
	return ""
}

// GetRoles extracts roles from Gin context.
func GetRoles(c *gin.Context) []string {
	if roles, exists := c.Get(RolesKey); exists {
		return roles.([]string)
	}
	return nil
}
