package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"cardmarket/internal/model"
	"cardmarket/pkg/utils"
)

const (
	// AuthorizationHeader authentication header name
	AuthorizationHeader = "Authorization"
	// BearerPrefix bearer token prefix
	BearerPrefix = "Bearer "
	// UserIDKey context key for the authenticated user id
	UserIDKey = "user_id"
	// UserRoleKey context key for the authenticated user role
	UserRoleKey = "user_role"
	// UsernameKey context key for the authenticated username
	UsernameKey = "username"
)

// UserInfo identity carried by a validated token
type UserInfo struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// TokenValidator validates a bearer token and returns the identity
type TokenValidator func(token string) (*UserInfo, error)

// Auth authentication middleware
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		info, ok := extract(c, validator)
		if !ok {
			c.Abort()
			return
		}
		c.Set(UserIDKey, info.ID)
		c.Set(UserRoleKey, info.Role)
		c.Set(UsernameKey, info.Username)
		c.Next()
	}
}

// RequireAdmin authentication middleware that also requires the admin role
func RequireAdmin(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		info, ok := extract(c, validator)
		if !ok {
			c.Abort()
			return
		}
		if info.Role != model.RoleAdmin {
			utils.Error(c, utils.CodeForbidden, "Insufficient permissions")
			c.Abort()
			return
		}
		c.Set(UserIDKey, info.ID)
		c.Set(UserRoleKey, info.Role)
		c.Set(UsernameKey, info.Username)
		c.Next()
	}
}

func extract(c *gin.Context, validator TokenValidator) (*UserInfo, bool) {
	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader == "" {
		utils.Error(c, utils.CodeUnauthorized, "Missing authorization header")
		return nil, false
	}
	if !strings.HasPrefix(authHeader, BearerPrefix) {
		utils.Error(c, utils.CodeUnauthorized, "Invalid authorization header format")
		return nil, false
	}
	token := strings.TrimPrefix(authHeader, BearerPrefix)
	if token == "" {
		utils.Error(c, utils.CodeUnauthorized, "Missing token")
		return nil, false
	}
	info, err := validator(token)
	if err != nil {
		utils.Error(c, utils.CodeUnauthorized, "Invalid token")
		return nil, false
	}
	return info, true
}

// GetUserID gets the authenticated user id from the context
func GetUserID(c *gin.Context) (uint64, bool) {
	value, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint64)
	return id, ok
}

// GetUserRole gets the authenticated user role from the context
func GetUserRole(c *gin.Context) (string, bool) {
	value, exists := c.Get(UserRoleKey)
	if !exists {
		return "", false
	}
	role, ok := value.(string)
	return role, ok
}

// IsAdmin reports whether the authenticated user has the admin role
func IsAdmin(c *gin.Context) bool {
	role, ok := GetUserRole(c)
	return ok && role == model.RoleAdmin
}

// MustGetUserID gets the user id, panicking when auth middleware did not run
func MustGetUserID(c *gin.Context) uint64 {
	id, exists := GetUserID(c)
	if !exists {
		panic("user ID not found in context")
	}
	return id
}
