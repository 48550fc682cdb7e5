package middleware

import "github.com/labstack/echo/v4"

// UserID returns the authenticated user id, or "" outside JWTAuth.
func UserID(c echo.Context) string {
	s, _ := c.Get(ContextUserID).(string)
	return s
}

// Role returns the authenticated role, or "" outside JWTAuth.
func Role(c echo.Context) string {
	s, _ := c.Get(ContextRole).(string)
	return s
}

// rateKeyUser names the caller in rate limit keys.
func rateKeyUser(c echo.Context) string {
	if id := UserID(c); id != "" {
		return id
	}
	return "anon"
}
