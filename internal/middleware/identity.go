package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// currentUserID returns the JWT subject as a string, or "anon" before
// authentication.  Numeric claims arrive as float64.
func currentUserID(c echo.Context) string {
	switch v := c.Get(CtxUserID).(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return fmt.Sprintf("%.0f", v)
	case uint64:
		return fmt.Sprintf("%d", v)
	}
	return "anon"
}
