package middleware

// identity.go holds helpers shared by the cache and rate limit keys.

import (
    "fmt"

    "github.com/labstack/echo/v4"
)

// currentUserID renders the user id stored by JWTAuth, or "anon" for
// unauthenticated requests.  JSON numbers in claims decode as float64.
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
