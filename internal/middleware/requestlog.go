package middleware

import (
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
)

// HeaderRequestID carries the correlation id in and out.
const HeaderRequestID = "X-Request-ID"

// CtxRequestID is the echo context key holding the request id.
const CtxRequestID = "request_id"

// RequestLog assigns every request an id (reusing a valid incoming one)
// and writes one access log line when it completes.
func RequestLog(log *zap.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            rid := c.Request().Header.Get(HeaderRequestID)
            if _, err := uuid.Parse(rid); err != nil {
                rid = uuid.NewString()
            }
            c.Set(CtxRequestID, rid)
            c.Response().Header().Set(HeaderRequestID, rid)

            err := next(c)
            if err != nil {
                c.Error(err)
            }

            fields := []zap.Field{
                zap.String("request_id", rid),
                zap.String("method", c.Request().Method),
                zap.String("route", c.Path()),
                zap.Int("status", c.Response().Status),
                zap.Duration("latency", time.Since(start)),
                zap.String("user", currentUserID(c)),
            }
            if err != nil {
                fields = append(fields, zap.Error(err))
            }
            switch {
            case c.Response().Status >= 500:
                log.Error("request", fields...)
            default:
                log.Info("request", fields...)
            }
            return nil
        }
    }
}

// RequestID returns the id assigned by RequestLog, or "".
func RequestID(c echo.Context) string {
    s, _ := c.Get(CtxRequestID).(string)
    return s
}
