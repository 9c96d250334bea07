package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// requestLogger writes one zerolog line per request. Polling and health
// checks are logged at debug level.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			level := zerolog.InfoLevel
			switch {
			case res.Status >= http.StatusInternalServerError:
				level = zerolog.ErrorLevel
			case c.Path() == "/progress/:id" || c.Path() == "/healthz":
				level = zerolog.DebugLevel
			}

			log.WithLevel(level).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Int64("bytes", res.Size).
				Dur("latency", time.Since(start)).
				Msg("http request")
			return nil
		}
	}
}
