package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"medleave/internal/metrics"
	"medleave/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const HeaderRequestID = "X-Request-ID"

// RequestLogger logs every request, recovers from panics and records the
// request duration histogram.
func RequestLogger(log zerolog.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := requestID(c)
		c.Writer.Header().Set(HeaderRequestID, reqID)

		defer func() {
			if recovered := recover(); recovered != nil {
				log.Error().
					Str("request_id", reqID).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Str("panic", fmt.Sprint(recovered)).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				response.Abort(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error")
			}

			status := c.Writer.Status()
			latency := time.Since(start)
			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveHTTP(c.Request.Method, route, strconv.Itoa(status), latency.Seconds())

			ev := log.Info()
			switch {
			case status >= http.StatusInternalServerError:
				ev = log.Error()
			case status >= http.StatusBadRequest:
				ev = log.Warn()
			}
			ev = ev.
				Str("request_id", reqID).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Int("status", status).
				Dur("latency", latency).
				Str("client_ip", c.ClientIP())
			if actor, ok := ActorFrom(c); ok {
				ev = ev.Int64("user_id", actor.ID).Str("role", string(actor.Role))
			}
			for _, e := range c.Errors {
				ev = ev.AnErr("error", e.Err)
			}
			ev.Msg("request")
		}()

		c.Next()
	}
}

func requestID(c *gin.Context) string {
	if id := c.GetHeader(HeaderRequestID); id != "" {
		return id
	}
	return uuid.NewString()
}
