package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// ErrorLogger logs failed requests and recovers from panics.
func ErrorLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				err := fmt.Errorf("%v", recovered)
				requestEntry(c, start).
					WithField("type", "panic").
					WithField("stack", string(debug.Stack())).
					WithError(err).
					Error("request panicked")

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "INTERNAL_ERROR",
						"message": "Internal server error",
					},
				})
				return
			}

			if len(c.Errors) == 0 {
				if c.Writer.Status() >= http.StatusInternalServerError {
					requestEntry(c, start).WithField("type", "http_error").Error("request failed")
				}
				return
			}

			for _, err := range c.Errors {
				entry := requestEntry(c, start).WithField("type", fmt.Sprintf("%v", err.Type))
				if err.Meta != nil {
					entry = entry.WithField("meta", err.Meta)
				}
				entry.WithError(err.Err).Error("request error")
			}
		}()

		c.Next()
	}
}

func requestEntry(c *gin.Context, start time.Time) *log.Entry {
	return log.WithFields(log.Fields{
		"status":     c.Writer.Status(),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"query":      c.Request.URL.RawQuery,
		"client_ip":  c.ClientIP(),
		"request_id": GetRequestID(c),
		"latency":    time.Since(start).String(),
	})
}
