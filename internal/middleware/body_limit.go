package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/tankermike11/staycation-journal/pkg/errors"
	"github.com/tankermike11/staycation-journal/pkg/response"
)

// BodyLimit caps request bodies at maxBytes. Requests that declare a larger Content-Length are
// rejected with 413 before any handler runs; others fail on read once the limit is crossed.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			response.Error(c, appErrors.ErrPayloadTooLarge)
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
