package daemon

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ginLogger logs each request through logger. Successful requests are
// logged at debug level so that polling clients do not flood the log.
func ginLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// other handler can change c.Path so:
		path := c.Request.URL.Path
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		statusCode := c.Writer.Status()
		size := c.Writer.Size()
		if size < 0 {
			size = 0
		}

		entry := logger.WithFields(logrus.Fields{
			"statusCode": statusCode,
			"latency":    latency.Round(time.Microsecond).String(),
			"method":     c.Request.Method,
			"path":       path,
			"route":      c.FullPath(),
			"size":       size,
		})

		if len(c.Errors) > 0 {
			entry.Error(c.Errors.ByType(gin.ErrorTypePrivate).String())
			return
		}

		switch {
		case statusCode >= http.StatusInternalServerError:
			entry.Errorf("%s %s %d", c.Request.Method, path, statusCode)
		case statusCode >= http.StatusBadRequest:
			entry.Warnf("%s %s %d", c.Request.Method, path, statusCode)
		default:
			entry.Debugf("%s %s %d", c.Request.Method, path, statusCode)
		}
	}
}
