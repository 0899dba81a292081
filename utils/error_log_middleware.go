package utils

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type errorLogWriter struct {
	gin.ResponseWriter
	gc *gin.Context
}

func (w errorLogWriter) Write(b []byte) (int, error) {
	status := w.gc.Writer.Status()
	if status >= 400 {
		log.WithFields(log.Fields{
			"status": status,
			"method": w.gc.Request.Method,
			"path":   w.gc.Request.URL.Path,
		}).Debugf("[DEBUG ERROR]: %s", string(b))
	}
	return w.ResponseWriter.Write(b)
}

// ErrorLogMiddleware doesn't work with GZIP
func ErrorLogMiddleware(c *gin.Context) {
	blw := &errorLogWriter{gc: c, ResponseWriter: c.Writer}
	c.Writer = blw
	c.Next()
}

// NoCache marks all responses as not cacheable, outcomes change with every frame
func NoCache(c *gin.Context) {
	c.Header("cache-control", "no-cache")
	c.Next()
}
