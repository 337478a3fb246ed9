// Package api is the operator surface: the controls the desk application
// used to expose as buttons, served over HTTP instead.
package api

import (
	"fmt"
	"net/http"

	"ReceiptCapture/autocapture"
	"ReceiptCapture/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	svc   *autocapture.Service
	dedup *autocapture.Deduplicator
}

func NewServer(svc *autocapture.Service, dedup *autocapture.Deduplicator) *Server {
	return &Server{svc: svc, dedup: dedup}
}

// Run blocks serving the operator API on the given port.
func (s *Server) Run(port int) error {
	return s.router().Run(fmt.Sprintf(":%d", port))
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/api/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"enabled":        s.svc.Enabled(),
			"state":          s.svc.State().String(),
			"processedCount": s.dedup.Count(),
		})
	})
	r.POST("/api/capture/enable", func(c *gin.Context) {
		s.svc.Enable()
		c.JSON(http.StatusOK, gin.H{"data": "auto capture enabled"})
	})
	r.POST("/api/capture/disable", func(c *gin.Context) {
		s.svc.Disable()
		c.JSON(http.StatusOK, gin.H{"data": "auto capture disabled"})
	})
	r.POST("/api/dedup/reset", func(c *gin.Context) {
		s.dedup.Clear()
		logger.Log().Info("dedup set cleared by operator")
		c.JSON(http.StatusOK, gin.H{"data": "dedup set cleared"})
	})

	return r
}
