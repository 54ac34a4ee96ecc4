// Package server exposes the translation pipeline over HTTP: a small
// upload page plus a POST endpoint that returns the translated
// document as a download.
package server

import (
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/diaglot/diaglot/process"
)

// maxUploadSize caps accepted documents at 50 MiB.
const maxUploadSize = 50 << 20

//go:embed index.html
var indexHTML []byte

// Server wires a Processor to HTTP handlers.
type Server struct {
	proc *process.Processor
}

// New builds a Server around the given processor.
func New(proc *process.Processor) *Server {
	return &Server{proc: proc}
}

// Handler returns the routed gin engine.
func (s *Server) Handler() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLog())
	r.MaxMultipartMemory = 16 << 20

	r.GET("/", s.index)
	r.GET("/healthz", s.healthz)
	r.POST("/translate", s.translate)
	return r
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	return s.Handler().Run(addr)
}

func (s *Server) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) translate(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}
	if fh.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds 50 MiB"})
		return
	}
	if !process.IsDiagramFile(fh.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only .drawio and .xml files are accepted"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reading upload failed"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reading upload failed"})
		return
	}

	out, stats, err := s.proc.ProcessBytes(c.Request.Context(), data)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": fmt.Sprintf("not a draw.io document: %v", err)})
		return
	}

	base := filepath.Base(fh.Filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	name := stem + "_translated.drawio"

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Header("X-Translated-Pages", fmt.Sprint(stats.Pages))
	c.Data(http.StatusOK, "application/vnd.jgraph.mxfile", out)
}

// requestLog emits one structured line per request.
func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).Round(time.Millisecond).String(),
		}).Info("request")
	}
}
