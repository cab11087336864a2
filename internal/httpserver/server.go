// Package httpserver embeds the Gin HTTP server that serves the video
// verification page, streams the fragmented MP4 feed, and accepts the
// operator's submitted response.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/project-chip/certification-tool-cli/internal/httpserver/page"
	"github.com/project-chip/certification-tool-cli/internal/logging"
)

// Endpoint paths served to the verification browser.
const (
	EndpointRoot           = "/"
	EndpointVideoLive      = "/video_live.mp4"
	EndpointSubmitResponse = "/submit_response"
)

// ChunkSource is polled for the next MP4 fragment; implemented by
// *video.Pipeline.
type ChunkSource interface {
	Pop(timeout time.Duration) (chunk []byte, eof bool, err error)
}

// Server is the embedded video/response HTTP server.
type Server struct {
	logger logging.Logger
	port   int

	mu         sync.RWMutex
	promptText string
	options    map[string]int
	source     ChunkSource
	responseCh chan int

	httpSrv *http.Server
}

// New constructs a Server bound to port. The response channel holds a
// single value; surplus submissions are rejected at the handler.
func New(logger logging.Logger, port int) *Server {
	return &Server{
		logger:     logger,
		port:       port,
		responseCh: make(chan int, 1),
	}
}

// SetPrompt configures the text and options rendered on "/" for the
// current prompt.
func (s *Server) SetPrompt(text string, options map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promptText = text
	s.options = options
}

// SetSource attaches the chunk source video_live.mp4 streams from.
func (s *Server) SetSource(source ChunkSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = source
}

// ResponseChan exposes the channel the operator's submitted response
// arrives on.
func (s *Server) ResponseChan() <-chan int {
	return s.responseCh
}

func (s *Server) engine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type"},
	}))

	r.GET(EndpointRoot, s.handleRoot)
	r.GET(EndpointVideoLive, s.handleVideoLive)
	r.POST(EndpointSubmitResponse, s.handleSubmitResponse)
	r.OPTIONS(EndpointSubmitResponse, func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func (s *Server) handleRoot(c *gin.Context) {
	s.mu.RLock()
	text, options := s.promptText, s.options
	s.mu.RUnlock()
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page.Render(text, options)))
}

func (s *Server) handleVideoLive(c *gin.Context) {
	s.mu.RLock()
	source := s.source
	s.mu.RUnlock()
	if source == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}

	c.Header("Content-Type", "video/mp4")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	flusher, canFlush := c.Writer.(http.Flusher)

	for {
		select {
		case <-c.Request.Context().Done():
			return
		default:
		}
		chunk, eof, err := source.Pop(time.Second)
		if err != nil {
			continue // timeout: keep the connection open, try again
		}
		if eof {
			return
		}
		if _, werr := c.Writer.Write(chunk); werr != nil {
			return
		}
		if canFlush {
			flusher.Flush()
		}
	}
}

type submitResponseBody struct {
	Response json.Number `json:"response"`
}

func (s *Server) handleSubmitResponse(c *gin.Context) {
	if c.Request.ContentLength <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "missing Content-Length"})
		return
	}

	var body submitResponseBody
	decoder := json.NewDecoder(c.Request.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid JSON"})
		return
	}

	value, err := body.Response.Int64()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "response must be an integer"})
		return
	}

	select {
	case s.responseCh <- int(value):
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "response already pending"})
	}
}

// Start binds the listener with SO_REUSEADDR (so repeated Start/Stop
// cycles across prompts never hit "address already in use") and serves
// in the background.
func (s *Server) Start() error {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var ctrlErr error
			err := c.Control(func(fd uintptr) {
				ctrlErr = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return ctrlErr
		},
	}

	listener, err := lc.Listen(context.Background(), "tcp", fmt.Sprintf("0.0.0.0:%d", s.port))
	if err != nil {
		return fmt.Errorf("httpserver: listen: %w", err)
	}

	s.httpSrv = &http.Server{Handler: s.engine()}
	go func() {
		if err := s.httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Errorw("video http server exited", "error", err)
		}
	}()
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() {
	if s.httpSrv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.httpSrv.Shutdown(ctx)
}
