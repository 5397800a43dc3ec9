// Package server exposes the router over a thin HTTP webhook surface.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"signal-router/internal/errors"
	"signal-router/internal/logging"
	"signal-router/internal/models"
	"signal-router/internal/notify"
	"signal-router/internal/store"
	"signal-router/internal/trading"
)

// SignatureHeader carries the hex-encoded HMAC of the request body.
const SignatureHeader = "X-Webhook-Signature"

// Server wires the trading router to HTTP.
type Server struct {
	router     *trading.Router
	journal    *store.Journal
	dispatcher *notify.Dispatcher
	logger     zerolog.Logger
}

// New creates a Server. journal and dispatcher may be nil.
func New(router *trading.Router, journal *store.Journal, dispatcher *notify.Dispatcher, logger zerolog.Logger) *Server {
	return &Server{
		router:     router,
		journal:    journal,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Routes builds the gin engine.
func (s *Server) Routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", s.handleHealth)
	engine.POST("/trade", s.handleTrade)
	return engine
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleTrade feeds the raw body and signature header into the router and
// translates the error taxonomy onto HTTP status codes.
func (s *Server) handleTrade(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	decision, err := s.router.Route(c.Request.Context(), body, c.GetHeader(SignatureHeader))
	if err != nil {
		s.logger.Warn().Err(err).Msg("Signal rejected")
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	s.afterDecision(c, decision)
	c.JSON(http.StatusOK, decision)
}

// afterDecision runs the audit hooks. Failures are logged, never surfaced:
// the Decision already stands.
func (s *Server) afterDecision(c *gin.Context, d *models.Decision) {
	logging.LogDecision(s.logger, d)

	if s.journal != nil {
		if err := s.journal.Append(c.Request.Context(), d); err != nil {
			s.logger.Warn().Err(err).Msg("Journal append failed")
		}
	}
	if s.dispatcher != nil {
		s.dispatcher.Dispatch(c.Request.Context(), d)
	}
}

func statusFor(err error) int {
	var authErr *errors.AuthenticationError
	var valErr *errors.ValidationError
	var unsupErr *errors.UnsupportedInstrumentError
	var sessErr *errors.SessionError
	var orderErr *errors.OrderPlacementError

	switch {
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &valErr):
		return http.StatusBadRequest
	case errors.As(err, &unsupErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &sessErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &orderErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
