// Package api implements the HTTP surface of the complaint intake service.
package api

import (
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/noisewatch/noisewatch-go/internal/conf"
	"github.com/noisewatch/noisewatch-go/internal/errors"
	"github.com/noisewatch/noisewatch-go/internal/logging"
	"github.com/noisewatch/noisewatch-go/internal/observability"
	"github.com/noisewatch/noisewatch-go/internal/search"
	"github.com/noisewatch/noisewatch-go/internal/session"
)

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Settings *conf.Settings
	Search   *search.Service
	Sessions *session.Store

	metrics   *observability.Metrics
	apiLogger *slog.Logger
	startTime time.Time
}

// New creates the API controller and registers all routes on a fresh echo
// instance. metrics may be nil, in which case /metrics is not exposed.
func New(settings *conf.Settings, searchService *search.Service, sessions *session.Store, metrics *observability.Metrics) *Controller {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	c := &Controller{
		Echo:      e,
		Settings:  settings,
		Search:    searchService,
		Sessions:  sessions,
		metrics:   metrics,
		apiLogger: logging.ForService("api"),
		startTime: time.Now(),
	}

	c.Group = e.Group("/api/v1")
	c.initRoutes()
	return c
}

func (c *Controller) initRoutes() {
	c.Group.POST("/search-matches", c.SearchMatches)
	c.Group.POST("/select-match", c.SelectMatch)
	c.Group.POST("/verify-identity", c.VerifyIdentity)
	c.Group.POST("/submit-complaint", c.SubmitComplaint)
	c.Group.GET("/health", c.Health)

	if c.metrics != nil {
		c.Echo.GET("/metrics", echo.WrapHandler(c.metrics.Handler()))
	}
}

// Start runs the HTTP server until it fails or is shut down.
func (c *Controller) Start() error {
	return c.Echo.Start(":" + c.Settings.HTTP.Port)
}

// ErrorResponse is the wire format of every API error.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // Unique identifier for tracking this error
}

// NewErrorResponse creates a new API error response.
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}
}

// generateCorrelationID creates a unique identifier for error tracking.
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// HandleError logs an error with a correlation ID and writes the JSON error
// response.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	errorResp := NewErrorResponse(err, message, code)

	var errorStr string
	if err != nil {
		errorStr = err.Error()
	} else {
		errorStr = message
	}

	c.apiLogger.Error("API Error",
		"correlation_id", errorResp.CorrelationID,
		"message", message,
		"error", errorStr,
		"code", code,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method,
		"ip", ctx.RealIP(),
	)

	return ctx.JSON(code, errorResp)
}

// serviceError maps a categorized error onto the API's error taxonomy and
// writes the response. Validation errors show their own message; everything
// else gets a generic message so internals never leak to the complainant.
func (c *Controller) serviceError(ctx echo.Context, err error) error {
	code := errors.HTTPStatusFor(err)

	// State machine violations are client-correctable ordering mistakes.
	if errors.IsCategory(err, errors.CategoryState) {
		return c.HandleError(ctx, err, "The complaint is not in a state that allows this step", http.StatusConflict)
	}

	var message string
	switch code {
	case http.StatusBadRequest:
		message = err.Error()
	case http.StatusNotFound:
		message = "Session not found or expired"
	case http.StatusBadGateway:
		message = "The noise monitoring service is currently unavailable"
	default:
		message = "An internal error occurred"
	}

	return c.HandleError(ctx, err, message, code)
}
