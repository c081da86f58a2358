package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/noisewatch/noisewatch-go/internal/matcher"
	"github.com/noisewatch/noisewatch-go/internal/search"
	"github.com/noisewatch/noisewatch-go/internal/session"
)

// SearchMatches handles POST /api/v1/search-matches. It runs a match search
// over the complainant's description and time window and returns ranked
// candidates.
func (c *Controller) SearchMatches(ctx echo.Context) error {
	var req search.Request
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	resp, err := c.Search.Search(ctx.Request().Context(), &req)
	if err != nil {
		return c.serviceError(ctx, err)
	}

	c.apiLogger.Info("search matches",
		"candidates", len(resp.Matches),
		"query_mode", resp.QueryMode,
		"ip", ctx.RealIP())

	return ctx.JSON(http.StatusOK, resp)
}

// SelectMatchRequest starts a complaint session from a chosen candidate.
type SelectMatchRequest struct {
	Match       matcher.CandidateMatch `json:"match"`
	Description string                 `json:"description"`
}

// SelectMatchResponse returns the created session.
type SelectMatchResponse struct {
	SessionID string        `json:"sessionId"`
	State     session.State `json:"state"`
}

// SelectMatch handles POST /api/v1/select-match.
func (c *Controller) SelectMatch(ctx echo.Context) error {
	var req SelectMatchRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	if req.Match.ID == "" || req.Match.LocationName == "" {
		return c.HandleError(ctx, nil, "A selected match with id and locationName is required", http.StatusBadRequest)
	}

	sess := c.Sessions.Create(req.Match, req.Description)

	c.apiLogger.Info("match selected",
		"session_id", sess.ID,
		"location", req.Match.LocationName,
		"ip", ctx.RealIP())

	return ctx.JSON(http.StatusCreated, SelectMatchResponse{
		SessionID: sess.ID,
		State:     sess.State,
	})
}

// VerifyIdentityRequest carries the complainant's identity details.
type VerifyIdentityRequest struct {
	SessionID     string `json:"sessionId"`
	Name          string `json:"name"`
	NRIC          string `json:"nric"`
	ContactNumber string `json:"contactNumber,omitempty"`
}

// VerifyIdentityResponse confirms the verification step.
type VerifyIdentityResponse struct {
	SessionID  string        `json:"sessionId"`
	State      session.State `json:"state"`
	MaskedNRIC string        `json:"maskedNric"`
}

// VerifyIdentity handles POST /api/v1/verify-identity. The check is a format
// validation standing in for a real identity provider; only the masked
// identifier is retained.
func (c *Controller) VerifyIdentity(ctx echo.Context) error {
	var req VerifyIdentityRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	if req.SessionID == "" {
		return c.HandleError(ctx, nil, "sessionId is required", http.StatusBadRequest)
	}
	if req.Name == "" {
		return c.HandleError(ctx, nil, "name is required", http.StatusBadRequest)
	}

	masked, err := session.ValidateNRIC(req.NRIC)
	if err != nil {
		return c.serviceError(ctx, err)
	}

	sess, err := c.Sessions.Verify(req.SessionID, masked)
	if err != nil {
		return c.serviceError(ctx, err)
	}

	c.apiLogger.Info("identity verified",
		"session_id", sess.ID,
		"ip", ctx.RealIP())

	return ctx.JSON(http.StatusOK, VerifyIdentityResponse{
		SessionID:  sess.ID,
		State:      sess.State,
		MaskedNRIC: sess.MaskedNRIC,
	})
}

// SubmitComplaintRequest finalizes a verified session. Complaint is optional
// free text appended to the session record.
type SubmitComplaintRequest struct {
	SessionID string `json:"sessionId"`
	Complaint string `json:"complaint,omitempty"`
}

// SubmitComplaintResponse returns the complaint reference.
type SubmitComplaintResponse struct {
	SessionID   string        `json:"sessionId"`
	State       session.State `json:"state"`
	ReferenceID string        `json:"referenceId"`
	SubmittedAt time.Time     `json:"submittedAt"`
	Message     string        `json:"message"`
}

// SubmitComplaint handles POST /api/v1/submit-complaint.
func (c *Controller) SubmitComplaint(ctx echo.Context) error {
	var req SubmitComplaintRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	if req.SessionID == "" {
		return c.HandleError(ctx, nil, "sessionId is required", http.StatusBadRequest)
	}

	sess, err := c.Sessions.Submit(req.SessionID, req.Complaint)
	if err != nil {
		return c.serviceError(ctx, err)
	}

	c.apiLogger.Info("complaint submitted",
		"session_id", sess.ID,
		"reference_id", sess.ReferenceID,
		"location", sess.SelectedMatch.LocationName,
		"ip", ctx.RealIP())

	return ctx.JSON(http.StatusOK, SubmitComplaintResponse{
		SessionID:   sess.ID,
		State:       sess.State,
		ReferenceID: sess.ReferenceID,
		SubmittedAt: sess.SubmittedAt,
		Message:     "Your complaint has been recorded under reference " + sess.ReferenceID + ".",
	})
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	BackendMode   string `json:"backend_mode"`
}

// Health handles GET /api/v1/health.
func (c *Controller) Health(ctx echo.Context) error {
	mode := "live"
	if c.Settings.Backend.UseMock() {
		mode = "mock"
	}
	return ctx.JSON(http.StatusOK, HealthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(c.startTime).Seconds()),
		BackendMode:   mode,
	})
}
