package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reflectd/internal/ingest"
	"github.com/fyrsmithlabs/reflectd/internal/logging"
	"github.com/fyrsmithlabs/reflectd/internal/review"
	"github.com/fyrsmithlabs/reflectd/internal/store"
	"github.com/fyrsmithlabs/reflectd/pkg/auth"
)

const serviceName = "reflectd"

// toHTTPError maps service errors onto status codes.
func toHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, review.ErrMissingUserID), errors.Is(err, ingest.ErrMissingUserID):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case review.IsValidation(err), errors.Is(err, ingest.ErrEmptyText):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, review.ErrEventNotFound),
		errors.Is(err, ingest.ErrConversationNotFound),
		errors.Is(err, store.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrAlreadyExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// userID returns the authenticated caller. The auth middleware guarantees
// it on /api/v1 routes.
func userID(c echo.Context) (string, error) {
	id, ok := auth.UserID(c)
	if !ok {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing user identity")
	}
	return id, nil
}

func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		logging.FromContext(c.Request().Context()).Warn(c.Request().Context(), "invalid request body", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}

func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Service: serviceName}
	if s.svc.Telemetry != nil {
		health := s.svc.Telemetry.Health()
		resp.Telemetry = &health
		if health.Degraded {
			resp.Status = "degraded"
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRedact(c echo.Context) error {
	var req TextRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result := s.svc.Engines.Current().Redactor.Scan(req.Text)
	return c.JSON(http.StatusOK, RedactResponse{
		Redacted:    result.Redacted,
		ByCategory:  result.ByCategory,
		Total:       result.Total,
		ContainsPII: result.HasMatches(),
	})
}

func (s *Server) handleRedactBatch(c echo.Context) error {
	var req RedactBatchRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	redacted := s.svc.Engines.Current().Redactor.RedactAll(req.Texts)
	if redacted == nil {
		redacted = []string{}
	}
	return c.JSON(http.StatusOK, RedactBatchResponse{Redacted: redacted})
}

func (s *Server) handleContainsPII(c echo.Context) error {
	var req TextRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ContainsPIIResponse{
		ContainsPII: s.svc.Engines.Current().Redactor.ContainsPII(req.Text),
	})
}

// handleExtract extracts candidate facts from the redacted form of the
// transcript. Nothing is stored.
func (s *Server) handleExtract(c echo.Context) error {
	var req TextRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	engines := s.svc.Engines.Current()
	items := engines.Extractor.Extract(engines.Redactor.Redact(req.Text))
	return c.JSON(http.StatusOK, ExtractResponse{Items: items})
}

func (s *Server) handleIngest(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	var req IngestRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := s.svc.Ingest.Ingest(c.Request().Context(), ingest.Request{
		UserID: uid,
		Title:  req.Title,
		Text:   req.Text,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, IngestResponse{
		Conversation: toConversationResponse(result.Conversation),
		Facts:        toFactResponses(result.Facts),
	})
}

func (s *Server) handleListFacts(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	facts, err := s.svc.Ingest.ListFacts(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, FactsResponse{Facts: toFactResponses(facts)})
}

func (s *Server) handleReextract(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	result, err := s.svc.Ingest.Reextract(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, IngestResponse{
		Conversation: toConversationResponse(result.Conversation),
		Facts:        toFactResponses(result.Facts),
	})
}

func (s *Server) handleCreateHub(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	var req CreateHubRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()
	hub := store.Hub{
		ID:                 id,
		UserID:             uid,
		Title:              req.Title,
		RelationalMetadata: store.UnionAttributes(nil, req.RelationalMetadata),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.svc.Hubs.CreateHub(c.Request().Context(), hub); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toHubResponse(hub))
}

func (s *Server) handleCreateEvent(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	var req CreateEventRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.StartAt.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "start_at is required")
	}
	if req.EndAt.IsZero() {
		req.EndAt = req.StartAt
	}
	if req.EndAt.Before(req.StartAt) {
		return echo.NewHTTPError(http.StatusBadRequest, "end_at must not precede start_at")
	}

	ctx := c.Request().Context()
	hubID := strings.TrimSpace(req.HubID)
	if hubID != "" {
		hub, err := s.svc.Hubs.GetHub(ctx, hubID)
		if err != nil {
			return toHTTPError(err)
		}
		if hub.UserID != uid {
			return echo.NewHTTPError(http.StatusNotFound, store.ErrNotFound.Error())
		}
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	}
	event := store.Event{
		ID:       id,
		UserID:   uid,
		HubID:    hubID,
		Title:    req.Title,
		Location: req.Location,
		StartAt:  req.StartAt.UTC(),
		EndAt:    req.EndAt.UTC(),
		IsAnchor: req.IsAnchor,
	}
	if err := s.svc.Events.CreateEvent(ctx, event); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toEventResponse(event))
}

func (s *Server) handleCandidates(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	candidates, err := s.svc.Ranker.GenerateCandidates(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	if candidates == nil {
		candidates = []review.Candidate{}
	}
	return c.JSON(http.StatusOK, CandidatesResponse{Candidates: candidates})
}

func (s *Server) handlePromote(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	var body PromoteRequestBody
	if c.Request().ContentLength != 0 {
		if err := bind(c, &body); err != nil {
			return err
		}
	}
	result, err := s.svc.Promoter.Promote(c.Request().Context(), review.PromoteRequest{
		UserID:     uid,
		EventID:    c.Param("id"),
		Metadata:   body.Metadata,
		Attributes: body.Attributes,
	})
	if err != nil {
		return toHTTPError(err)
	}
	resp := PromoteResponse{
		Signal:      toSignalResponse(result.Signal),
		HubMetadata: result.HubMetadata,
	}
	if result.PropagationError != nil {
		resp.PropagationError = result.PropagationError.Error()
	}
	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleDismiss(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	if err := s.svc.Dismisser.Dismiss(c.Request().Context(), uid, c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleWisdom(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	entries, err := s.svc.Wisdom.ListWisdom(c.Request().Context(), uid)
	if err != nil {
		return toHTTPError(err)
	}
	out := make([]WisdomEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, WisdomEntryResponse{
			Attribute:       e.Attribute,
			Occurrences:     e.Occurrences,
			LastSourceTitle: e.LastSourceTitle,
			UpdatedAt:       e.UpdatedAt,
		})
	}
	return c.JSON(http.StatusOK, WisdomResponse{Entries: out})
}
