// Package httptransport is the thin HTTP layer over the engine. Handlers
// decode, delegate, and encode; privacy and progress decisions all live below.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pathway/internal/adapt"
	"pathway/internal/aggregate"
	"pathway/internal/consent"
	"pathway/internal/engine"
	"pathway/internal/event"
	"pathway/internal/ledger"
	"pathway/internal/platform/middleware"
	procmetrics "pathway/internal/platform/metrics"
	id "pathway/pkg/domain"
	dErrors "pathway/pkg/domain-errors"
	"pathway/pkg/requestcontext"
)

// maxBatchSize caps one batch submission.
const maxBatchSize = 500

// EngineService is the pipeline surface the event and recommendation
// endpoints need.
type EngineService interface {
	Ingest(ctx context.Context, raw event.RawEvent) (engine.IngestResult, error)
	IngestBatch(ctx context.Context, raws []event.RawEvent) ([]engine.BatchItem, error)
	Recommend(ctx context.Context, ref id.StudentRef, objectiveID id.ObjectiveID) (adapt.Directive, error)
}

// ProgressService serves per-student progress reads.
type ProgressService interface {
	GetProgress(ctx context.Context, ref id.StudentRef, objectiveID id.ObjectiveID) (*ledger.ProgressState, error)
}

// AggregateService serves anonymous cohort reads.
type AggregateService interface {
	GetAggregate(ctx context.Context, objectiveID id.ObjectiveID, cohortKey id.CohortKey) (aggregate.CohortAggregate, error)
}

// ConsentService manages consent records for the authenticated student.
type ConsentService interface {
	Grant(ctx context.Context, ref id.StudentRef, tier id.PrivacyTier, ttl time.Duration, parental bool) (consent.Record, error)
	Get(ctx context.Context, ref id.StudentRef) (consent.Record, error)
	Revoke(ctx context.Context, ref id.StudentRef) error
}

// Handler handles all engine endpoints.
type Handler struct {
	logger     *slog.Logger
	engine     EngineService
	progress   ProgressService
	aggregates AggregateService
	consents   ConsentService
	tokens     middleware.TokenValidator
	metrics    *procmetrics.Metrics
	limiter    *middleware.Limiter
}

func New(
	engineSvc EngineService,
	progress ProgressService,
	aggregates AggregateService,
	consents ConsentService,
	tokens middleware.TokenValidator,
	m *procmetrics.Metrics,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		logger:     logger,
		engine:     engineSvc,
		progress:   progress,
		aggregates: aggregates,
		consents:   consents,
		tokens:     tokens,
		metrics:    m,
	}
}

// WithRateLimit enables the per-student request budget. Nil limiter leaves
// rate limiting off.
func (h *Handler) WithRateLimit(limiter *middleware.Limiter) *Handler {
	h.limiter = limiter
	return h
}

// Routes assembles the router: health is open, everything under /v1 requires
// a bearer token carrying the student's pseudonymous ref.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	if h.metrics != nil {
		r.Use(middleware.Metrics(h.metrics.HTTPRequests, h.metrics.HTTPRequestDuration))
	}

	r.Get("/healthz", h.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.tokens, h.logger))
		if h.limiter != nil {
			r.Use(middleware.RateLimit(h.limiter, h.logger))
		}

		r.Post("/events", h.handleIngestEvent)
		r.Post("/events/batch", h.handleIngestBatch)
		r.Get("/progress/{objectiveID}", h.handleGetProgress)
		r.Get("/recommendations/{objectiveID}", h.handleRecommend)
		r.Get("/aggregates/{objectiveID}/{cohortKey}", h.handleGetAggregate)

		r.Post("/consent", h.handleGrantConsent)
		r.Get("/consent", h.handleGetConsent)
		r.Delete("/consent", h.handleRevokeConsent)
	})
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authedRef returns the student ref RequireAuth put into the context.
func (h *Handler) authedRef(w http.ResponseWriter, r *http.Request) (id.StudentRef, bool) {
	ref := requestcontext.StudentRef(r.Context())
	if ref.IsZero() {
		h.logger.ErrorContext(r.Context(), "student ref missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(r.Context()),
		)
		WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "token carries no student ref"))
		return "", false
	}
	return ref, true
}

func (h *Handler) handleIngestEvent(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.authedRef(w, r)
	if !ok {
		return
	}

	var raw event.RawEvent
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	// The event belongs to whoever the token says, not whoever the body
	// claims.
	raw.StudentRef = ref.String()

	result, err := h.engine.Ingest(r.Context(), raw)
	if err != nil {
		h.logIngestError(r, err)
		WriteError(w, err)
		return
	}
	writeJSON(w, statusForIngest(result.Status), ingestResponse(result))
}

type batchRequest struct {
	Events []event.RawEvent `json:"events"`
}

type batchEntryResponse struct {
	Index  int     `json:"index"`
	Status string  `json:"status,omitempty"`
	Error  *string `json:"error,omitempty"`
}

func (h *Handler) handleIngestBatch(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.authedRef(w, r)
	if !ok {
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if len(req.Events) == 0 {
		WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "batch contains no events"))
		return
	}
	if len(req.Events) > maxBatchSize {
		WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "batch exceeds maximum size"))
		return
	}
	for i := range req.Events {
		req.Events[i].StudentRef = ref.String()
	}

	items, err := h.engine.IngestBatch(r.Context(), req.Events)
	if err != nil {
		WriteError(w, err)
		return
	}

	entries := make([]batchEntryResponse, 0, len(items))
	for _, item := range items {
		entry := batchEntryResponse{Index: item.Index}
		if item.Err != nil {
			code := string(dErrors.CodeOf(item.Err))
			entry.Error = &code
		} else {
			entry.Status = string(item.Result.Status)
		}
		entries = append(entries, entry)
	}
	writeJSON(w, http.StatusMultiStatus, map[string]any{"results": entries})
}

// sectionResponse and progressResponse expose the progress state without its
// internal bookkeeping (replay fingerprints stay server-side).
type sectionResponse struct {
	TimeSpentMs      int64      `json:"timeSpentMs"`
	InteractionCount int        `json:"interactionCount"`
	Completed        bool       `json:"completed"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	Mastery          float64    `json:"mastery"`
}

type progressResponse struct {
	ObjectiveID      string                     `json:"objectiveId"`
	TimeSpentMs      int64                      `json:"timeSpentMs"`
	InteractionCount int                        `json:"interactionCount"`
	MasteryScore     float64                    `json:"masteryScore"`
	LastUpdated      time.Time                  `json:"lastUpdated"`
	Sections         map[string]sectionResponse `json:"sections"`
}

func toProgressResponse(state *ledger.ProgressState) progressResponse {
	resp := progressResponse{
		ObjectiveID:      state.ObjectiveID.String(),
		TimeSpentMs:      state.TimeSpentMs,
		InteractionCount: state.InteractionCount,
		MasteryScore:     state.MasteryScore,
		LastUpdated:      state.LastUpdated,
		Sections:         make(map[string]sectionResponse, len(state.Sections)),
	}
	for sectionID, section := range state.Sections {
		entry := sectionResponse{
			TimeSpentMs:      section.TimeSpentMs,
			InteractionCount: section.InteractionCount,
			Completed:        section.Completed,
			Mastery:          section.Mastery,
		}
		if !section.CompletedAt.IsZero() {
			at := section.CompletedAt
			entry.CompletedAt = &at
		}
		resp.Sections[sectionID.String()] = entry
	}
	return resp
}

func (h *Handler) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.authedRef(w, r)
	if !ok {
		return
	}
	objectiveID, err := id.ParseObjectiveID(chi.URLParam(r, "objectiveID"))
	if err != nil {
		WriteError(w, err)
		return
	}

	state, err := h.progress.GetProgress(r.Context(), ref, objectiveID)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProgressResponse(state))
}

func (h *Handler) handleRecommend(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.authedRef(w, r)
	if !ok {
		return
	}
	objectiveID, err := id.ParseObjectiveID(chi.URLParam(r, "objectiveID"))
	if err != nil {
		WriteError(w, err)
		return
	}

	directive, err := h.engine.Recommend(r.Context(), ref, objectiveID)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, directive)
}

func (h *Handler) handleGetAggregate(w http.ResponseWriter, r *http.Request) {
	objectiveID, err := id.ParseObjectiveID(chi.URLParam(r, "objectiveID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	cohortKey, err := id.ParseCohortKey(chi.URLParam(r, "cohortKey"))
	if err != nil {
		WriteError(w, err)
		return
	}

	agg, err := h.aggregates.GetAggregate(r.Context(), objectiveID, cohortKey)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

type grantConsentRequest struct {
	Tier                    string `json:"tier"`
	TTLSeconds              int64  `json:"ttlSeconds,omitempty"`
	ParentalConsentRequired bool   `json:"parentalConsentRequired,omitempty"`
}

type consentResponse struct {
	Tier      string     `json:"tier"`
	GrantedAt *time.Time `json:"grantedAt,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Revoked   bool       `json:"revoked"`
}

func toConsentResponse(record consent.Record) consentResponse {
	resp := consentResponse{
		Tier:    record.Tier.String(),
		Revoked: record.RevokedAt != nil,
	}
	if !record.GrantedAt.IsZero() {
		at := record.GrantedAt
		resp.GrantedAt = &at
	}
	if !record.ExpiresAt.IsZero() {
		at := record.ExpiresAt
		resp.ExpiresAt = &at
	}
	return resp
}

func (h *Handler) handleGrantConsent(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.authedRef(w, r)
	if !ok {
		return
	}

	var req grantConsentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	tier, err := id.ParsePrivacyTier(req.Tier)
	if err != nil {
		WriteError(w, err)
		return
	}

	record, err := h.consents.Grant(r.Context(), ref, tier,
		time.Duration(req.TTLSeconds)*time.Second, req.ParentalConsentRequired)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to grant consent",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toConsentResponse(record))
}

func (h *Handler) handleGetConsent(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.authedRef(w, r)
	if !ok {
		return
	}
	record, err := h.consents.Get(r.Context(), ref)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toConsentResponse(record))
}

func (h *Handler) handleRevokeConsent(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.authedRef(w, r)
	if !ok {
		return
	}
	if err := h.consents.Revoke(r.Context(), ref); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to revoke consent",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusForIngest maps terminal pipeline outcomes onto statuses: applied and
// aggregate-only are 202 (accepted for processing), duplicates are 200 (the
// state already reflects the event), denials are 403 with a success envelope
// so callers can distinguish "discarded by policy" from an error.
func statusForIngest(status engine.IngestStatus) int {
	switch status {
	case engine.IngestConsentDenied:
		return http.StatusForbidden
	case engine.IngestDuplicate:
		return http.StatusOK
	default:
		return http.StatusAccepted
	}
}

type ingestResponseBody struct {
	Status   string            `json:"status"`
	Tier     string            `json:"tier"`
	Progress *progressResponse `json:"progress,omitempty"`
	Check    *completionBody   `json:"completion,omitempty"`
}

type completionBody struct {
	SectionID string   `json:"sectionId"`
	Completed bool     `json:"completed"`
	Unmet     []string `json:"unmet,omitempty"`
}

func ingestResponse(result engine.IngestResult) ingestResponseBody {
	body := ingestResponseBody{
		Status: string(result.Status),
		Tier:   result.Tier.String(),
	}
	if result.Progress != nil {
		resp := toProgressResponse(result.Progress)
		body.Progress = &resp

		check := completionBody{
			SectionID: result.Check.SectionID.String(),
			Completed: result.Check.Completed,
		}
		for _, criterion := range result.Check.Unmet {
			check.Unmet = append(check.Unmet, string(criterion))
		}
		body.Check = &check
	}
	return body
}

func (h *Handler) logIngestError(r *http.Request, err error) {
	logFn := h.logger.WarnContext
	if dErrors.CodeOf(err) == dErrors.CodeUnavailable || dErrors.CodeOf(err) == dErrors.CodeInternal {
		logFn = h.logger.ErrorContext
	}
	logFn(r.Context(), "event ingest failed",
		"request_id", middleware.GetRequestID(r.Context()),
		"error", err.Error(),
	)
}
