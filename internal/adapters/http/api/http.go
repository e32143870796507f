// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/gigmatch/internal/domain/engagement"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/ranking"
	"github.com/okian/gigmatch/internal/domain/types"
	"github.com/okian/gigmatch/pkg/logger"
)

const (
	defaultMaxBodyBytes = 8 << 20
	smallBodyBytes      = 64 << 10
)

// WeightDependencies covers the weight vector endpoints.
type WeightDependencies interface {
	ParseWeights(raw []byte) (model.Weights, error)
	GetWeights(ctx context.Context, gigID string) (types.WeightsView, error)
	PutWeights(ctx context.Context, gigID string, w model.Weights) (types.WeightsView, error)
	DeleteWeights(ctx context.Context, gigID string) error
}

// RankDependencies covers the ranking endpoint.
type RankDependencies interface {
	Rank(ctx context.Context, gigID string, req types.RankRequest) (ranking.Result, error)
}

// EngagementDependencies covers the engagement endpoints.
type EngagementDependencies interface {
	CreateEngagement(ctx context.Context, req engagement.CreateRequest) (engagement.Engagement, error)
	UpdateEngagement(ctx context.Context, id string, upd types.EngagementUpdate) (engagement.Engagement, error)
	GetEngagement(ctx context.Context, id string) (engagement.Engagement, error)
	ListGigEngagements(ctx context.Context, gigID, statuses, cohort string) ([]engagement.Engagement, error)
	ListAgentEngagements(ctx context.Context, agentID, statuses, cohort string) ([]engagement.Engagement, error)
}

// Dependencies required by HTTP handlers.
type Dependencies interface {
	WeightDependencies
	RankDependencies
	EngagementDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	weightsHandler    *WeightsHandler
	rankHandler       *RankHandler
	engagementHandler *EngagementHandler
}

// Option applies a configuration option to the Server.
type Option func(*serverOptions)

type serverOptions struct {
	maxBodyBytes int64
	logger       logger.Logger
}

// WithMaxBodyBytes caps the size of a rank request body.
func WithMaxBodyBytes(n int64) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxBodyBytes = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	o := &serverOptions{maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("api")
	}
	rw := responder{logger: o.logger}

	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(deps),
		weightsHandler:    &WeightsHandler{deps: deps, rw: rw},
		rankHandler:       &RankHandler{deps: deps, rw: rw, maxBody: o.maxBodyBytes},
		engagementHandler: &EngagementHandler{deps: deps, rw: rw},
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /gigs/{gigId}/weights", MetricsMiddleware(s.weightsHandler.HandleGet, "weights"))
	mux.HandleFunc("PUT /gigs/{gigId}/weights", MetricsMiddleware(s.weightsHandler.HandlePut, "weights"))
	mux.HandleFunc("DELETE /gigs/{gigId}/weights", MetricsMiddleware(s.weightsHandler.HandleDelete, "weights"))

	mux.HandleFunc("POST /gigs/{gigId}/rank", MetricsMiddleware(s.rankHandler.HandleRank, "rank"))

	mux.HandleFunc("POST /engagements", MetricsMiddleware(s.engagementHandler.HandleCreate, "engagements"))
	mux.HandleFunc("GET /engagements/{id}", MetricsMiddleware(s.engagementHandler.HandleGet, "engagement"))
	mux.HandleFunc("PATCH /engagements/{id}", MetricsMiddleware(s.engagementHandler.HandleUpdate, "engagement"))
	mux.HandleFunc("GET /gigs/{gigId}/engagements", MetricsMiddleware(s.engagementHandler.HandleListByGig, "gig_engagements"))
	mux.HandleFunc("GET /agents/{agentId}/engagements", MetricsMiddleware(s.engagementHandler.HandleListByAgent, "agent_engagements"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// responder maps domain errors to responses and logs server-side failures.
type responder struct {
	logger logger.Logger
}

func (rw responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		rw.logger.Error(r.Context(), "request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
		writeError(w, status, code, nil)
		return
	}
	writeError(w, status, code, err)
}

// readBody reads at most limit bytes of the request body.
func readBody(w http.ResponseWriter, r *http.Request, op string, limit int64) ([]byte, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, WrapKind(op, ErrBodyTooBig, fmt.Errorf("limit is %d bytes", tooBig.Limit))
		}
		return nil, WrapKind(op, ErrBadRequest, err)
	}
	return raw, nil
}

// decodeBody decodes a JSON body of at most limit bytes into v.
func decodeBody(w http.ResponseWriter, r *http.Request, op string, limit int64, v any) error {
	raw, err := readBody(w, r, op, limit)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}
