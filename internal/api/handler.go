package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog"

	"github.com/regdoc/answer-agent/internal/guardrails"
	"github.com/regdoc/answer-agent/internal/middleware"
	"github.com/regdoc/answer-agent/internal/pipeline"
)

type QueryRequest struct {
	Question string `json:"question" description:"The question to answer from the document corpus"`
}

type HealthResponse struct {
	Status  string `json:"status" description:"Service status"`
	Version string `json:"version" description:"API version"`
}

type Handler struct {
	pipeline *pipeline.Pipeline
	logger   *zerolog.Logger
}

func NewHandler(p *pipeline.Pipeline, logger *zerolog.Logger) *Handler {
	return &Handler{
		pipeline: p,
		logger:   logger,
	}
}

// Answer handles POST /chat/answer
func (h *Handler) Answer(req *restful.Request, resp *restful.Response) {
	var queryRequest QueryRequest

	if err := req.ReadEntity(&queryRequest); err != nil {
		h.logger.Error().Err(err).Msg("failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(queryRequest.Question) == "" {
		middleware.HandleError(resp, errors.New("question is required"), http.StatusUnprocessableEntity)
		return
	}

	ctx := req.Request.Context()

	answer, err := h.pipeline.Answer(ctx, queryRequest.Question)
	if err != nil {
		var v *guardrails.Violation
		if errors.As(err, &v) {
			middleware.HandleError(resp, err, http.StatusBadRequest)
			return
		}
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, answer)
}

// Health handles GET /health
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	resp.WriteHeaderAndEntity(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	})
}
