package rest_api

import (
	"io"
	log "log/slog"
	"net/http"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"github.com/biaslens/biaslens"
	"github.com/biaslens/biaslens/service"
)

// ProcessRequest is a piece of text (optionally backed by a URL) to classify.
type ProcessRequest struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	URL  string `json:"url"`
}

// ProcessResponse answers a submission: either the classification, or a
// processing acknowledgment carrying the job hash.
type ProcessResponse struct {
	Success    bool            `json:"success"`
	Processing bool            `json:"processing"`
	Hash       string          `json:"hash,omitempty"`
	Bias       biaslens.Bias   `json:"bias,omitempty"`
	Extent     biaslens.Extent `json:"extent,omitempty"`
}

// ProcessedResponse answers a poll for a completed job.
type ProcessedResponse struct {
	Success bool            `json:"success"`
	Hash    string          `json:"hash"`
	Bias    biaslens.Bias   `json:"bias"`
	Extent  biaslens.Extent `json:"extent"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Process godoc
// @Summary Classify a piece of text
// @Description Analyze a given piece of text to find the bias. Text already
// @Description processed (or in flight) for the same content id is answered
// @Description from the job store without reclassification. Depending on the
// @Description deployed strategy the result is returned directly or a
// @Description processing acknowledgment with the job hash is returned.
// @Tags process
// @Accept json
// @Produce json
// @Param request body ProcessRequest true "text to classify"
// @Success 200 {object} ProcessResponse
// @Failure 400 {object} map[string]any
// @Failure 502 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /process [post]
func (s *Server) Process(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	res, err := s.submission.Submit(c.Request.Context(), service.SubmitRequest{
		ID:   req.ID,
		Text: req.Text,
		URL:  req.URL,
	})
	if err != nil {
		status := errorStatus(err)
		log.Error("submission failed", "status", status, "error", err)
		c.JSON(status, errorResponse{Error: "classification unavailable"})
		return
	}

	if res.Processing {
		c.JSON(http.StatusOK, ProcessResponse{Success: true, Processing: true, Hash: res.Hash})
		return
	}
	c.JSON(http.StatusOK, ProcessResponse{
		Success: true,
		Hash:    res.Hash,
		Bias:    res.Bias,
		Extent:  res.Extent,
	})
}

// Processed godoc
// @Summary Retrieve a processed job by its hash
// @Description Query the job store for a completed classification based on
// @Description its job hash. A job still being processed and an unknown hash
// @Description both respond 404.
// @Tags process
// @Produce json
// @Param hash path string true "job hash"
// @Success 200 {object} ProcessedResponse
// @Failure 404 {object} map[string]any
// @Router /process/{hash} [get]
func (s *Server) Processed(c *gin.Context) {
	hash := c.Param("hash")
	rec, found, err := s.retrieval.Poll(c.Request.Context(), hash)
	if err != nil {
		status := errorStatus(err)
		log.Error("poll failed", "hash", hash, "status", status, "error", err)
		c.JSON(status, errorResponse{Error: "job store unavailable"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, errorResponse{})
		return
	}
	c.JSON(http.StatusOK, ProcessedResponse{
		Success: true,
		Hash:    hash,
		Bias:    rec.Bias,
		Extent:  rec.Extent,
	})
}

// Events godoc
// @Summary Stream job completions
// @Description Server-sent event stream of completion events, emitted as
// @Description queued jobs finish. No replay: events emitted while a
// @Description subscriber is disconnected are missed.
// @Tags process
// @Produce text/event-stream
// @Success 200 {string} string "data: {hash, bias, extent}"
// @Router /events [get]
func (s *Server) Events(c *gin.Context) {
	id, ch := s.retrieval.Subscribe()
	defer s.retrieval.Unsubscribe(id)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-ch:
			if !ok {
				return false
			}
			if err := sse.Encode(w, sse.Event{Data: event}); err != nil {
				return false
			}
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// Health godoc
// @Summary Service health
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Router /healthz [get]
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "OK",
		"service":     "biaslens",
		"subscribers": s.broadcaster.SubscriberCount(),
	})
}

// errorStatus maps the biaslens error taxonomy onto HTTP statuses.
func errorStatus(err error) int {
	switch {
	case biaslens.IsErrorCode(err, biaslens.ClassificationFailed),
		biaslens.IsErrorCode(err, biaslens.MalformedClassifierOutput):
		return http.StatusBadGateway
	case biaslens.IsErrorCode(err, biaslens.StorageUnavailable),
		biaslens.IsErrorCode(err, biaslens.QueueUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
