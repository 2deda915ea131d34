package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/jonathan/privacy-lens/internal/classify"
	"github.com/jonathan/privacy-lens/internal/pipeline"
	"github.com/jonathan/privacy-lens/internal/scoring"
	"github.com/jonathan/privacy-lens/internal/types"
)

// maxBatchURLs bounds POST /detect.
const maxBatchURLs = 20

// AnalyzeResponse represents the response for /analyze
type AnalyzeResponse struct {
	Success bool        `json:"success"`
	Site    *types.Site `json:"site"`
	Warning string      `json:"warning,omitempty"`
	Cached  bool        `json:"cached"`
}

// DetectRequest represents the request body for /detect
type DetectRequest struct {
	URLs    []string `json:"urls"`
	Options struct {
		SimulateInteractions bool `json:"simulateInteractions"`
		IncludeFirstParty    bool `json:"includeFirstParty"`
	} `json:"options"`
}

// DetectResponse represents the response for /detect
type DetectResponse struct {
	Success bool                `json:"success"`
	Results []types.BatchRecord `json:"results"`
}

// WhatIfRequest represents the request body for /score/what-if
type WhatIfRequest struct {
	URL        string           `json:"url"`
	PolicyText string           `json:"policyText,omitempty"`
	Trackers   []string         `json:"trackers"`
	Summary    *types.AISummary `json:"summary,omitempty"`
	// Blocked lists the tracker categories the user blocks.
	Blocked []string `json:"blocked"`
}

// WhatIfResponse represents the response for /score/what-if
type WhatIfResponse struct {
	Score             int               `json:"score"`
	Grade             string            `json:"grade"`
	Category          string            `json:"category"`
	RemainingTrackers []string          `json:"remainingTrackers"`
	Breakdown         scoring.Breakdown `json:"breakdown"`
}

// handleAnalyze runs or returns a cached analysis
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeAnalysisRequest(w, r)
	if !ok {
		return
	}

	out, err := s.analyzer.AnalyzeSite(r.Context(), req)
	if err != nil {
		log.Printf("Analysis of %s failed: %v", req.URL, err)
		s.errorDetails(w, err, "Analysis failed")
		return
	}

	s.jsonResponse(w, http.StatusOK, analyzeResponse(out))
}

// handleAnalyzeStream runs an analysis and streams progress via SSE
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeAnalysisRequest(w, r)
	if !ok {
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	ctx := pipeline.ContextWithProgress(r.Context(), func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent("step", event); err != nil {
			log.Printf("Error writing SSE event: %v", err)
		}
	})

	stopPing := sse.KeepAlive(s.heartbeat)
	out, err := s.analyzer.AnalyzeSite(ctx, req)
	stopPing()
	if err != nil {
		log.Printf("Analysis of %s failed: %v", req.URL, err)
		sse.WriteError(err.Error())
		return
	}

	sse.WriteComplete(analyzeResponse(out))
}

func analyzeResponse(out *pipeline.Outcome) AnalyzeResponse {
	return AnalyzeResponse{
		Success: true,
		Site:    out.Site,
		Warning: out.Warning,
		Cached:  out.Cached,
	}
}

func (s *Server) decodeAnalysisRequest(w http.ResponseWriter, r *http.Request) (types.AnalysisRequest, bool) {
	var req types.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return req, false
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		s.errorResponse(w, http.StatusBadRequest, "url is required")
		return req, false
	}
	if err := req.Validate(); err != nil {
		s.errorDetails(w, &ErrValidation{Field: "request", Message: err.Error()}, "Invalid analysis request")
		return req, false
	}
	return req, true
}

// handleGetSite returns the stored analysis for ?url=
func (s *Server) handleGetSite(w http.ResponseWriter, r *http.Request) {
	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if url == "" {
		s.errorResponse(w, http.StatusBadRequest, "url query parameter is required")
		return
	}
	if s.sites == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Storage is not configured")
		return
	}

	site, err := s.sites.FindByURL(r.Context(), url)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if site == nil {
		s.errorDetails(w, &ErrSiteNotFound{URL: url}, "Site not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, site)
}

// handleDetect runs raw tracker detection over a batch of URLs
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.URLs) == 0 {
		s.errorResponse(w, http.StatusBadRequest, "urls is required")
		return
	}
	if len(req.URLs) > maxBatchURLs {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("at most %d urls per request", maxBatchURLs))
		return
	}
	if s.detector == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Detection is not configured")
		return
	}

	opts := s.detectOptions
	opts.SimulateInteractions = req.Options.SimulateInteractions
	opts.IncludeFirstParty = req.Options.IncludeFirstParty

	results := s.detector.DetectBatch(r.Context(), req.URLs, opts)
	s.jsonResponse(w, http.StatusOK, DetectResponse{Success: true, Results: results})
}

// handleWhatIf recomputes a score with some tracker categories blocked
func (s *Server) handleWhatIf(w http.ResponseWriter, r *http.Request) {
	var req WhatIfRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	blocked := make([]types.TrackerCategory, 0, len(req.Blocked))
	for _, c := range req.Blocked {
		if !types.ValidTrackerCategory(c) {
			s.errorDetails(w, &ErrValidation{Field: "blocked", Message: fmt.Sprintf("unknown category %q", c)}, "Invalid what-if request")
			return
		}
		blocked = append(blocked, types.TrackerCategory(c))
	}

	in := scoring.Input{
		URL:        req.URL,
		PolicyText: req.PolicyText,
		Trackers:   req.Trackers,
		Summary:    req.Summary,
	}
	result := scoring.WhatIf(in, blocked)

	remaining := scoring.RemainingTrackers(req.Trackers, blocked)
	s.jsonResponse(w, http.StatusOK, WhatIfResponse{
		Score:             result.Score,
		Grade:             result.Grade,
		Category:          result.Category,
		RemainingTrackers: remaining,
		Breakdown:         result.Breakdown,
	})
}

// handleClassify classifies ?host=, relative to ?site= when given
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	host := strings.TrimSpace(q.Get("host"))
	if host == "" {
		s.errorResponse(w, http.StatusBadRequest, "host query parameter is required")
		return
	}

	var c types.TrackerClassification
	if site := strings.TrimSpace(q.Get("site")); site != "" {
		c = classify.ClassifyForSite(host, site)
	} else {
		c = classify.Classify(host)
	}
	s.jsonResponse(w, http.StatusOK, c)
}
