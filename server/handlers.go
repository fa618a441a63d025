package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dailyyoga/coinframe/db"
	"github.com/dailyyoga/coinframe/payload"
	"github.com/dailyyoga/coinframe/refresh"
	"github.com/dailyyoga/coinframe/render"
	"go.uber.org/zap"
)

const (
	sourceCache = "cache"
	sourceLive  = "live"
)

type coinResponse struct {
	Source      string         `json:"source"`
	Coin        payload.Coin   `json:"coin"`
	Detail      payload.Detail `json:"detail"`
	GeneratedAt time.Time      `json:"generated_at"`
}

type historyResponse struct {
	Snapshots []db.Snapshot `json:"snapshots"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRandomCoin(w http.ResponseWriter, r *http.Request) {
	p, outcome, err := s.resolver.Resolve(r.Context(), s.cfg.Selector)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	source := sourceCache
	if outcome == refresh.OutcomeRefreshed {
		source = sourceLive
	}
	writeJSON(w, http.StatusOK, coinResponse{
		Source:      source,
		Coin:        p.Subject,
		Detail:      p.Detail,
		GeneratedAt: p.GeneratedAt,
	})
}

func (s *Server) handleFrameImage(w http.ResponseWriter, r *http.Request) {
	s.serveImage(w, r, s.cfg.Selector)
}

func (s *Server) handleOG(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing id"})
		return
	}

	days := s.cfg.OGDays
	if raw := q.Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > payload.MaxChartDays {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error: fmt.Sprintf("days must be an integer within 1..%d", payload.MaxChartDays),
			})
			return
		}
		days = n
	}

	s.serveImage(w, r, payload.Exact(id, days))
}

func (s *Server) serveImage(w http.ResponseWriter, r *http.Request, sel payload.Selector) {
	p, _, err := s.resolver.Resolve(r.Context(), sel)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(p.Image) == 0 {
		http.Error(w, "No image available", http.StatusNotFound)
		return
	}

	contentType := p.ImageType
	if contentType == "" {
		contentType = render.ContentType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(p.Image)))
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(s.cfg.CacheMaxAge/time.Second)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(p.Image); err != nil {
		s.logger.Debug("image write aborted", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "history is not enabled"})
		return
	}

	limit := s.cfg.HistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	snapshots, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if snapshots == nil {
		snapshots = []db.Snapshot{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Snapshots: snapshots})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.pinger.Ping(ctx); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	p, _, err := s.resolver.Resolve(r.Context(), s.cfg.Selector)
	if err != nil {
		// the page still renders, with the fallback frame image
		s.logger.Warn("page rendered without a coin", zap.Error(err))
		p = nil
	}

	body, err := s.page.render(s.cfg.BaseURL, s.cfg.OGDays, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// statusFor maps a coordinator error to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, payload.ErrSelector):
		return http.StatusBadRequest
	case errors.Is(err, refresh.ErrRefreshTimedOut):
		return http.StatusServiceUnavailable
	case errors.Is(err, refresh.ErrUpstreamFetch):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", strconv.Itoa(int((s.cfg.RetryAfter+time.Second-1)/time.Second)))
	}

	fields := []zap.Field{zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err)}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", fields...)
	} else {
		s.logger.Warn("request rejected", fields...)
	}

	writeJSON(w, status, errorResponse{Error: publicMessage(status, err)})
}

// publicMessage keeps keys, addresses and upstream bodies out of 5xx responses
func publicMessage(status int, err error) string {
	switch {
	case status < http.StatusInternalServerError:
		return err.Error()
	case errors.Is(err, refresh.ErrRefreshTimedOut):
		return "refresh in progress, retry later"
	case status == http.StatusBadGateway:
		return "upstream data source unavailable"
	case status == http.StatusServiceUnavailable:
		return "request canceled"
	default:
		return "internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
