package daemon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/theirongolddev/gptrecap/internal/charts"
	"github.com/theirongolddev/gptrecap/internal/report"
	"github.com/theirongolddev/gptrecap/internal/story"
)

// tablePayload is the JSON form of a recap table.
type tablePayload struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Get("/", s.handleStory)
	r.Get("/charts/{name}", s.handleChart)
	// The story page links charts relative to itself.
	r.Get("/{name}", s.handleChart)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/tables/{name}", s.handleTable)
		r.Get("/events", s.handleEvents)
		r.Get("/stream", s.handleStream)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.snapshotStatus())
}

func (s *Service) handleStory(w http.ResponseWriter, _ *http.Request) {
	res := s.latest()
	if res == nil {
		http.Error(w, "no recap yet", http.StatusServiceUnavailable)
		return
	}

	sctx := story.BuildContext(res)
	if n := s.cfg.Recap.TopConversations; n > 0 {
		sctx.TopConversations = story.TopConversations(res, n)
	}
	linked := make(map[string]string, len(charts.FileNames))
	for _, name := range charts.FileNames {
		linked[name] = name
	}

	var buf bytes.Buffer
	if err := story.RenderHTML(&buf, sctx, linked); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Service) handleChart(w http.ResponseWriter, r *http.Request) {
	res := s.latest()
	if res == nil {
		http.Error(w, "no recap yet", http.StatusServiceUnavailable)
		return
	}
	data, err := charts.Render(chi.URLParam(r, "name"), res)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(data)
}

func (s *Service) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	res := s.latest()
	if res == nil {
		http.Error(w, "no recap yet", http.StatusServiceUnavailable)
		return
	}
	data, err := report.MarshalMetrics(res.Metrics)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Service) handleTable(w http.ResponseWriter, r *http.Request) {
	res := s.latest()
	if res == nil {
		http.Error(w, "no recap yet", http.StatusServiceUnavailable)
		return
	}
	t, ok := report.TableByName(res, chi.URLParam(r, "name"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	rows := t.Rows
	if rows == nil {
		rows = [][]string{}
	}
	writeJSON(w, tablePayload{Name: t.Name, Columns: t.Header, Rows: rows})
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	writeSSE(w, Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}
