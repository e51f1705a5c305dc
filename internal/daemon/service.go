// Package daemon serves the latest recap of an export over HTTP and
// regenerates it whenever the export file changes.
package daemon

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/theirongolddev/gptrecap/internal/model"
	"github.com/theirongolddev/gptrecap/internal/recap"
)

// Event types.
const (
	EventRecap    = "recap"
	EventError    = "error"
	EventSnapshot = "snapshot"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Recap        recap.Options
	Addr         string
	Debounce     time.Duration
	EventsBuffer int
}

// Snapshot is a compact recap state for status/event payloads.
type Snapshot struct {
	At             time.Time `json:"at"`
	RunID          string    `json:"run_id,omitempty"`
	Conversations  int       `json:"conversations"`
	Messages       int       `json:"messages"`
	ActiveDays     int       `json:"active_days"`
	AssistantShare float64   `json:"assistant_share"`
	ElapsedMS      int64     `json:"elapsed_ms"`
}

// Delta captures snapshot deltas between runs.
type Delta struct {
	Conversations int `json:"conversations"`
	Messages      int `json:"messages"`
	ActiveDays    int `json:"active_days"`
}

func (d Delta) isZero() bool {
	return d.Conversations == 0 && d.Messages == 0 && d.ActiveDays == 0
}

// Event is emitted after every run.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
	Error     string    `json:"error,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastRunAt       time.Time `json:"last_run_at"`
	RunCount        int64     `json:"run_count"`
	Input           string    `json:"input"`
	OutputDir       string    `json:"output_dir"`
	DebounceMS      int64     `json:"debounce_ms"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// generateFunc matches recap.Generate.
type generateFunc func(context.Context, recap.Options) (*recap.Outcome, error)

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg      Config
	generate generateFunc

	mu          sync.RWMutex
	startedAt   time.Time
	lastRunAt   time.Time
	runCount    int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	result      *model.AnalysisResult
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}

	return &Service{
		cfg:       cfg,
		generate:  recap.Generate,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Run serves HTTP and regenerates on input changes until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	log.Info().Str("addr", s.cfg.Addr).Str("input", s.cfg.Recap.Input).Msg("serving recap")

	w, err := newWatcher(s.cfg.Recap.Input, s.cfg.Debounce)
	if err != nil {
		_ = server.Close()
		return err
	}
	defer func() { _ = w.Close() }()
	go w.Run(ctx)

	// Seed the first recap so every endpoint is useful immediately.
	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-w.C:
			log.Debug().Str("input", s.cfg.Recap.Input).Msg("input changed")
			s.runOnce(ctx)
		case err := <-errCh:
			return errors.Wrap(err, "daemon http server")
		}
	}
}

func (s *Service) runOnce(ctx context.Context) {
	out, err := s.generate(ctx, s.cfg.Recap)
	now := time.Now()
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastRunAt = now
		s.runCount++
		s.nextEventID++
		ev := Event{ID: s.nextEventID, Type: EventError, Timestamp: now, Snapshot: s.snapshot, Error: err.Error()}
		s.mu.Unlock()

		log.Error().Err(err).Str("input", s.cfg.Recap.Input).Msg("recap failed")
		s.publishEvent(ev)
		return
	}

	snap := snapshotFromOutcome(out, now)

	s.mu.Lock()
	var delta Delta
	if s.hasSnapshot {
		delta = diffSnapshots(s.snapshot, snap)
	}
	s.hasSnapshot = true
	s.snapshot = snap
	s.result = out.Result
	s.lastRunAt = now
	s.runCount++
	s.lastError = ""
	s.nextEventID++
	ev := Event{ID: s.nextEventID, Type: EventRecap, Timestamp: now, Snapshot: snap, Delta: delta}
	s.mu.Unlock()

	log.Info().
		Int("messages", snap.Messages).
		Int("conversations", snap.Conversations).
		Bool("changed", !delta.isZero()).
		Msg("recap regenerated")
	s.publishEvent(ev)
}

func snapshotFromOutcome(out *recap.Outcome, at time.Time) Snapshot {
	m := out.Result.Metrics
	snap := Snapshot{
		At:            at,
		Conversations: m.ConversationCount,
		Messages:      m.MessageCountTotal,
		ActiveDays:    m.DateRange.ActiveDays,
		ElapsedMS:     out.Elapsed.Milliseconds(),
	}
	if m.MessageCountTotal > 0 {
		snap.AssistantShare = float64(m.MessagesByRole[model.RoleAssistant]) / float64(m.MessageCountTotal)
	}
	if out.Run != nil {
		snap.RunID = out.Run.ID
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Conversations: curr.Conversations - prev.Conversations,
		Messages:      curr.Messages - prev.Messages,
		ActiveDays:    curr.ActiveDays - prev.ActiveDays,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastRunAt:       s.lastRunAt,
		RunCount:        s.runCount,
		Input:           s.cfg.Recap.Input,
		OutputDir:       s.cfg.Recap.OutputDir,
		DebounceMS:      s.cfg.Debounce.Milliseconds(),
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) latest() *model.AnalysisResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// NewLogFile returns a size-rotated log file writer.
func NewLogFile(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
}
