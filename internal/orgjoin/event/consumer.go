package event

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shandysiswandi/orgjoin/internal/orgjoin/entity"
)

type Handler interface {
	Handle(ctx context.Context, event entity.UnresolvedEvent) error
}

// UnresolvedConsumer drains the bus with a fixed worker pool. Each EventID
// is handled at most once among the last SeenWindow events, and failed
// attempts are retried with exponential backoff until Stop.
type UnresolvedConsumer struct {
	bus         *Bus
	handler     Handler
	workers     int
	maxRetries  int
	baseBackoff time.Duration
	seen        *seenSet
	quit        chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

type ConsumerConfig struct {
	Workers     int
	MaxRetries  int
	BaseBackoff time.Duration
	// SeenWindow bounds the ids remembered for de-duplication; 0 means 1024.
	SeenWindow int
}

func NewUnresolvedConsumer(bus *Bus, handler Handler, cfg ConsumerConfig) *UnresolvedConsumer {
	if cfg.Workers < 1 {
		cfg.Workers = 2
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 100 * time.Millisecond
	}
	if cfg.SeenWindow < 1 {
		cfg.SeenWindow = 1024
	}

	return &UnresolvedConsumer{
		bus:         bus,
		handler:     handler,
		workers:     cfg.Workers,
		maxRetries:  cfg.MaxRetries,
		baseBackoff: cfg.BaseBackoff,
		seen:        newSeenSet(cfg.SeenWindow),
		quit:        make(chan struct{}),
	}
}

func (c *UnresolvedConsumer) Start() {
	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker()
	}
}

// Stop closes the bus, lets workers drain what is queued and waits until ctx
// is done. Once ctx is done pending retries are abandoned.
func (c *UnresolvedConsumer) Stop(ctx context.Context) error {
	if c.bus != nil {
		c.bus.Close()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		c.stopOnce.Do(func() { close(c.quit) })
		return ctx.Err()
	}
}

func (c *UnresolvedConsumer) worker() {
	defer c.wg.Done()

	for event := range c.bus.Subscribe() {
		c.processEvent(event)
	}
}

func (c *UnresolvedConsumer) processEvent(event entity.UnresolvedEvent) {
	if c.handler == nil {
		return
	}

	if event.EventID != "" && !c.seen.add(event.EventID) {
		slog.Info("skip duplicate unresolved event", "event_id", event.EventID, "conversion_id", event.ConversionID)
		return
	}

	backoff := c.baseBackoff
	for attempt := 0; ; attempt++ {
		err := c.handler.Handle(context.Background(), event)
		if err == nil {
			return
		}

		if attempt == c.maxRetries {
			slog.Error("failed to report unresolved org ids after retries", "event_id", event.EventID, "conversion_id", event.ConversionID, "attempts", attempt+1, "error", err)
			return
		}

		if !c.sleep(backoff) {
			slog.Warn("abandon unresolved event on shutdown", "event_id", event.EventID, "conversion_id", event.ConversionID)
			return
		}
		backoff *= 2
	}
}

func (c *UnresolvedConsumer) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-c.quit:
		return false
	}
}

// seenSet is a fixed-size FIFO of event ids.
type seenSet struct {
	mu    sync.Mutex
	ids   map[string]struct{}
	order []string
	next  int
}

func newSeenSet(size int) *seenSet {
	return &seenSet{ids: make(map[string]struct{}, size), order: make([]string, size)}
}

// add records id and reports whether it was new.
func (s *seenSet) add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		return false
	}

	if old := s.order[s.next]; old != "" {
		delete(s.ids, old)
	}
	s.order[s.next] = id
	s.next = (s.next + 1) % len(s.order)
	s.ids[id] = struct{}{}

	return true
}

// Metrics counts reported ids.
type Metrics interface {
	ObserveUnresolvedReported(ids int)
}

// UnresolvedReporter logs unresolved org ids so that the mapping file can be fixed.
type UnresolvedReporter struct {
	Metrics Metrics

	// MaxLoggedIDs caps the ids written to one log line; 0 means 50.
	MaxLoggedIDs int
}

func (r UnresolvedReporter) Handle(ctx context.Context, event entity.UnresolvedEvent) error {
	if event.EventID == "" {
		return errors.New("missing event id")
	}

	limit := r.MaxLoggedIDs
	if limit < 1 {
		limit = 50
	}

	ids := event.OrgIDs
	truncated := false
	if len(ids) > limit {
		ids = ids[:limit]
		truncated = true
	}

	slog.WarnContext(ctx, "org ids without mapping",
		"event_id", event.EventID,
		"conversion_id", event.ConversionID,
		"rows", event.Rows,
		"distinct_ids", len(event.OrgIDs),
		"org_ids", ids,
		"truncated", truncated,
	)

	if r.Metrics != nil {
		r.Metrics.ObserveUnresolvedReported(len(event.OrgIDs))
	}

	return nil
}
