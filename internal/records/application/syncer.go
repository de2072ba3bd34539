package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"marketplace-admin/internal/observability/metrics"
	records "marketplace-admin/internal/records/domain"
	"marketplace-admin/internal/records/notify"
)

const defaultConcurrency = 4

// Syncer mirrors every catalog resource from a source into a sink.
type Syncer struct {
	source      records.Source
	sink        records.Sink
	catalog     *records.Catalog
	concurrency int
	logger      *log.Logger
	notifier    notify.Notifier
}

// SyncOption configures a Syncer.
type SyncOption func(*Syncer)

// WithConcurrency bounds the number of resources synced at once.
func WithConcurrency(n int) SyncOption {
	return func(s *Syncer) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithNotifier sends an alert whenever a run has failing resources.
func WithNotifier(n notify.Notifier) SyncOption {
	return func(s *Syncer) {
		s.notifier = n
	}
}

// NewSyncer constructs a Syncer.
func NewSyncer(source records.Source, sink records.Sink, catalog *records.Catalog, logger *log.Logger, opts ...SyncOption) (*Syncer, error) {
	if source == nil {
		return nil, errors.New("syncer: nil source")
	}
	if sink == nil {
		return nil, errors.New("syncer: nil sink")
	}
	if catalog == nil {
		return nil, errors.New("syncer: nil catalog")
	}
	s := &Syncer{
		source:      source,
		sink:        sink,
		catalog:     catalog,
		concurrency: defaultConcurrency,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SyncOnce copies each resource and returns the per-resource record counts of
// the resources that succeeded. A failing resource does not stop the others;
// their errors are joined.
func (s *Syncer) SyncOnce(ctx context.Context) (map[string]int, error) {
	var (
		mu     sync.Mutex
		counts = make(map[string]int)
		failed = make(map[string]string)
		errs   []error
	)
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, res := range s.catalog.Resources() {
		res := res
		g.Go(func() error {
			n, err := s.syncResource(ctx, res)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("sync %s: %w", res.Name, err))
				failed[res.Name] = err.Error()
				return nil
			}
			counts[res.Name] = n
			return nil
		})
	}
	_ = g.Wait()
	if len(failed) > 0 {
		s.alert(ctx, failed, counts)
	}
	return counts, errors.Join(errs...)
}

func (s *Syncer) alert(ctx context.Context, failed map[string]string, counts map[string]int) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Notify(ctx, notify.SyncAlert{Failed: failed, Synced: counts, At: time.Now().UTC()})
	if err != nil && s.logger != nil {
		s.logger.Printf("sync alert failed: %v", err)
	}
}

func (s *Syncer) syncResource(ctx context.Context, res records.Resource) (int, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveSync(res.Name, result, time.Since(start))
	}()

	list, err := s.source.List(ctx, res)
	if err != nil {
		result = metrics.ResultError
		return 0, err
	}
	if err := s.sink.Replace(ctx, res, list); err != nil {
		result = metrics.ResultError
		return 0, err
	}
	return len(list), nil
}

// Run syncs immediately and then every interval until ctx is done.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	s.runOnce(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Syncer) runOnce(ctx context.Context) {
	counts, err := s.SyncOnce(ctx)
	if s.logger == nil {
		return
	}
	if err != nil {
		s.logger.Printf("records sync error: %v", err)
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	s.logger.Printf("records sync: resources=%d records=%d", len(counts), total)
}
