package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/wikigraph/internal/model"
	"github.com/nao1215/wikigraph/internal/registry"
	"github.com/nao1215/wikigraph/internal/wiki"
)

// Fetcher retrieves the document behind a link. Failures are reported through
// the result status, never as an error.
type Fetcher interface {
	Fetch(ctx context.Context, link model.WikiLink) model.FetchResult
}

// Analyzer turns a successful fetch result into an analysis. A document that
// is not a usable page yields a Malformed analysis; the error return is
// reserved for unexpected failures.
type Analyzer interface {
	Analyze(res model.FetchResult) (model.Analysis, error)
}

// Supervisor runs the crawl pipeline.
type Supervisor struct {
	cfg      Config
	svc      *wiki.Service
	registry *registry.Registry
	fetcher  Fetcher
	analyzer Analyzer
	logger   *slog.Logger

	frontier    *Frontier[model.WikiLink]
	parsed      chan Item[model.FetchResult]
	revisitStop chan struct{}

	// runCtx interrupts blocked workers; opCtx is used for store writes so a
	// cancelled run never aborts a linking transaction halfway.
	runCtx context.Context
	cancel context.CancelFunc
	opCtx  context.Context

	fetchers  errgroup.Group
	analyzers errgroup.Group
	revisitor errgroup.Group

	// mu guards the lifecycle flags and the in-flight counter.
	mu              sync.Mutex
	started         bool
	shut            bool
	inFlight        int
	revisitReleased bool

	shutdownOnce sync.Once
	done         chan struct{}

	startedAt time.Time
	stats     counters
}

// counters are the live statistics of a crawl.
type counters struct {
	fetched  atomic.Int64
	created  atomic.Int64
	updated  atomic.Int64
	removed  atomic.Int64
	stashed  atomic.Int64
	failures atomic.Int64
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) {
		s.logger = logger
	}
}

// New creates a supervisor and registers it as svc's scheduler.
func New(cfg Config, svc *wiki.Service, fetcher Fetcher, analyzer Analyzer, opts ...Option) (*Supervisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid crawler config: %w", err)
	}

	s := &Supervisor{
		cfg:         cfg,
		svc:         svc,
		registry:    svc.Registry(),
		fetcher:     fetcher,
		analyzer:    analyzer,
		logger:      slog.Default(),
		frontier:    NewFrontier[model.WikiLink](),
		parsed:      make(chan Item[model.FetchResult], cfg.ParsedCapacity),
		revisitStop: make(chan struct{}, cfg.RevisitWorkers),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.fetchers.SetLimit(cfg.FetchWorkers)
	s.analyzers.SetLimit(cfg.AnalysisWorkers)
	if cfg.RevisitWorkers > 0 {
		s.revisitor.SetLimit(cfg.RevisitWorkers)
	}

	svc.SetScheduler(s)
	return s, nil
}

// Start seeds the frontier with seed and starts the fetch and analysis pools.
// The crawl stops when ctx is cancelled, when Shutdown is called, or
// according to the configured shutdown policy.
func (s *Supervisor) Start(ctx context.Context, seed model.WikiLink) error {
	s.mu.Lock()
	if s.shut {
		s.mu.Unlock()
		return ErrShutDown
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.startedAt = time.Now()
	s.runCtx, s.cancel = context.WithCancel(ctx)
	s.opCtx = context.WithoutCancel(ctx)
	// Pools are launched before mu is released so that a concurrent
	// Shutdown never waits on groups that are still empty.
	for range s.cfg.FetchWorkers {
		s.fetchers.Go(s.fetchLoop)
	}
	for range s.cfg.AnalysisWorkers {
		s.analyzers.Go(s.analysisLoop)
	}
	s.mu.Unlock()

	context.AfterFunc(s.runCtx, s.Shutdown)

	s.logger.Info("crawl started",
		"seed", seed.String(),
		"fetch_workers", s.cfg.FetchWorkers,
		"analysis_workers", s.cfg.AnalysisWorkers,
		"revisit_workers", s.cfg.RevisitWorkers,
	)
	if _, _, err := s.registry.Register(s.opCtx, seed); err != nil {
		return err
	}
	if !s.enqueue(seed) {
		s.deregister(seed)
		return ErrShutDown
	}
	return nil
}

// AddURL registers link and puts it on the frontier unless it is already
// queued or in flight.
func (s *Supervisor) AddURL(ctx context.Context, link model.WikiLink) error {
	if s.isShut() {
		return ErrShutDown
	}
	_, registered, err := s.registry.Register(ctx, link)
	if err != nil {
		return err
	}
	if !registered {
		s.logger.Debug("link already queued", "link", link.String())
		return nil
	}
	if !s.enqueue(link) {
		_ = s.registry.Deregister(ctx, link)
		return ErrShutDown
	}
	return nil
}

// Schedule implements wiki.Scheduler. The link has already been registered
// by the caller; after shutdown it is deregistered instead of queued.
func (s *Supervisor) Schedule(ctx context.Context, link model.WikiLink) error {
	if !s.enqueue(link) {
		return s.registry.Deregister(ctx, link)
	}
	return nil
}

// enqueue counts link as in flight and pushes it on the frontier. It returns
// false after shutdown.
func (s *Supervisor) enqueue(link model.WikiLink) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shut {
		return false
	}
	s.inFlight++
	s.frontier.PushBack(Work(link))
	return true
}

// resolved marks one link as resolved. When nothing is left in flight the
// supervisor shuts down or releases the revisit workers.
func (s *Supervisor) resolved() {
	s.mu.Lock()
	s.inFlight--
	drained := s.inFlight == 0
	release := drained && !s.cfg.ShutdownOnDrain && !s.revisitReleased && !s.shut
	if release {
		s.revisitReleased = true
		for range s.cfg.RevisitWorkers {
			s.revisitor.Go(s.revisitLoop)
		}
	}
	s.mu.Unlock()

	if drained && s.cfg.ShutdownOnDrain {
		s.logger.Info("frontier drained, shutting down")
		s.Shutdown()
	}
	if release && s.cfg.RevisitWorkers > 0 {
		s.logger.Info("frontier drained, revisit workers released", "workers", s.cfg.RevisitWorkers)
	}
}

func (s *Supervisor) isShut() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shut
}

// Shutdown stops the crawl. It returns immediately; use Await to wait for
// completion. Calling it more than once, concurrently or not, has the same
// effect as calling it once.
func (s *Supervisor) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		s.shut = true
		started := s.started
		s.mu.Unlock()

		if !started {
			close(s.done)
			return
		}

		s.logger.Info("shutting down crawl")
		for range s.cfg.FetchWorkers {
			s.frontier.PushFront(Stop[model.WikiLink]())
		}
		for range s.cfg.RevisitWorkers {
			s.revisitStop <- struct{}{}
		}
		go s.finish()
	})
}

// finish waits for the pools in pipeline order and cleans up.
func (s *Supervisor) finish() {
	defer close(s.done)

	_ = s.fetchers.Wait()
	for range s.cfg.AnalysisWorkers {
		select {
		case s.parsed <- Stop[model.FetchResult]():
		case <-s.runCtx.Done():
		}
	}
	_ = s.analyzers.Wait()
	_ = s.revisitor.Wait()

	// Results left behind by interrupted analysis workers.
	for drained := false; !drained; {
		select {
		case item := <-s.parsed:
			if !item.Stop {
				s.deregister(item.Value.Link)
			}
		default:
			drained = true
		}
	}
	for _, link := range s.frontier.Drain() {
		s.deregister(link)
	}

	if err := s.svc.PublishStaged(s.opCtx); err != nil {
		s.logger.Error("failed to publish staged pages", "error", err)
	}
	s.cancel()

	st := s.Stats()
	s.logger.Info("crawl finished",
		"indexed", st.Indexed(),
		"removed", st.Removed,
		"stashed", st.Stashed,
		"duration", st.Duration.String(),
	)
}

func (s *Supervisor) deregister(link model.WikiLink) {
	if err := s.registry.Deregister(s.opCtx, link); err != nil {
		s.logger.Warn("failed to deregister link", "link", link.String(), "error", err)
	}
}

// Await blocks until shutdown has completed or ctx is done.
func (s *Supervisor) Await(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop shuts the crawl down and waits for it to finish.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.Shutdown()
	return s.Await(ctx)
}

// Done returns a channel that is closed once shutdown has completed.
func (s *Supervisor) Done() <-chan struct{} {
	return s.done
}
