package crawler

import (
	"fmt"
	"time"

	"github.com/nao1215/wikigraph/internal/model"
)

// fetchLoop is the body of a fetch worker.
func (s *Supervisor) fetchLoop() error {
	for {
		item, err := s.frontier.Pop(s.runCtx)
		if err != nil || item.Stop {
			return nil
		}
		s.fetchOne(item.Value)
	}
}

// fetchOne fetches link and routes the result. Successful results are handed
// to the analysis pool, which resolves them; every other outcome is resolved
// here.
func (s *Supervisor) fetchOne(link model.WikiLink) {
	handedOff := false
	defer func() {
		if r := recover(); r != nil {
			s.fail(link, fmt.Errorf("panic while fetching: %v", r))
		}
		if !handedOff {
			s.resolved()
		}
	}()

	res := s.fetcher.Fetch(s.runCtx, link)
	s.stats.fetched.Add(1)

	switch res.Status {
	case model.FetchSuccess:
		select {
		case s.parsed <- Work(res):
			handedOff = true
		case <-s.runCtx.Done():
			s.deregister(link)
		}
	case model.FetchDoesNotExist:
		s.logger.Debug("page does not exist", "link", link.String())
		if err := s.svc.Remove(s.opCtx, link); err != nil {
			s.fail(link, err)
			return
		}
		s.stats.removed.Add(1)
	default:
		if s.runCtx.Err() != nil {
			// Interrupted by shutdown, not a connection problem.
			s.deregister(link)
			return
		}
		s.logger.Debug("connection error, stashing link", "link", link.String(), "error", res.Err)
		s.stash(link)
	}
}

// analysisLoop is the body of an analysis worker.
func (s *Supervisor) analysisLoop() error {
	for {
		select {
		case item := <-s.parsed:
			if item.Stop {
				return nil
			}
			s.analyzeOne(item.Value)
		case <-s.runCtx.Done():
			return nil
		}
	}
}

// analyzeOne analyzes a fetched document and indexes the resulting page.
// Any error or panic is contained here so one bad page never stops the
// worker.
func (s *Supervisor) analyzeOne(res model.FetchResult) {
	link := res.Link
	defer func() {
		if r := recover(); r != nil {
			s.fail(link, fmt.Errorf("panic while analyzing: %v", r))
		}
		s.resolved()
	}()

	a, err := s.analyzer.Analyze(res)
	if err != nil {
		s.fail(link, err)
		return
	}
	if a.Malformed {
		s.logger.Debug("malformed page", "link", link.String(), "reason", a.Reason)
		if err := s.svc.Remove(s.opCtx, link); err != nil {
			s.fail(link, err)
			return
		}
		s.stats.removed.Add(1)
		return
	}

	created, unindexed, err := s.svc.Index(s.opCtx, a)
	if err != nil {
		s.fail(link, err)
		return
	}
	if created {
		s.stats.created.Add(1)
	} else {
		s.stats.updated.Add(1)
	}
	s.logger.Debug("page indexed",
		"link", link.String(),
		"title", a.Candidate.Title,
		"created", created,
		"unindexed", len(unindexed),
	)

	if s.cfg.MaxPages > 0 && s.Stats().Indexed() >= int64(s.cfg.MaxPages) {
		s.logger.Info("page limit reached", "max_pages", s.cfg.MaxPages)
		s.Shutdown()
	}
}

// fail logs an unexpected error and stashes link for a later retry.
func (s *Supervisor) fail(link model.WikiLink, err error) {
	s.stats.failures.Add(1)
	s.logger.Warn("failed to process link", "link", link.String(), "error", err)
	s.stash(link)
}

func (s *Supervisor) stash(link model.WikiLink) {
	if err := s.registry.Stash(s.opCtx, link); err != nil {
		s.logger.Warn("failed to stash link", "link", link.String(), "error", err)
		return
	}
	s.stats.stashed.Add(1)
}

// revisitLoop is the body of a revisit worker. It scans once when released
// and then every RevisitScanInterval.
func (s *Supervisor) revisitLoop() error {
	ticker := time.NewTicker(s.cfg.RevisitScanInterval)
	defer ticker.Stop()

	for {
		if stop := s.revisitScan(); stop {
			return nil
		}
		select {
		case <-s.revisitStop:
			return nil
		case <-s.runCtx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// revisitScan re-enqueues every due link. It returns true once the
// supervisor has shut down, and the revisit loop then exits.
func (s *Supervisor) revisitScan() bool {
	due, err := s.registry.Due(s.opCtx)
	if err != nil {
		s.logger.Warn("revisit scan failed", "error", err)
		return false
	}

	requeued := 0
	for _, rec := range due {
		if s.isShut() {
			return true
		}
		ok, err := s.registry.TryRegister(s.opCtx, rec)
		if err != nil {
			s.logger.Warn("failed to register link for revisit", "link", rec.Link().String(), "error", err)
			continue
		}
		if !ok {
			continue
		}
		if !s.enqueue(rec.Link()) {
			s.deregister(rec.Link())
			return true
		}
		requeued++
	}
	if requeued > 0 {
		s.logger.Debug("revisit scan requeued links", "count", requeued)
	}
	return false
}
