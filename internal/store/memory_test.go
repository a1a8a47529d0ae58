package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/wikigraph/internal/model"
)

func TestMemory_CreatePage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("assigns dense ids", func(t *testing.T) {
		t.Parallel()
		m := NewMemory()
		a := model.NewPage("A", model.NewWikiLink("/wiki/A"))
		b := model.NewPage("B", model.NewWikiLink("/wiki/B"))
		if err := m.CreatePages(ctx, []*model.Page{a, b}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.ID() != 1 || b.ID() != 2 {
			t.Errorf("expected ids 1 and 2, got %d and %d", a.ID(), b.ID())
		}
		if m.NextID() != 3 {
			t.Error("expected next id to follow the last assigned id")
		}
	})

	t.Run("rejects duplicate links", func(t *testing.T) {
		t.Parallel()
		m := NewMemory()
		if err := m.CreatePage(ctx, model.NewPage("A", model.NewWikiLink("/wiki/A"))); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		err := m.CreatePage(ctx, model.NewPage("A again", model.NewWikiLink("/wiki/A")))
		if !errors.Is(err, ErrDuplicatePage) {
			t.Errorf("expected ErrDuplicatePage, got %v", err)
		}
	})

	t.Run("indexes by title, id and link", func(t *testing.T) {
		t.Parallel()
		m := NewMemory()
		p := model.NewPage("Go", model.NewWikiLink("/wiki/Go"))
		if err := m.CreatePage(ctx, p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		byTitle, _ := m.PageByTitle(ctx, "Go")
		byID, _ := m.PageByID(ctx, p.ID())
		byLink, _ := m.PageByLink(ctx, model.NewWikiLink("/wiki/Go"))
		if byTitle != p || byID != p || byLink != p {
			t.Error("expected every index to return the same page")
		}
		missing, err := m.PageByTitle(ctx, "Rust")
		if missing != nil || err != nil {
			t.Errorf("expected (nil, nil) for a missing page, got (%v, %v)", missing, err)
		}
	})
}

func TestMemory_Rename(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	p := model.NewPage("Old", model.NewWikiLink("/wiki/P"))
	if err := m.CreatePage(ctx, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p.SetTitle("New")
	if err := m.Rename(ctx, "Old", p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := m.PageByTitle(ctx, "Old"); got != nil {
		t.Error("expected old title to be removed from the index")
	}
	if got, _ := m.PageByTitle(ctx, "New"); got != p {
		t.Error("expected new title to be indexed")
	}

	stranger := model.NewPage("X", model.NewWikiLink("/wiki/X"))
	stranger.SetID(99)
	if err := m.Rename(ctx, "X", stranger); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("expected ErrPageNotFound, got %v", err)
	}
}

func TestMemory_DrainPages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	for _, name := range []string{"A", "B", "C"} {
		if err := m.CreatePage(ctx, model.NewPage(name, model.NewWikiLink("/wiki/"+name))); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	drained := m.DrainPages()
	if len(drained) != 3 || drained[0].Title() != "A" || drained[2].Title() != "C" {
		t.Fatalf("unexpected drain %v", drained)
	}
	if n, _ := m.PageCount(ctx); n != 0 {
		t.Errorf("expected empty store, got %d pages", n)
	}
	if got, _ := m.PageByLink(ctx, model.NewWikiLink("/wiki/A")); got != nil {
		t.Error("expected link index to be cleared")
	}
}

func TestMemory_GetOrMakeLinkConcurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	link := model.NewWikiLink("/wiki/Shared")

	const workers = 64
	got := make([]*model.CrawlableLink, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := m.GetOrMakeLink(ctx, link)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			got[i] = rec
		}()
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if got[i] != got[0] {
			t.Fatalf("worker %d got a different record", i)
		}
	}
	if n, _ := m.LinkCount(ctx); n != 1 {
		t.Errorf("expected 1 record, got %d", n)
	}
}

func TestMemory_LinksProcessedBefore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	now := time.Now()

	old, _ := m.GetOrMakeLink(ctx, model.NewWikiLink("/wiki/Old"))
	old.MarkProcessed(true, now.Add(-time.Hour))
	fresh, _ := m.GetOrMakeLink(ctx, model.NewWikiLink("/wiki/Fresh"))
	fresh.MarkProcessed(true, now)
	_, _ = m.GetOrMakeLink(ctx, model.NewWikiLink("/wiki/Never"))

	stale, err := m.LinksProcessedBefore(ctx, now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stale) != 1 || stale[0] != old {
		t.Errorf("expected only the old record, got %v", stale)
	}
}
