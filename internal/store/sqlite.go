package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/wikigraph/internal/model"
)

// DBFileName is the name of the database file inside the data directory.
const DBFileName = "wikigraph.db"

// SQLite is a Store that keeps the graph in memory and writes every mutation
// through to a SQLite database.
//
// Design decision: We use a single database file for pages, edges and crawl
// records rather than one file per crawl. Crawls of the same wiki share link
// identities, so keeping everything together lets a later crawl resume the
// revisit schedule of an earlier one.
type SQLite struct {
	*Memory

	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

var _ Store = (*SQLite)(nil)

// Options configures SQLite behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// OpenSQLite opens or creates the database in dbDir and loads its contents
// into memory. Links left registered by a previous process are deregistered,
// because nothing is queued for them any more.
func OpenSQLite(ctx context.Context, dbDir string, opts Options) (*SQLite, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLite{
		Memory: NewMemory(),
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if err := s.load(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (s *SQLite) createTables(ctx context.Context) error {
	schema := `
	-- Pages are graph nodes; removed pages are tombstones and never deleted
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		description TEXT,
		article_type TEXT,
		is_redirect INTEGER DEFAULT 0,
		removed INTEGER DEFAULT 0,
		locales TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_pages_title ON pages(title);

	-- Edges keep insertion order so neighbors load back in the same order
	CREATE TABLE IF NOT EXISTS edges (
		from_id INTEGER NOT NULL,
		to_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (from_id, to_id)
	);

	-- Crawl records, one per link ever observed
	CREATE TABLE IF NOT EXISTS links (
		path TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		processed INTEGER DEFAULT 0,
		registered INTEGER DEFAULT 0,
		page_found INTEGER DEFAULT 0,
		last_processed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_links_processed ON links(last_processed_at);

	-- Pending references: pages that point at a link with no page yet
	CREATE TABLE IF NOT EXISTS pending_refs (
		link_path TEXT NOT NULL,
		page_id INTEGER NOT NULL,
		PRIMARY KEY (link_path, page_id)
	);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// load hydrates the in-memory indexes from the database.
func (s *SQLite) load(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE links SET registered = 0 WHERE registered = 1"); err != nil {
		return fmt.Errorf("failed to deregister links: %w", err)
	}
	if err := s.loadPages(ctx); err != nil {
		return err
	}
	if err := s.loadEdges(ctx); err != nil {
		return err
	}
	if err := s.loadLinks(ctx); err != nil {
		return err
	}
	return s.loadPending(ctx)
}

func (s *SQLite) loadPages(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, path, title, COALESCE(description, ''), COALESCE(article_type, ''),
	       is_redirect, removed, COALESCE(locales, '')
	FROM pages ORDER BY id`)
	if err != nil {
		return fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id                                   int64
			path, title, desc, atype, localesRaw string
			isRedirect, removed                  bool
		)
		if err := rows.Scan(&id, &path, &title, &desc, &atype, &isRedirect, &removed, &localesRaw); err != nil {
			return fmt.Errorf("failed to scan page: %w", err)
		}

		link := model.NewWikiLink(path)
		if localesRaw != "" {
			var locales map[string]string
			if err := json.Unmarshal([]byte(localesRaw), &locales); err != nil {
				return fmt.Errorf("failed to deserialize locales of %s: %w", path, err)
			}
			for locale, p := range locales {
				link = link.WithLocale(locale, p)
			}
		}

		p := model.NewPage(title, link)
		p.SetID(id)
		p.Restore(desc, atype, isRedirect, removed)
		if err := s.Memory.insert(p); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *SQLite) loadEdges(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, "SELECT from_id, to_id FROM edges ORDER BY from_id, position")
	if err != nil {
		return fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var from, to int64
		if err := rows.Scan(&from, &to); err != nil {
			return fmt.Errorf("failed to scan edge: %w", err)
		}
		src, ok := s.pagesByID.load(from)
		if !ok {
			continue
		}
		dst, ok := s.pagesByID.load(to)
		if !ok {
			continue
		}
		src.AddNeighbor(dst)
	}
	return rows.Err()
}

func (s *SQLite) loadLinks(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `
	SELECT path, id, processed, registered, page_found, COALESCE(last_processed_at, '')
	FROM links`)
	if err != nil {
		return fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			path, rawID, lastProcessed string
			st                         model.LinkState
		)
		if err := rows.Scan(&path, &rawID, &st.Processed, &st.Registered, &st.PageFound, &lastProcessed); err != nil {
			return fmt.Errorf("failed to scan link: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return fmt.Errorf("invalid id for link %s: %w", path, err)
		}
		if lastProcessed != "" {
			st.LastProcessedAt = parseTimestamp(lastProcessed)
		}
		rec := model.RestoreCrawlableLink(id, model.NewWikiLink(path), st)
		s.links.store(rec.Link().Key(), rec)
	}
	return rows.Err()
}

func (s *SQLite) loadPending(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, "SELECT link_path, page_id FROM pending_refs")
	if err != nil {
		return fmt.Errorf("failed to query pending references: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			path string
			id   int64
		)
		if err := rows.Scan(&path, &id); err != nil {
			return fmt.Errorf("failed to scan pending reference: %w", err)
		}
		rec, ok := s.links.load(model.NewWikiLink(path).Key())
		if !ok {
			continue
		}
		if p, ok := s.pagesByID.load(id); ok {
			rec.AddPending(p)
		}
	}
	return rows.Err()
}

// CreatePage implements PageRepository.
func (s *SQLite) CreatePage(ctx context.Context, p *model.Page) error {
	if err := s.Memory.insert(p); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return writePage(ctx, tx, p, true)
	})
}

// CreatePages implements PageRepository. The batch is written in a single
// transaction.
func (s *SQLite) CreatePages(ctx context.Context, pages []*model.Page) error {
	for _, p := range pages {
		if err := s.Memory.insert(p); err != nil {
			return err
		}
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, p := range pages {
			if err := writePage(ctx, tx, p, true); err != nil {
				return err
			}
		}
		return nil
	})
}

// SavePage implements PageRepository.
func (s *SQLite) SavePage(ctx context.Context, p *model.Page, updateLinks bool) error {
	if err := s.Memory.SavePage(ctx, p, updateLinks); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return writePage(ctx, tx, p, updateLinks)
	})
}

// Rename implements PageRepository. The title column is written by the same
// upsert that SavePage uses.
func (s *SQLite) Rename(ctx context.Context, oldTitle string, p *model.Page) error {
	if err := s.Memory.Rename(ctx, oldTitle, p); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return writePage(ctx, tx, p, false)
	})
}

// writePage upserts the page row and, if withEdges is set, replaces its edges.
func writePage(ctx context.Context, tx *sql.Tx, p *model.Page, withEdges bool) error {
	var locales []byte
	if alt := p.Link().Alternates(); len(alt) > 0 {
		var err error
		if locales, err = json.Marshal(alt); err != nil {
			return fmt.Errorf("failed to serialize locales: %w", err)
		}
	}

	query := `
	INSERT INTO pages (id, path, title, description, article_type, is_redirect, removed, locales)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		description = excluded.description,
		article_type = excluded.article_type,
		is_redirect = excluded.is_redirect,
		removed = excluded.removed,
		locales = excluded.locales,
		updated_at = CURRENT_TIMESTAMP
	`
	if _, err := tx.ExecContext(ctx, query,
		p.ID(), p.Link().Path(), p.Title(), p.Description(), p.ArticleType(),
		p.IsRedirect(), p.Removed(), string(locales),
	); err != nil {
		return fmt.Errorf("failed to write page %s: %w", p.Link(), err)
	}

	if !withEdges {
		return nil
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM edges WHERE from_id = ?", p.ID()); err != nil {
		return fmt.Errorf("failed to clear edges of %s: %w", p.Link(), err)
	}
	for i, n := range p.Neighbors() {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO edges (from_id, to_id, position) VALUES (?, ?, ?)",
			p.ID(), n.ID(), i,
		); err != nil {
			return fmt.Errorf("failed to write edge %s -> %s: %w", p.Link(), n.Link(), err)
		}
	}
	return nil
}

// GetOrMakeLink implements LinkRepository. A newly made record is written
// before it is returned.
func (s *SQLite) GetOrMakeLink(ctx context.Context, link model.WikiLink) (*model.CrawlableLink, error) {
	rec, created := s.Memory.getOrMake(link)
	if created {
		if err := s.UpdateLink(ctx, rec); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// GetOrMakeLinks implements LinkRepository.
func (s *SQLite) GetOrMakeLinks(ctx context.Context, links []model.WikiLink) ([]*model.CrawlableLink, error) {
	out := make([]*model.CrawlableLink, len(links))
	var created []*model.CrawlableLink
	for i, l := range links {
		rec, isNew := s.Memory.getOrMake(l)
		out[i] = rec
		if isNew {
			created = append(created, rec)
		}
	}
	if err := s.UpdateLinks(ctx, created); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateLink implements LinkRepository.
func (s *SQLite) CreateLink(ctx context.Context, rec *model.CrawlableLink) error {
	if err := s.Memory.CreateLink(ctx, rec); err != nil {
		return err
	}
	return s.UpdateLink(ctx, rec)
}

// UpdateLink implements LinkRepository.
func (s *SQLite) UpdateLink(ctx context.Context, rec *model.CrawlableLink) error {
	return s.UpdateLinks(ctx, []*model.CrawlableLink{rec})
}

// UpdateLinks implements LinkRepository. Records and their pending
// references are written in a single transaction.
func (s *SQLite) UpdateLinks(ctx context.Context, recs []*model.CrawlableLink) error {
	if len(recs) == 0 {
		return nil
	}
	for _, rec := range recs {
		_ = s.Memory.UpdateLink(ctx, rec)
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, rec := range recs {
			if err := writeLink(ctx, tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeLink(ctx context.Context, tx *sql.Tx, rec *model.CrawlableLink) error {
	st := rec.State()
	var lastProcessed any
	if !st.LastProcessedAt.IsZero() {
		lastProcessed = st.LastProcessedAt.UTC().Format(time.RFC3339Nano)
	}

	query := `
	INSERT INTO links (path, id, processed, registered, page_found, last_processed_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET
		processed = excluded.processed,
		registered = excluded.registered,
		page_found = excluded.page_found,
		last_processed_at = excluded.last_processed_at
	`
	path := rec.Link().Path()
	if _, err := tx.ExecContext(ctx, query,
		path, rec.ID().String(), st.Processed, st.Registered, st.PageFound, lastProcessed,
	); err != nil {
		return fmt.Errorf("failed to write link %s: %w", path, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM pending_refs WHERE link_path = ?", path); err != nil {
		return fmt.Errorf("failed to clear pending references of %s: %w", path, err)
	}
	for _, p := range rec.Pending() {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO pending_refs (link_path, page_id) VALUES (?, ?)",
			path, p.ID(),
		); err != nil {
			return fmt.Errorf("failed to write pending reference %s -> %s: %w", p.Link(), path, err)
		}
	}
	return nil
}

// DeleteLink implements LinkRepository.
func (s *SQLite) DeleteLink(ctx context.Context, link model.WikiLink) error {
	if err := s.Memory.DeleteLink(ctx, link); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM links WHERE path = ?", link.Path()); err != nil {
			return fmt.Errorf("failed to delete link %s: %w", link, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM pending_refs WHERE link_path = ?", link.Path()); err != nil {
			return fmt.Errorf("failed to delete pending references of %s: %w", link, err)
		}
		return nil
	})
}

// withTx runs fn in a transaction, committing on success.
func (s *SQLite) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// timestampFormats lists the formats SQLite timestamps may come back in.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, it returns the zero time, which the
// crawl policy treats as never processed.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
