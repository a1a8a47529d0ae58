package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/wikigraph/internal/crawler"
	"github.com/nao1215/wikigraph/internal/registry"
	"github.com/nao1215/wikigraph/internal/wiki"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "wikigraph"

	// DefaultFetchWorkers is high because fetching is network bound and most
	// of a worker's time is spent waiting on the wiki.
	DefaultFetchWorkers = crawler.DefaultFetchWorkers

	// DefaultAnalysisWorkers is the analysis pool size.
	DefaultAnalysisWorkers = crawler.DefaultAnalysisWorkers

	// DefaultRevisitWorkers is the revisit pool size.
	DefaultRevisitWorkers = crawler.DefaultRevisitWorkers

	// DefaultParsedCapacity bounds the buffer between fetching and analysis.
	DefaultParsedCapacity = crawler.DefaultParsedCapacity

	// DefaultRevisitInterval is how long a processed link rests before it
	// may be fetched again.
	DefaultRevisitInterval = registry.DefaultRevisitInterval

	// DefaultRevisitScanInterval is the pause between revisit scans.
	DefaultRevisitScanInterval = crawler.DefaultRevisitScanInterval

	// DefaultCreatesUntilBulkPublish is the number of staged page creations
	// that triggers a bulk publish to the database.
	DefaultCreatesUntilBulkPublish = wiki.DefaultCreatesUntilBulkPublish

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = crawler.DefaultTimeout

	// DefaultRequestsPerSecond is a polite request rate for a public wiki.
	DefaultRequestsPerSecond = float64(crawler.DefaultRequestsPerSecond)

	// DefaultBurst is the rate limiter burst.
	DefaultBurst = crawler.DefaultBurst

	// DefaultBaseURL is the wiki crawled by default.
	DefaultBaseURL = crawler.DefaultBaseURL

	// DefaultUserAgent identifies wikigraph in HTTP requests.
	DefaultUserAgent = crawler.DefaultUserAgent

	// DefaultMaxBodySize limits the bytes read from one response.
	DefaultMaxBodySize = crawler.DefaultMaxBodySize
)

// Config holds all configuration options for wikigraph.
// It is populated from defaults, the config file, the environment and CLI
// flags, and passed through the application explicitly.
//
// Design decision: We use a single flat struct instead of nested structs.
// The crawler gets its own immutable view through CrawlerConfig.
type Config struct {
	// DataDir is the directory holding the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/wikigraph on Linux).
	DataDir string `yaml:"dataDir,omitempty"`

	// InMemory keeps the graph in memory only; nothing is persisted.
	InMemory bool `yaml:"inMemory,omitempty"`

	// FetchWorkers is the size of the fetch pool.
	FetchWorkers int `yaml:"fetchWorkers,omitempty"`

	// AnalysisWorkers is the size of the analysis pool.
	AnalysisWorkers int `yaml:"analysisWorkers,omitempty"`

	// RevisitWorkers is the size of the revisit pool. Zero disables
	// revisiting.
	RevisitWorkers int `yaml:"revisitWorkers,omitempty"`

	// ParsedCapacity bounds the buffer between fetch and analysis workers.
	ParsedCapacity int `yaml:"parsedCapacity,omitempty"`

	// RevisitInterval is the minimum time between two fetches of a link.
	RevisitInterval time.Duration `yaml:"revisitInterval,omitempty"`

	// RevisitScanInterval is the pause between two revisit scans.
	RevisitScanInterval time.Duration `yaml:"revisitScanInterval,omitempty"`

	// CreatesUntilBulkPublish is the number of new pages held in the
	// staging area before they are written in one batch. Zero writes every
	// page immediately.
	CreatesUntilBulkPublish int `yaml:"createsUntilBulkPublish,omitempty"`

	// MaxPages stops the crawl after this many pages were indexed.
	// Zero means unlimited.
	MaxPages int `yaml:"maxPages,omitempty"`

	// Continuous keeps the crawl running after the frontier drains and
	// hands over to the revisit workers. Otherwise the crawl stops once
	// nothing is left to fetch.
	Continuous bool `yaml:"continuous,omitempty"`

	// BaseURL is the root of the wiki to crawl.
	BaseURL string `yaml:"baseURL,omitempty"`

	// OfflineDir serves pages from saved HTML files instead of the network.
	OfflineDir string `yaml:"offlineDir,omitempty"`

	// ProxyAddress routes requests through a SOCKS5 proxy ("host:port").
	ProxyAddress string `yaml:"proxy,omitempty"`

	// Timeout is the per-request timeout.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// RequestsPerSecond limits the request rate. Zero disables limiting.
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty"`

	// Burst is the number of requests allowed above the rate.
	Burst int `yaml:"burst,omitempty"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `yaml:"userAgent,omitempty"`

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64 `yaml:"maxBodySize,omitempty"`

	// Headers are added to every request.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose,omitempty"`

	// JSONLogs switches the log output to JSON.
	JSONLogs bool `yaml:"jsonLogs,omitempty"`

	// ConfigFilePath is the path to the configuration file.
	// If empty, .wikigraph is searched in the current and home directories.
	ConfigFilePath string `yaml:"-"`

	// EnvFilePath is the .env file read for WIKIGRAPH_* variables.
	EnvFilePath string `yaml:"-"`

	// JSONReport and MarkdownReport select the report format.
	// They are mutually exclusive; neither means plain text.
	JSONReport     bool `yaml:"-"`
	MarkdownReport bool `yaml:"-"`

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string `yaml:"-"`
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero. This also serves as
// documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		DataDir:                 XDGDataDir(),
		FetchWorkers:            DefaultFetchWorkers,
		AnalysisWorkers:         DefaultAnalysisWorkers,
		RevisitWorkers:          DefaultRevisitWorkers,
		ParsedCapacity:          DefaultParsedCapacity,
		RevisitInterval:         DefaultRevisitInterval,
		RevisitScanInterval:     DefaultRevisitScanInterval,
		CreatesUntilBulkPublish: DefaultCreatesUntilBulkPublish,
		BaseURL:                 DefaultBaseURL,
		Timeout:                 DefaultTimeout,
		RequestsPerSecond:       DefaultRequestsPerSecond,
		Burst:                   DefaultBurst,
		UserAgent:               DefaultUserAgent,
		MaxBodySize:             DefaultMaxBodySize,
		EnvFilePath:             ".env",
	}
}

// XDGDataDir returns the XDG data directory for wikigraph.
// On Linux: ~/.local/share/wikigraph
// On macOS: ~/Library/Application Support/wikigraph
// On Windows: %LOCALAPPDATA%\wikigraph
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for wikigraph.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found because fixing one error often makes
// others irrelevant.
func (c *Config) Validate() error {
	switch {
	case c.FetchWorkers <= 0:
		return ErrInvalidFetchWorkers
	case c.AnalysisWorkers <= 0:
		return ErrInvalidAnalysisWorkers
	case c.RevisitWorkers < 0:
		return ErrInvalidRevisitWorkers
	case c.ParsedCapacity <= 0:
		return ErrInvalidParsedCapacity
	case c.RevisitInterval <= 0:
		return ErrInvalidRevisitInterval
	case c.RevisitWorkers > 0 && c.RevisitScanInterval <= 0:
		return ErrInvalidScanInterval
	case c.CreatesUntilBulkPublish < 0:
		return ErrInvalidBulkPublish
	case c.MaxPages < 0:
		return ErrInvalidMaxPages
	case c.Timeout <= 0:
		return ErrInvalidTimeout
	case c.RequestsPerSecond < 0:
		return ErrInvalidRateLimit
	case c.MaxBodySize < 0:
		return ErrInvalidMaxBodySize
	case c.JSONReport && c.MarkdownReport:
		return ErrConflictingReportFormats
	}
	return nil
}

// CrawlerConfig returns the supervisor configuration.
func (c *Config) CrawlerConfig() crawler.Config {
	return crawler.Config{
		FetchWorkers:        c.FetchWorkers,
		AnalysisWorkers:     c.AnalysisWorkers,
		RevisitWorkers:      c.RevisitWorkers,
		ParsedCapacity:      c.ParsedCapacity,
		RevisitScanInterval: c.RevisitScanInterval,
		MaxPages:            c.MaxPages,
		ShutdownOnDrain:     !c.Continuous,
	}
}

// ClientOptions returns the HTTP client options.
func (c *Config) ClientOptions() crawler.ClientOptions {
	return crawler.ClientOptions{
		Timeout:      c.Timeout,
		ProxyAddress: c.ProxyAddress,
		Headers:      c.Headers,
	}
}

// FetcherOptions returns the HTTP fetcher options.
func (c *Config) FetcherOptions() []crawler.FetcherOption {
	return []crawler.FetcherOption{
		crawler.WithBaseURL(c.BaseURL),
		crawler.WithRateLimit(c.RequestsPerSecond, c.Burst),
		crawler.WithUserAgent(c.UserAgent),
		crawler.WithMaxBodySize(c.MaxBodySize),
	}
}
