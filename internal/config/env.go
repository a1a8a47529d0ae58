package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by wikigraph.
const EnvPrefix = "WIKIGRAPH_"

// LookupFunc looks up an environment variable.
type LookupFunc func(key string) (string, bool)

// LoadEnv applies WIKIGRAPH_* variables to cfg. Variables are taken from the
// process environment and, for keys it does not set, from the dotenv file
// at path. A missing dotenv file is not an error.
func LoadEnv(cfg *Config, path string) error {
	var fileVars map[string]string
	if path != "" {
		vars, err := godotenv.Read(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		fileVars = vars
	}
	return ApplyEnv(cfg, func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	})
}

// ApplyEnv applies the variables visible through lookup to cfg.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	e := envReader{lookup: lookup}

	e.str("DATA_DIR", &cfg.DataDir)
	e.boolean("IN_MEMORY", &cfg.InMemory)
	e.integer("FETCH_WORKERS", &cfg.FetchWorkers)
	e.integer("ANALYSIS_WORKERS", &cfg.AnalysisWorkers)
	e.integer("REVISIT_WORKERS", &cfg.RevisitWorkers)
	e.integer("PARSED_CAPACITY", &cfg.ParsedCapacity)
	e.duration("REVISIT_INTERVAL", &cfg.RevisitInterval)
	e.duration("REVISIT_SCAN_INTERVAL", &cfg.RevisitScanInterval)
	e.integer("CREATES_UNTIL_BULK_PUBLISH", &cfg.CreatesUntilBulkPublish)
	e.integer("MAX_PAGES", &cfg.MaxPages)
	e.boolean("CONTINUOUS", &cfg.Continuous)
	e.str("BASE_URL", &cfg.BaseURL)
	e.str("OFFLINE_DIR", &cfg.OfflineDir)
	e.str("PROXY", &cfg.ProxyAddress)
	e.duration("TIMEOUT", &cfg.Timeout)
	e.float("REQUESTS_PER_SECOND", &cfg.RequestsPerSecond)
	e.integer("BURST", &cfg.Burst)
	e.str("USER_AGENT", &cfg.UserAgent)
	e.int64("MAX_BODY_SIZE", &cfg.MaxBodySize)
	e.boolean("VERBOSE", &cfg.Verbose)
	e.boolean("JSON_LOGS", &cfg.JSONLogs)

	return errors.Join(e.errs...)
}

// envReader collects parse errors so that every bad variable is reported.
type envReader struct {
	lookup LookupFunc
	errs   []error
}

func (e *envReader) get(name string) (string, string, bool) {
	key := EnvPrefix + name
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return key, "", false
	}
	return key, v, true
}

func (e *envReader) fail(key, value string, err error) {
	e.errs = append(e.errs, fmt.Errorf("%w: %s=%q: %w", ErrInvalidEnv, key, value, err))
}

func (e *envReader) str(name string, dst *string) {
	if _, v, ok := e.get(name); ok {
		*dst = v
	}
}

func (e *envReader) boolean(name string, dst *bool) {
	key, v, ok := e.get(name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, err)
		return
	}
	*dst = b
}

func (e *envReader) integer(name string, dst *int) {
	key, v, ok := e.get(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return
	}
	*dst = n
}

func (e *envReader) int64(name string, dst *int64) {
	key, v, ok := e.get(name)
	if !ok {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		e.fail(key, v, err)
		return
	}
	*dst = n
}

func (e *envReader) float(name string, dst *float64) {
	key, v, ok := e.get(name)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, v, err)
		return
	}
	*dst = f
}

func (e *envReader) duration(name string, dst *time.Duration) {
	key, v, ok := e.get(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v, err)
		return
	}
	*dst = d
}
