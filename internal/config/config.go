package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the defaults shared by the CLI, the HTTP server and the
// browser driver. Command-line flags override these.
type Config struct {
	Gamma         float64 // Discount factor
	Threshold     float64 // Convergence threshold on the per-sweep delta
	Order         string  // Sweep order: forward or reverse
	Seed          int64   // Seed for the grid's random source
	BaseReward    float64 // Reward added to every transition
	BorderReset   string  // Reset policy when stepping into a ravine
	TerminalReset string  // Reset policy when leaving a goal or ditch
	MaxSweeps     int     // Sweep cap before giving up
	Store         string  // Run store backend: memory or sqlite
	DBPath        string  // SQLite database file
	Addr          string  // HTTP listen address
	GinMode       string  // Mode for the Gin framework (release, debug, test)
}

func Defaults() Config {
	return Config{
		Gamma:         1,
		Threshold:     1e-5,
		Order:         "forward",
		Seed:          1,
		BorderReset:   "random",
		TerminalReset: "start",
		MaxSweeps:     100000,
		Store:         "memory",
		DBPath:        "tinydp.db",
		Addr:          ":8080",
		GinMode:       "release",
	}
}

// Load reads the given .env files (".env" when none are named) and then the
// process environment, which wins. Missing files are skipped. The process
// environment is never modified.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	fileEnv := make(map[string]string)
	for _, name := range files {
		values, err := godotenv.Read(name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("config: read %s: %w", name, err)
		}
		for k, v := range values {
			fileEnv[k] = v
		}
	}
	return FromLookup(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	})
}

// FromLookup builds a Config from the TINYDP_* keys visible through lookup,
// falling back to Defaults for anything unset.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Defaults()
	r := reader{lookup: lookup}

	cfg.Gamma = r.number("TINYDP_GAMMA", cfg.Gamma)
	cfg.Threshold = r.number("TINYDP_THRESHOLD", cfg.Threshold)
	cfg.Order = r.text("TINYDP_ORDER", cfg.Order)
	cfg.Seed = r.integer("TINYDP_SEED", cfg.Seed)
	cfg.BaseReward = r.number("TINYDP_BASE_REWARD", cfg.BaseReward)
	cfg.BorderReset = r.text("TINYDP_BORDER_RESET", cfg.BorderReset)
	cfg.TerminalReset = r.text("TINYDP_TERMINAL_RESET", cfg.TerminalReset)
	cfg.MaxSweeps = int(r.integer("TINYDP_MAX_SWEEPS", int64(cfg.MaxSweeps)))
	cfg.Store = r.text("TINYDP_STORE", cfg.Store)
	cfg.DBPath = r.text("TINYDP_DB_PATH", cfg.DBPath)
	cfg.Addr = r.text("TINYDP_ADDR", cfg.Addr)
	cfg.GinMode = r.text("GIN_MODE", cfg.GinMode)

	if r.err != nil {
		return Config{}, r.err
	}
	return cfg, nil
}

// reader keeps the first parse error so FromLookup can read every key in a
// straight line.
type reader struct {
	lookup func(string) (string, bool)
	err    error
}

func (r *reader) text(key, def string) string {
	if v, ok := r.lookup(key); ok && v != "" {
		return v
	}
	return def
}

func (r *reader) number(key string, def float64) float64 {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return f
}

func (r *reader) integer(key string, def int64) int64 {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return n
}

func (r *reader) fail(key string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("config: %s: %w", key, err)
	}
}
