package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type VenueConfig struct {
	Name string  `toml:"name"`
	Fee  float64 `toml:"fee"`
	// Mode selects the quote source: "sim" (random-walk simulator) or
	// "live" (websocket book ticker; fills stay simulated).
	Mode  string `toml:"mode"`
	WsURL string `toml:"ws_url"`
}

type Config struct {
	App struct {
		CycleIntervalMs   int `toml:"cycle_interval_ms"`
		BackoffDelayMs    int `toml:"backoff_delay_ms"`
		RenderEvery       int `toml:"render_every"`
		RefreshPairsEvery int `toml:"refresh_pairs_every"`
	} `toml:"app"`

	Symbols struct {
		List []string `toml:"list"`
	} `toml:"symbols"`

	Trading struct {
		MinProfitThreshold    float64 `toml:"min_profit_threshold"`
		CloseConvergenceRatio float64 `toml:"close_convergence_ratio"`
	} `toml:"trading"`

	Simulation struct {
		InitialCapital       float64 `toml:"initial_capital"`
		PositionSizeFraction float64 `toml:"position_size_fraction"`
	} `toml:"simulation"`

	Venues struct {
		A VenueConfig `toml:"a"`
		B VenueConfig `toml:"b"`
	} `toml:"venues"`

	Storage struct {
		// Backend: "none", "sqlite", "postgres", "redis" or a comma list for
		// a composite journal (e.g. "sqlite,redis").
		Backend     string `toml:"backend"`
		SqlitePath  string `toml:"sqlite_path"`
		PostgresDSN string `toml:"postgres_dsn"`
		RedisAddr   string `toml:"redis_addr"`
		RedisPrefix string `toml:"redis_prefix"`
	} `toml:"storage"`
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.CycleIntervalMs <= 0 {
		cfg.App.CycleIntervalMs = 2000
	}
	if cfg.App.BackoffDelayMs <= 0 {
		cfg.App.BackoffDelayMs = 5000
	}
	if cfg.App.RenderEvery <= 0 {
		cfg.App.RenderEvery = 5
	}
	if cfg.App.RefreshPairsEvery <= 0 {
		cfg.App.RefreshPairsEvery = 20
	}
	if cfg.Trading.MinProfitThreshold <= 0 {
		cfg.Trading.MinProfitThreshold = 0.002
	}
	if cfg.Trading.CloseConvergenceRatio <= 0 {
		cfg.Trading.CloseConvergenceRatio = 0.3
	}
	if cfg.Simulation.InitialCapital <= 0 {
		cfg.Simulation.InitialCapital = 10000
	}
	if cfg.Simulation.PositionSizeFraction <= 0 {
		cfg.Simulation.PositionSizeFraction = 0.1
	}
	if cfg.Venues.A.Name == "" {
		cfg.Venues.A.Name = "OKX"
	}
	if cfg.Venues.B.Name == "" {
		cfg.Venues.B.Name = "XT"
	}
	if cfg.Venues.A.Fee <= 0 {
		cfg.Venues.A.Fee = 0.001
	}
	if cfg.Venues.B.Fee <= 0 {
		cfg.Venues.B.Fee = 0.001
	}
	if cfg.Venues.A.Mode == "" {
		cfg.Venues.A.Mode = "sim"
	}
	if cfg.Venues.B.Mode == "" {
		cfg.Venues.B.Mode = "sim"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "none"
	}
	if cfg.Storage.SqlitePath == "" {
		cfg.Storage.SqlitePath = "data/biarb.db"
	}
	if cfg.Storage.RedisPrefix == "" {
		cfg.Storage.RedisPrefix = "biarb"
	}
}

func validate(cfg *Config) error {
	cfg.Symbols.List = normalizeSymbols(cfg.Symbols.List)
	if len(cfg.Symbols.List) == 0 {
		return errors.New("symbols.list is empty")
	}

	if strings.EqualFold(cfg.Venues.A.Name, cfg.Venues.B.Name) {
		return errors.New("venues.a and venues.b must have distinct names")
	}
	for _, v := range []VenueConfig{cfg.Venues.A, cfg.Venues.B} {
		switch v.Mode {
		case "sim":
		case "live":
			if strings.TrimSpace(v.WsURL) == "" {
				return fmt.Errorf("venue %s mode is live but ws_url is empty", v.Name)
			}
		default:
			return fmt.Errorf("venue %s has unknown mode %q", v.Name, v.Mode)
		}
	}

	for _, backend := range SplitBackends(cfg.Storage.Backend) {
		switch backend {
		case "none", "sqlite", "redis":
		case "postgres":
			if strings.TrimSpace(cfg.Storage.PostgresDSN) == "" {
				return errors.New("storage.backend includes postgres but postgres_dsn is empty")
			}
		default:
			return fmt.Errorf("unknown storage backend %q", backend)
		}
	}
	return nil
}

// SplitBackends parses the comma-separated storage backend list.
func SplitBackends(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalizeSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		u := strings.ToUpper(strings.TrimSpace(s))
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
