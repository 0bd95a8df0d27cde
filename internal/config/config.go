package config

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"
    _ "time/tzdata"

    "gopkg.in/yaml.v3"
)

type Server struct {
    Port              string `json:"port" yaml:"port"`
    RequestTimeoutSec int    `json:"request_timeout_sec" yaml:"request_timeout_sec"`
}

type API struct {
    BaseURL              string `json:"base_url" yaml:"base_url"`
    APIKey               string `json:"api_key" yaml:"api_key"`
    TimeoutSec           int    `json:"timeout_sec" yaml:"timeout_sec"`
    MaxRequestsPerMinute int    `json:"max_requests_per_minute" yaml:"max_requests_per_minute"`
    Burst                int    `json:"burst" yaml:"burst"`
    UserAgent            string `json:"user_agent" yaml:"user_agent"`
}

type Cache struct {
    PersistPath     string `json:"persist_path" yaml:"persist_path"`
    Buster          string `json:"buster" yaml:"buster"`
    MaxAgeHours     int    `json:"max_age_hours" yaml:"max_age_hours"`
    PersistEverySec int    `json:"persist_every_sec" yaml:"persist_every_sec"`
    GCEverySec      int    `json:"gc_every_sec" yaml:"gc_every_sec"`
}

type Market struct {
    Timezone        string `json:"timezone" yaml:"timezone"`
    OpenHour        int    `json:"open_hour" yaml:"open_hour"`
    OpenMinute      int    `json:"open_minute" yaml:"open_minute"`
    DefaultExchange string `json:"default_exchange" yaml:"default_exchange"`
}

type Log struct {
    Level      string `json:"level" yaml:"level"`
    Format     string `json:"format" yaml:"format"`
    File       string `json:"file" yaml:"file"`
    MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
    MaxBackups int    `json:"max_backups" yaml:"max_backups"`
    MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
}

type Schedule struct {
    // RefreshListsCron re-fetches the prefetched stock lists. Empty disables it.
    RefreshListsCron string   `json:"refresh_lists_cron" yaml:"refresh_lists_cron"`
    Exchanges        []string `json:"exchanges" yaml:"exchanges"`
}

type Config struct {
    Server   Server   `json:"server" yaml:"server"`
    API      API      `json:"api" yaml:"api"`
    Cache    Cache    `json:"cache" yaml:"cache"`
    Market   Market   `json:"market" yaml:"market"`
    Log      Log      `json:"log" yaml:"log"`
    Schedule Schedule `json:"schedule" yaml:"schedule"`
}

func Default() Config {
    return Config{
        Server: Server{Port: "8080", RequestTimeoutSec: 15},
        API: API{
            BaseURL:              "https://api.twelvedata.com",
            TimeoutSec:           10,
            MaxRequestsPerMinute: 8,
            Burst:                8,
            UserAgent:            "stocks/1.0",
        },
        Cache: Cache{
            PersistPath:     "stocks-cache.db",
            Buster:          "stocks-cache-v1",
            MaxAgeHours:     7 * 24,
            PersistEverySec: 60,
            GCEverySec:      60,
        },
        Market: Market{
            Timezone:        "Local",
            OpenHour:        10,
            OpenMinute:      0,
            DefaultExchange: "NASDAQ",
        },
        Log: Log{Level: "info", Format: "json", MaxSizeMB: 20, MaxBackups: 5, MaxAgeDays: 28},
        Schedule: Schedule{
            RefreshListsCron: "0 6 * * 1-5",
            Exchanges:        []string{"NASDAQ"},
        },
    }
}

// Load reads config from path, as YAML when the extension is .yaml or .yml
// and JSON otherwise. If path is empty or file does not exist, it returns
// defaults. Environment variables override select fields for secrecy.
func Load(path string) (Config, error) {
    cfg := Default()
    if path == "" {
        for _, p := range []string{"config.json", "config.yaml", "config.yml"} {
            if _, err := os.Stat(p); err == nil { path = p; break }
        }
    }
    if path != "" {
        b, err := os.ReadFile(path)
        if err != nil && !errors.Is(err, os.ErrNotExist) {
            return cfg, fmt.Errorf("read config: %w", err)
        }
        if err == nil {
            if err := decode(path, b, &cfg); err != nil {
                return cfg, fmt.Errorf("parse config: %w", err)
            }
        }
    }
    applyEnv(&cfg)
    if err := cfg.Validate(); err != nil {
        return cfg, fmt.Errorf("invalid config: %w", err)
    }
    return cfg, nil
}

func decode(path string, b []byte, cfg *Config) error {
    switch strings.ToLower(filepath.Ext(path)) {
    case ".yaml", ".yml":
        return yaml.Unmarshal(b, cfg)
    default:
        return json.Unmarshal(b, cfg)
    }
}

// Validate checks the fields the process cannot start without.
func (c Config) Validate() error {
    var errs []error
    if c.API.BaseURL == "" { errs = append(errs, errors.New("api.base_url is empty")) }
    if c.API.MaxRequestsPerMinute < 0 { errs = append(errs, errors.New("api.max_requests_per_minute is negative")) }
    if c.Market.OpenHour < 0 || c.Market.OpenHour > 23 {
        errs = append(errs, fmt.Errorf("market.open_hour %d out of range", c.Market.OpenHour))
    }
    if c.Market.OpenMinute < 0 || c.Market.OpenMinute > 59 {
        errs = append(errs, fmt.Errorf("market.open_minute %d out of range", c.Market.OpenMinute))
    }
    if _, err := c.Location(); err != nil { errs = append(errs, err) }
    switch strings.ToLower(c.Log.Format) {
    case "", "json", "console":
    default:
        errs = append(errs, fmt.Errorf("log.format %q must be json or console", c.Log.Format))
    }
    return errors.Join(errs...)
}

// Location resolves Market.Timezone. "Local" and "" mean the process zone.
func (c Config) Location() (*time.Location, error) {
    switch c.Market.Timezone {
    case "", "Local":
        return time.Local, nil
    }
    loc, err := time.LoadLocation(c.Market.Timezone)
    if err != nil { return nil, fmt.Errorf("market.timezone: %w", err) }
    return loc, nil
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func (a API) Timeout() time.Duration { return seconds(a.TimeoutSec) }

func (s Server) RequestTimeout() time.Duration { return seconds(s.RequestTimeoutSec) }

func (c Cache) MaxAge() time.Duration { return time.Duration(c.MaxAgeHours) * time.Hour }

func (c Cache) PersistEvery() time.Duration { return seconds(c.PersistEverySec) }

func (c Cache) GCEvery() time.Duration { return seconds(c.GCEverySec) }

func applyEnv(cfg *Config) {
    if v := os.Getenv("PORT"); v != "" { cfg.Server.Port = v }
    if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Server.RequestTimeoutSec = x }
    }
    if v := os.Getenv("TWELVE_DATA_API_KEY"); v != "" { cfg.API.APIKey = v }
    if v := os.Getenv("TWELVE_DATA_BASE_URL"); v != "" { cfg.API.BaseURL = v }
    if v := os.Getenv("TWELVE_DATA_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.API.TimeoutSec = x }
    }
    if v := os.Getenv("TWELVE_DATA_MAX_RPM"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.API.MaxRequestsPerMinute = x }
    }
    if v := os.Getenv("TWELVE_DATA_BURST"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.API.Burst = x }
    }
    if v := os.Getenv("CACHE_PATH"); v != "" { cfg.Cache.PersistPath = v }
    if v := os.Getenv("CACHE_BUSTER"); v != "" { cfg.Cache.Buster = v }
    if v := os.Getenv("CACHE_PERSIST"); v != "" {
        switch strings.ToLower(v) {
        case "0", "false", "no", "n": cfg.Cache.PersistPath = ""
        }
    }
    if v := os.Getenv("MARKET_TZ"); v != "" { cfg.Market.Timezone = v }
    if v := os.Getenv("MARKET_EXCHANGES"); v != "" { cfg.Schedule.Exchanges = splitCSV(v) }
    if v := os.Getenv("LOG_LEVEL"); v != "" { cfg.Log.Level = v }
    if v := os.Getenv("LOG_FORMAT"); v != "" { cfg.Log.Format = v }
    if v := os.Getenv("LOG_FILE"); v != "" { cfg.Log.File = v }
}

func splitCSV(s string) []string {
    parts := strings.Split(s, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        p = strings.TrimSpace(p)
        if p != "" { out = append(out, p) }
    }
    return out
}
