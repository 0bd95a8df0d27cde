package config_test

import (
    "os"
    "path/filepath"
    "testing"
    "time"

    "github.com/stretchr/testify/require"

    "github.com/lfarina18/metafar-challenge/internal/config"
)

func write(t *testing.T, name, body string) string {
    t.Helper()
    path := filepath.Join(t.TempDir(), name)
    require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
    return path
}

func TestLoad_Defaults(t *testing.T) {
    cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.json"))
    require.NoError(t, err)
    require.Equal(t, config.Default().API.BaseURL, cfg.API.BaseURL)
    require.Equal(t, 7*24*time.Hour, cfg.Cache.MaxAge())
    require.Equal(t, "stocks-cache-v1", cfg.Cache.Buster)
}

func TestLoad_JSON(t *testing.T) {
    path := write(t, "config.json", `{"server":{"port":"9090"},"market":{"timezone":"America/New_York","open_hour":9,"open_minute":30}}`)

    cfg, err := config.Load(path)
    require.NoError(t, err)
    require.Equal(t, "9090", cfg.Server.Port)
    require.Equal(t, 9, cfg.Market.OpenHour)
    require.Equal(t, 30, cfg.Market.OpenMinute)
    // untouched sections keep their defaults
    require.Equal(t, 10, cfg.API.TimeoutSec)

    loc, err := cfg.Location()
    require.NoError(t, err)
    require.Equal(t, "America/New_York", loc.String())
}

func TestLoad_YAML(t *testing.T) {
    path := write(t, "config.yaml", "api:\n  max_requests_per_minute: 55\n  burst: 4\nlog:\n  level: debug\n  format: console\n")

    cfg, err := config.Load(path)
    require.NoError(t, err)
    require.Equal(t, 55, cfg.API.MaxRequestsPerMinute)
    require.Equal(t, 4, cfg.API.Burst)
    require.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
    t.Setenv("TWELVE_DATA_API_KEY", "secret")
    t.Setenv("PORT", "7070")
    t.Setenv("LOG_LEVEL", "warn")
    t.Setenv("CACHE_PATH", "/tmp/c.db")
    t.Setenv("MARKET_EXCHANGES", "NASDAQ, NYSE,")

    path := write(t, "config.json", `{"api":{"api_key":"from-file"}}`)
    cfg, err := config.Load(path)
    require.NoError(t, err)
    require.Equal(t, "secret", cfg.API.APIKey)
    require.Equal(t, "7070", cfg.Server.Port)
    require.Equal(t, "warn", cfg.Log.Level)
    require.Equal(t, "/tmp/c.db", cfg.Cache.PersistPath)
    require.Equal(t, []string{"NASDAQ", "NYSE"}, cfg.Schedule.Exchanges)
}

func TestLoad_Invalid(t *testing.T) {
    tests := map[string]string{
        "bad json":     `{"server":`,
        "bad hour":     `{"market":{"open_hour":25}}`,
        "bad timezone": `{"market":{"timezone":"Mars/Olympus"}}`,
        "bad format":   `{"log":{"format":"xml"}}`,
    }
    for name, body := range tests {
        t.Run(name, func(t *testing.T) {
            _, err := config.Load(write(t, "config.json", body))
            require.Error(t, err)
        })
    }
}
