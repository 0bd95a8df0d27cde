package main

import (
    "context"
    "errors"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/gin-gonic/gin"
    "go.uber.org/zap"

    "github.com/lfarina18/metafar-challenge/internal/app"
    "github.com/lfarina18/metafar-challenge/internal/config"
    "github.com/lfarina18/metafar-challenge/internal/httpapi"
    "github.com/lfarina18/metafar-challenge/internal/logging"
    "github.com/lfarina18/metafar-challenge/internal/notify"
    "github.com/lfarina18/metafar-challenge/internal/scheduler"
)

func main() {
    // Config
    cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
    if err != nil { log.Fatalf("config: %v", err) }

    logger, err := logging.New(cfg.Log)
    if err != nil { log.Fatalf("logging: %v", err) }
    if cfg.Log.Level != "debug" { gin.SetMode(gin.ReleaseMode) }

    a, err := app.New(cfg, logger, notify.LogNotifier{Logger: logger.Named("notify")})
    if err != nil { logger.Fatal("app", zap.Error(err)) }
    defer a.Close()

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    if _, err := a.Restore(ctx); err != nil { logger.Warn("cache restore", zap.Error(err)) }

    loc, _ := cfg.Location()
    sched := scheduler.New(ctx, scheduler.Config{
        RefreshListsCron: cfg.Schedule.RefreshListsCron,
        Exchanges:        cfg.Schedule.Exchanges,
        PersistEvery:     cfg.Cache.PersistEvery(),
        GCEvery:          cfg.Cache.GCEvery(),
        Location:         loc,
    }, a.Service, a.Cache, a.Persister, logger.Named("scheduler"))
    if err := sched.Register(); err != nil { logger.Fatal("scheduler", zap.Error(err)) }
    sched.Start()

    // Warm the listings most users open first.
    go func() {
        pctx, cancel := context.WithTimeout(ctx, time.Minute)
        defer cancel()
        if err := a.Service.PrefetchLists(pctx, cfg.Schedule.Exchanges); err != nil {
            logger.Warn("prefetch lists", zap.Error(err))
        }
    }()

    h := httpapi.NewHandler(a.Service, logger.Named("http"), cfg.Server.RequestTimeout())
    router := httpapi.NewRouter(h, httpapi.RouterConfig{
        Logger:   logger.Named("http"),
        Observer: a.Metrics,
        Gatherer: a.Registry,
    })

    srv := &http.Server{
        Addr:              ":" + cfg.Server.Port,
        Handler:           router,
        ReadHeaderTimeout: 5 * time.Second,
        ReadTimeout:       15 * time.Second,
        WriteTimeout:      cfg.Server.RequestTimeout() + 5*time.Second,
        IdleTimeout:       60 * time.Second,
    }

    go func() {
        logger.Info("server listening", zap.String("addr", srv.Addr))
        if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            logger.Fatal("server", zap.Error(err))
        }
    }()

    // graceful shutdown
    <-ctx.Done()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    _ = srv.Shutdown(shutdownCtx)
    sched.Stop(shutdownCtx)
}
