package main

import (
    "context"
    "encoding/json"
    "flag"
    "fmt"
    "log"
    "os"
    "os/signal"
    "strings"
    "syscall"
    "time"

    "github.com/lfarina18/metafar-challenge/internal/app"
    "github.com/lfarina18/metafar-challenge/internal/chart"
    "github.com/lfarina18/metafar-challenge/internal/config"
    "github.com/lfarina18/metafar-challenge/internal/logging"
    "github.com/lfarina18/metafar-challenge/internal/market"
    "github.com/lfarina18/metafar-challenge/internal/notify"
    "github.com/lfarina18/metafar-challenge/internal/quotes"
)

func main() {
    var (
        configPath string
        list       string
        detail     string
        search     string
        symbol     string
        interval   string
        realtime   bool
        startStr   string
        endStr     string
        watch      bool
        timeout    int
    )
    flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json or config.yaml (optional)")
    flag.StringVar(&list, "list", "", "print the instruments of an exchange (e.g. NASDAQ)")
    flag.StringVar(&detail, "detail", "", "print the instrument records of a symbol")
    flag.StringVar(&search, "search", "", "search symbols by free text")
    flag.StringVar(&symbol, "symbol", "", "print the time series of a symbol")
    flag.StringVar(&interval, "interval", string(market.DefaultInterval), "time series interval")
    flag.BoolVar(&realtime, "realtime", true, "use today's real-time window instead of -start/-end")
    flag.StringVar(&startStr, "start", "", "historical start, 2006-01-02 or 2006-01-02T15:04")
    flag.StringVar(&endStr, "end", "", "historical end, 2006-01-02 or 2006-01-02T15:04")
    flag.BoolVar(&watch, "watch", false, "keep polling -symbol until interrupted")
    flag.IntVar(&timeout, "timeout", getenvInt("REQUEST_TIMEOUT_SEC", 30), "one-shot timeout seconds")
    flag.Parse()

    cfg, err := config.Load(configPath)
    if err != nil { log.Fatalf("config: %v", err) }
    cfg.Cache.PersistPath = ""
    if os.Getenv("LOG_LEVEL") == "" { cfg.Log.Level = "warn" }
    cfg.Log.Format = "console"

    logger, err := logging.New(cfg.Log)
    if err != nil { log.Fatalf("logging: %v", err) }
    a, err := app.New(cfg, logger, notify.LogNotifier{Logger: logger.Named("notify")})
    if err != nil { log.Fatalf("app: %v", err) }
    defer a.Close()
    svc := a.Service

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    loc, err := cfg.Location()
    if err != nil { log.Fatalf("config: %v", err) }
    start, err := parseDate(startStr, loc)
    if err != nil { log.Fatalf("-start: %v", err) }
    end, err := parseDate(endStr, loc)
    if err != nil { log.Fatalf("-end: %v", err) }

    if watch {
        if symbol == "" { log.Fatal("-watch needs -symbol") }
        sess := svc.NewSession(strings.ToUpper(symbol))
        if err := sess.Apply(quotes.Preferences{Interval: market.Interval(interval), Start: start, End: end, Realtime: realtime}); err != nil {
            log.Fatalf("preferences: %v", err)
        }
        for u := range svc.Watch(ctx, sess) {
            printUpdate(u)
        }
        return
    }

    octx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
    defer cancel()

    switch {
    case list != "":
        res, err := svc.StockList(octx, list)
        if err != nil { log.Fatalf("list %s: %v", list, err) }
        printJSON(res.Data)
    case detail != "":
        res, err := svc.StockDetail(octx, strings.ToUpper(detail))
        if err != nil { log.Fatalf("detail %s: %v", detail, err) }
        printJSON(res.Data)
    case search != "":
        matches, err := svc.SearchSymbols(octx, search, 0)
        if err != nil { log.Fatalf("search %q: %v", search, err) }
        printJSON(matches)
    case symbol != "":
        ts, plan, err := svc.TimeSeries(octx, quotes.QuoteOptions{
            Symbol:   strings.ToUpper(symbol),
            Interval: market.Interval(interval),
            Start:    start,
            End:      end,
            Realtime: realtime,
        })
        if err != nil {
            if notify.IsNoData(err) { fmt.Println(notify.MsgNoData); return }
            log.Fatalf("time series %s: %v", symbol, err)
        }
        log.Printf("%s %s %s outputsize=%d points=%d", plan.Params.Symbol, plan.Params.Interval, plan.Mode, plan.Params.OutputSize, len(ts.Values))
        printJSON(ts)
    default:
        flag.Usage()
        os.Exit(2)
    }
}

func printUpdate(u quotes.Update) {
    switch {
    case !u.Plan.Enabled:
        fmt.Println("nothing to fetch")
    case u.NoData:
        fmt.Println(notify.MsgNoData)
    case u.Err != nil:
        fmt.Printf("%s: %s\n", u.Plan.Mode, notify.PublicMessage(u.Err))
    case u.Series != nil:
        points := chart.BuildSeries(u.Series.Values, chart.MaxPoints)
        abs, pct := chart.Change(points)
        last := "-"
        if len(points) > 0 { last = points[len(points)-1].Close.String() }
        fmt.Printf("%s %s %s points=%d last=%s change=%s (%s%%)\n",
            time.Now().Format(time.TimeOnly), u.Plan.Params.Symbol, u.Plan.Mode, len(points), last, abs, pct)
    default:
        fmt.Printf("%s waiting\n", u.Plan.Mode)
    }
}

func printJSON(v any) {
    b, _ := json.MarshalIndent(v, "", "  ")
    fmt.Println(string(b))
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
    if s == "" { return time.Time{}, nil }
    for _, layout := range []string{"2006-01-02T15:04", "2006-01-02"} {
        if t, err := time.ParseInLocation(layout, s, loc); err == nil { return t, nil }
    }
    return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func getenv(key, def string) string { if v := os.Getenv(key); v != "" { return v }; return def }
func getenvInt(key string, def int) int {
    if v := os.Getenv(key); v != "" {
        var x int
        _, _ = fmt.Sscanf(v, "%d", &x)
        if x != 0 { return x }
    }
    return def
}
