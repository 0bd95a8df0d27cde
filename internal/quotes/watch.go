package quotes

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lfarina18/metafar-challenge/internal/market"
	"github.com/lfarina18/metafar-challenge/internal/notify"
	"github.com/lfarina18/metafar-challenge/internal/querycache"
)

// Update is one result delivered by Watch.
type Update struct {
	Plan Plan
	// Series is the freshest data known for Plan.Key. On a failed fetch it
	// holds what the cache kept from earlier, if anything.
	Series    *market.TimeSeries
	Err       error
	NoData    bool
	FetchedAt time.Time
}

// Watch follows sess and delivers chart data for it until ctx is done. It
// fetches at once whenever the cache key changes or polling resumes, and
// then every Plan.PollEvery while real-time mode is active. A session change
// cancels the request in flight; pausing drops it without a retry. Only the
// latest undelivered update is kept; the channel is closed when ctx is done.
func (s *Service) Watch(ctx context.Context, sess *Session) <-chan Update {
	out := make(chan Update, 1)
	w := &watcher{
		svc:    s,
		sess:   sess,
		out:    out,
		logger: s.logger.With(zap.String("watcher", uuid.NewString()), zap.String("symbol", sess.Symbol())),
	}
	go w.run(ctx)
	return out
}

type watcher struct {
	svc    *Service
	sess   *Session
	out    chan Update
	logger *zap.Logger

	key        string
	detach     func()
	mode       Mode
	primed     bool
	superseded bool
}

func (w *watcher) run(ctx context.Context) {
	defer close(w.out)
	defer func() {
		if w.detach != nil {
			w.detach()
		}
	}()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	ticked := false
	for {
		changed := w.sess.Changed()
		plan := PlanQuote(w.sess.Options(), w.svc.hours, w.svc.now())
		if w.step(ctx, changed, plan, ticked) {
			ticked = false
			continue
		}

		if plan.PollEvery > 0 {
			timer.Reset(plan.PollEvery)
		} else {
			timer.Stop()
		}

		select {
		case <-ctx.Done():
			w.logger.Debug("watch stopped")
			return
		case <-changed:
			ticked = false
		case <-timer.C:
			ticked = true
		}
	}
}

// step delivers the update for plan. It reports whether a session change
// superseded the fetch, in which case nothing was sent.
func (w *watcher) step(ctx context.Context, changed <-chan struct{}, plan Plan, ticked bool) bool {
	keyChanged := w.attach(plan.Key)
	resumed := w.primed && w.mode == ModeRealtimePaused && plan.Mode == ModeRealtimeActive
	edited := w.primed && keyChanged && plan.Mode == ModeHistorical
	retry := w.superseded && plan.Mode != ModeRealtimePaused
	w.mode, w.primed = plan.Mode, true

	u := Update{Plan: plan}
	if !plan.Enabled {
		w.superseded = false
		w.send(u)
		return false
	}
	if !keyChanged && !resumed && !ticked && !retry {
		u.Series = w.cached(plan.Key)
		w.send(u)
		return false
	}

	if edited {
		w.svc.notifier.Info(notify.MsgChartLoading)
	}
	w.superseded = false
	ts, superseded, err := w.fetch(ctx, changed, plan)
	if superseded {
		w.superseded = true
		return true
	}
	if ctx.Err() != nil {
		return false
	}
	u.FetchedAt = w.svc.now()
	if err != nil {
		u.Err = err
		u.NoData = notify.IsNoData(err)
		u.Series = w.cached(plan.Key)
		w.logger.Debug("chart fetch failed", zap.Stringer("key", plan.Key), zap.Bool("no_data", u.NoData), zap.Error(err))
	} else {
		u.Series = ts
		if edited {
			w.svc.notifier.Success(notify.MsgChartUpdated)
		}
	}
	w.send(u)
	return false
}

// fetch runs plan's request until it completes or the session changes. A
// change cancels the request, which aborts the cache flight when no other
// caller waits on it.
func (w *watcher) fetch(ctx context.Context, changed <-chan struct{}, plan Plan) (*market.TimeSeries, bool, error) {
	stepCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		ts  *market.TimeSeries
		err error
	}
	done := make(chan result, 1)
	go func() {
		ts, err := w.svc.fetchPlan(stepCtx, plan)
		done <- result{ts, err}
	}()

	select {
	case r := <-done:
		return r.ts, false, r.err
	case <-changed:
		cancel()
		<-done
		w.logger.Debug("chart fetch superseded", zap.Stringer("key", plan.Key))
		return nil, true, nil
	}
}

// attach moves the observer registration to key and reports whether it
// changed.
func (w *watcher) attach(key querycache.Key) bool {
	id := key.String()
	if w.detach != nil && w.key == id {
		return false
	}
	if w.detach != nil {
		w.detach()
	}
	w.key, w.detach = id, w.svc.cache.Attach(key)
	return true
}

func (w *watcher) cached(key querycache.Key) *market.TimeSeries {
	ts, _ := querycache.GetData[*market.TimeSeries](w.svc.cache, key)
	return ts.Sorted()
}

// send replaces any undelivered update with u.
func (w *watcher) send(u Update) {
	select {
	case <-w.out:
	default:
	}
	w.out <- u
}
