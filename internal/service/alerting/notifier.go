// Package alerting detects overdue and overrunning orders and notifies about
// them on a timer.
//
// Each breach is notified once per run window. A key is remembered only after
// a successful send, so a failed delivery is retried by the next scheduled
// check and never interrupts the current one. Closed orders are announced once
// and a production digest goes out once per run window when enabled.
package alerting

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"prod-dashboard/internal/service/calculator"
	"prod-dashboard/internal/storage"
)

// RecordSource yields the current in-progress records with their metrics and
// the recently closed orders.
type RecordSource interface {
	ActiveRecords(ctx context.Context) ([]calculator.Record, error)
	CompletedSince(ctx context.Context, since time.Time) ([]storage.HistoricalOrder, error)
}

// Recorder receives notifier counters; telemetry.Metrics implements it.
type Recorder interface {
	NotificationSent(kind string)
	NotificationFailed(kind string)
	CheckCompleted(result string)
	OpenBreaches(counts map[string]int)
}

type Settings struct {
	Enabled      bool
	Interval     time.Duration
	RunWindow    time.Duration
	Retention    time.Duration
	Timeout      time.Duration
	Completions  bool
	DailySummary bool
	Rules        Rules
}

type Result struct {
	Breaches    int  `json:"breaches"`
	Sent        int  `json:"sent"`
	Skipped     int  `json:"skipped"`
	Failed      int  `json:"failed"`
	Completions int  `json:"completions,omitempty"`
	SummarySent bool `json:"summary_sent,omitempty"`
}

type Notifier struct {
	log      *slog.Logger
	source   RecordSource
	sender   Sender
	recorder Recorder
	settings Settings
	now      func() time.Time

	// mu guards only the key sets; loading and sending run without it.
	mu      sync.Mutex
	sent    map[string]time.Time
	pending map[string]struct{}
}

func NewNotifier(log *slog.Logger, source RecordSource, sender Sender, recorder Recorder, settings Settings) *Notifier {
	if settings.RunWindow <= 0 {
		settings.RunWindow = 24 * time.Hour
	}
	if settings.Timeout <= 0 {
		settings.Timeout = time.Minute
	}
	return &Notifier{
		log:      log.With(slog.String("component", "alerting")),
		source:   source,
		sender:   sender,
		recorder: recorder,
		settings: settings,
		now:      time.Now,
		sent:     make(map[string]time.Time),
		pending:  make(map[string]struct{}),
	}
}

// Run checks immediately, then on every interval until ctx is done.
func (n *Notifier) Run(ctx context.Context) {
	if !n.settings.Enabled {
		n.log.Info("alerting disabled")
		return
	}
	if n.settings.Interval <= 0 {
		n.log.Error("alerting interval must be positive", slog.Duration("interval", n.settings.Interval))
		return
	}

	n.log.Info("alerting started", slog.Duration("interval", n.settings.Interval))

	ticker := time.NewTicker(n.settings.Interval)
	defer ticker.Stop()

	for {
		n.runOnce(ctx)

		select {
		case <-ctx.Done():
			n.log.Info("alerting stopped")
			return
		case <-ticker.C:
		}
	}
}

func (n *Notifier) runOnce(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, n.settings.Timeout)
	defer cancel()

	res, err := n.Check(checkCtx)
	if err != nil {
		n.log.Error("alert check failed", slog.String("error", err.Error()))
		return
	}
	n.log.Info("alert check done",
		slog.Int("breaches", res.Breaches),
		slog.Int("sent", res.Sent),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed),
		slog.Int("completions", res.Completions),
		slog.Bool("summary_sent", res.SummarySent),
	)
}

// Check runs one detection pass. Only a failure to load active records is
// returned; delivery failures are logged and counted in Result.Failed.
func (n *Notifier) Check(ctx context.Context) (Result, error) {
	const op = "alerting.Notifier.Check"

	records, err := n.source.ActiveRecords(ctx)
	if err != nil {
		n.record(func(r Recorder) { r.CheckCompleted("error") })
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	now := n.now()
	window := now.Truncate(n.settings.RunWindow)
	breaches := Detect(records, n.settings.Rules)

	res := Result{Breaches: len(breaches)}
	for _, b := range breaches {
		n.dispatch(ctx, &res, b.Kind, b.OrderID, window, now, func() (Notification, error) {
			return Build(b)
		})
	}

	if n.settings.Completions || n.settings.DailySummary {
		completed, err := n.source.CompletedSince(ctx, now.Add(-n.settings.RunWindow))
		if err != nil {
			// сводка и закрытия подождут следующей проверки
			n.log.Error("closed orders unavailable", slog.String("op", op), slog.String("error", err.Error()))
		} else {
			if n.settings.Completions {
				res.Completions = len(completed)
				for _, o := range completed {
					// закрытие сообщается один раз, без окна
					n.dispatch(ctx, &res, KindCompleted, o.ID, time.Time{}, now, func() (Notification, error) {
						return BuildCompletion(o)
					})
				}
			}
			if n.settings.DailySummary {
				s := Summarize(now, records, completed, breaches)
				res.SummarySent = n.dispatch(ctx, &res, KindDailySummary, "", window, now, func() (Notification, error) {
					return BuildSummary(s)
				})
			}
		}
	}

	n.prune(now)

	n.record(func(r Recorder) {
		r.OpenBreaches(CountByKind(breaches))
		r.CheckCompleted("ok")
	})

	return res, nil
}

// SendSummary sends the production digest now, whatever was sent earlier in
// the window, and marks the window as done.
func (n *Notifier) SendSummary(ctx context.Context) (DailySummary, error) {
	const op = "alerting.Notifier.SendSummary"

	records, err := n.source.ActiveRecords(ctx)
	if err != nil {
		return DailySummary{}, fmt.Errorf("%s: %w", op, err)
	}

	now := n.now()
	completed, err := n.source.CompletedSince(ctx, now.Add(-n.settings.RunWindow))
	if err != nil {
		return DailySummary{}, fmt.Errorf("%s: %w", op, err)
	}

	s := Summarize(now, records, completed, Detect(records, n.settings.Rules))
	msg, err := BuildSummary(s)
	if err != nil {
		return DailySummary{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		n.record(func(r Recorder) { r.NotificationFailed(string(KindDailySummary)) })
		return DailySummary{}, fmt.Errorf("%s: %w", op, err)
	}

	n.mu.Lock()
	n.sent[dedupeKey(KindDailySummary, "", now.Truncate(n.settings.RunWindow))] = now
	n.mu.Unlock()

	n.record(func(r Recorder) { r.NotificationSent(string(KindDailySummary)) })
	return s, nil
}

// dispatch sends one notification unless its key was already sent or is being
// sent by a concurrent check. It reports whether the send happened.
func (n *Notifier) dispatch(ctx context.Context, res *Result, kind Kind, orderID string, window, now time.Time, build func() (Notification, error)) bool {
	key := dedupeKey(kind, orderID, window)
	if !n.claim(key) {
		res.Skipped++
		return false
	}

	msg, err := build()
	if err == nil {
		err = n.sender.Send(ctx, msg)
	}
	n.settle(key, now, err == nil)

	if err != nil {
		res.Failed++
		n.log.Error("notification failed",
			slog.String("key", key),
			slog.String("kind", string(kind)),
			slog.String("order", orderID),
			slog.String("error", err.Error()),
		)
		n.record(func(r Recorder) { r.NotificationFailed(string(kind)) })
		return false
	}

	res.Sent++
	n.record(func(r Recorder) { r.NotificationSent(string(kind)) })
	return true
}

func (n *Notifier) claim(key string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, done := n.sent[key]; done {
		return false
	}
	if _, busy := n.pending[key]; busy {
		return false
	}
	n.pending[key] = struct{}{}
	return true
}

func (n *Notifier) settle(key string, at time.Time, ok bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.pending, key)
	if ok {
		n.sent[key] = at
	}
}

// prune forgets keys older than the retention period.
func (n *Notifier) prune(now time.Time) {
	if n.settings.Retention <= 0 {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	for key, at := range n.sent {
		if now.Sub(at) > n.settings.Retention {
			delete(n.sent, key)
		}
	}
}

func (n *Notifier) record(fn func(Recorder)) {
	if n.recorder != nil {
		fn(n.recorder)
	}
}

func dedupeKey(kind Kind, orderID string, window time.Time) string {
	return fmt.Sprintf("%s|%s|%d", kind, orderID, window.Unix())
}
