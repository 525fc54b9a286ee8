package alerting

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"prod-dashboard/internal/apperr"
	"prod-dashboard/internal/service/calculator"
	"prod-dashboard/internal/storage"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) ActiveRecords(ctx context.Context) ([]calculator.Record, error) {
	args := m.Called(ctx)

	records := []calculator.Record{}
	if args.Get(0) != nil {
		records = args.Get(0).([]calculator.Record)
	}

	return records, args.Error(1)
}

func (m *MockSource) CompletedSince(ctx context.Context, since time.Time) ([]storage.HistoricalOrder, error) {
	args := m.Called(ctx, since)

	history := []storage.HistoricalOrder{}
	if args.Get(0) != nil {
		history = args.Get(0).([]storage.HistoricalOrder)
	}

	return history, args.Error(1)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, n Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

var today = time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC)

func rules() Rules {
	return Rules{UrgentWindowDays: 2, UrgentProgress: 0.7}
}

func records() []calculator.Record {
	d := func(n int) time.Time { return today.AddDate(0, 0, n) }
	orders := []storage.ManufacturingOrder{
		// просрочен и перерасход времени
		{ID: "F1", Status: storage.StatusInProgress, RequestedQuantity: 10, ProducedQuantity: 2, PlannedDuration: 10, ElapsedDuration: 15, DueDate: d(-3)},
		// срок через 1 день, прогресс 50%
		{ID: "F2", Status: storage.StatusInProgress, RequestedQuantity: 10, ProducedQuantity: 5, PlannedDuration: 10, ElapsedDuration: 5, DueDate: d(1)},
		// срок через 1 день, но почти готов
		{ID: "F3", Status: storage.StatusInProgress, RequestedQuantity: 10, ProducedQuantity: 9, PlannedDuration: 10, ElapsedDuration: 9, DueDate: d(1)},
		// закрыт, не проверяется
		{ID: "F4", Status: storage.StatusCompleted, RequestedQuantity: 10, ProducedQuantity: 1, PlannedDuration: 1, ElapsedDuration: 5, DueDate: d(-9)},
		// ровно по плану: 1.0 не тревога
		{ID: "F5", Status: storage.StatusInProgress, RequestedQuantity: 10, ProducedQuantity: 9, PlannedDuration: 10, ElapsedDuration: 10, DueDate: d(20)},
	}
	return calculator.DeriveAll(orders, nil, calculator.Params{Today: today, NearTermWindowDays: 5})
}

func TestDetect(t *testing.T) {
	breaches := Detect(records(), rules())

	require.Len(t, breaches, 3)
	assert.Equal(t, KindOverdue, breaches[0].Kind)
	assert.Equal(t, SeverityCritical, breaches[0].Severity)
	assert.Equal(t, "F1", breaches[0].OrderID)
	assert.Equal(t, 3, breaches[0].DelayDays)
	assert.Equal(t, KindTimeOverrun, breaches[1].Kind)
	assert.Equal(t, "F1", breaches[1].OrderID)
	assert.Equal(t, KindNearDue, breaches[2].Kind)
	assert.Equal(t, "F2", breaches[2].OrderID)

	assert.Equal(t, map[string]int{"overdue": 1, "time_overrun": 1, "near_due": 1}, CountByKind(breaches))
	assert.Empty(t, Detect(nil, rules()))
}

func newTestNotifier(src RecordSource, sender Sender) *Notifier {
	n := NewNotifier(slog.Default(), src, sender, nil, Settings{
		Enabled:   true,
		Interval:  time.Hour,
		RunWindow: 24 * time.Hour,
		Retention: 7 * 24 * time.Hour,
		Rules:     rules(),
	})
	n.now = func() time.Time { return today }
	return n
}

func TestCheck_NotifiesOncePerWindow(t *testing.T) {
	src := new(MockSource)
	src.On("ActiveRecords", mock.Anything).Return(records(), nil)

	sender := new(MockSender)
	sender.On("Send", mock.Anything, mock.AnythingOfType("alerting.Notification")).Return(nil)

	n := newTestNotifier(src, sender)

	res, err := n.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Breaches: 3, Sent: 3}, res)

	// повторная проверка в том же окне ничего не отправляет
	n.now = func() time.Time { return today.Add(6 * time.Hour) }
	res, err = n.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Breaches: 3, Skipped: 3}, res)

	sender.AssertNumberOfCalls(t, "Send", 3)

	// новое окно: нарушения отправляются снова
	n.now = func() time.Time { return today.Add(24 * time.Hour) }
	res, err = n.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Sent)

	sender.AssertNumberOfCalls(t, "Send", 6)
	src.AssertExpectations(t)
}

func TestCheck_FailedSendIsRetriedNextTime(t *testing.T) {
	src := new(MockSource)
	src.On("ActiveRecords", mock.Anything).Return(records(), nil)

	sender := new(MockSender)
	isOverdue := mock.MatchedBy(func(n Notification) bool { return n.Kind == KindOverdue })
	isOther := mock.MatchedBy(func(n Notification) bool { return n.Kind != KindOverdue })
	sender.On("Send", mock.Anything, isOverdue).Return(apperr.Notification("smtp: 421 try later")).Once()
	sender.On("Send", mock.Anything, isOther).Return(nil)
	sender.On("Send", mock.Anything, isOverdue).Return(nil)

	n := newTestNotifier(src, sender)

	res, err := n.Check(context.Background())
	require.NoError(t, err, "ошибка отправки не прерывает проверку")
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 2, res.Sent)

	res, err = n.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 0, res.Failed)
}

func TestCheck_SourceErrorIsReturned(t *testing.T) {
	src := new(MockSource)
	src.On("ActiveRecords", mock.Anything).Return(nil, apperr.Connection("database unreachable"))

	sender := new(MockSender)
	n := newTestNotifier(src, sender)

	_, err := n.Check(context.Background())

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConnection))
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestCheck_PrunesOldKeys(t *testing.T) {
	src := new(MockSource)
	src.On("ActiveRecords", mock.Anything).Return([]calculator.Record{}, nil)

	n := newTestNotifier(src, new(MockSender))
	n.sent["overdue|OLD|0"] = today.Add(-8 * 24 * time.Hour)
	n.sent["overdue|NEW|0"] = today.Add(-time.Hour)

	_, err := n.Check(context.Background())
	require.NoError(t, err)

	assert.NotContains(t, n.sent, "overdue|OLD|0")
	assert.Contains(t, n.sent, "overdue|NEW|0")
}

// gateSender задерживает первую отправку, пока тест её не отпустит.
type gateSender struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}

	mu   sync.Mutex
	sent []string
}

func (s *gateSender) Send(_ context.Context, msg Notification) error {
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.started)
		<-s.release
	}

	s.mu.Lock()
	s.sent = append(s.sent, msg.Subject)
	s.mu.Unlock()
	return nil
}

func TestCheck_ConcurrentCheckIsNotBlockedBySlowSend(t *testing.T) {
	src := new(MockSource)
	src.On("ActiveRecords", mock.Anything).Return(records(), nil)

	sender := &gateSender{started: make(chan struct{}), release: make(chan struct{})}
	n := newTestNotifier(src, sender)

	first := make(chan Result, 1)
	go func() {
		res, _ := n.Check(context.Background())
		first <- res
	}()
	<-sender.started

	second := make(chan Result, 1)
	go func() {
		res, _ := n.Check(context.Background())
		second <- res
	}()

	select {
	case res := <-second:
		// ключ первой проверки занят и пропускается, остальные уходят сразу
		assert.Equal(t, Result{Breaches: 3, Sent: 2, Skipped: 1}, res)
	case <-time.After(time.Second):
		t.Fatal("second check waited for the first one's delivery")
	}

	close(sender.release)
	assert.Equal(t, Result{Breaches: 3, Sent: 1, Skipped: 2}, <-first)
	assert.Len(t, sender.sent, 3)
}

func closed() []storage.HistoricalOrder {
	return []storage.HistoricalOrder{
		{ManufacturingOrder: storage.ManufacturingOrder{ID: "F10", Product: "P-10", RequestedQuantity: 5, ProducedQuantity: 5}, ClosedAt: today.Add(-2 * time.Hour)},
		{ManufacturingOrder: storage.ManufacturingOrder{ID: "F11", Product: "P-11", RequestedQuantity: 8, ProducedQuantity: 8}, ClosedAt: today.Add(-20 * time.Hour)},
	}
}

func newDigestNotifier(src RecordSource, sender Sender) *Notifier {
	n := newTestNotifier(src, sender)
	n.settings.Completions = true
	n.settings.DailySummary = true
	return n
}

func TestCheck_CompletionsAndDailySummary(t *testing.T) {
	src := new(MockSource)
	src.On("ActiveRecords", mock.Anything).Return(records(), nil)
	src.On("CompletedSince", mock.Anything, mock.Anything).Return(closed(), nil)

	sender := new(MockSender)
	isSummary := mock.MatchedBy(func(n Notification) bool { return n.Kind == KindDailySummary })
	isOther := mock.MatchedBy(func(n Notification) bool { return n.Kind != KindDailySummary })
	sender.On("Send", mock.Anything, isSummary).Return(nil)
	sender.On("Send", mock.Anything, isOther).Return(nil)

	n := newDigestNotifier(src, sender)

	res, err := n.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Breaches: 3, Sent: 6, Completions: 2, SummarySent: true}, res)
	src.AssertCalled(t, "CompletedSince", mock.Anything, today.Add(-24*time.Hour))

	// в том же окне ни закрытия, ни сводка не повторяются
	n.now = func() time.Time { return today.Add(time.Hour) }
	res, err = n.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Breaches: 3, Skipped: 6, Completions: 2}, res)

	// следующее окно: нарушения и сводка снова, закрытия уже известны
	n.now = func() time.Time { return today.Add(24 * time.Hour) }
	res, err = n.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Sent)
	assert.Equal(t, 2, res.Skipped)
	assert.True(t, res.SummarySent)

	sender.AssertNumberOfCalls(t, "Send", 10)
}

func TestCheck_ClosedOrdersErrorKeepsBreaches(t *testing.T) {
	src := new(MockSource)
	src.On("ActiveRecords", mock.Anything).Return(records(), nil)
	src.On("CompletedSince", mock.Anything, mock.Anything).Return(nil, apperr.Query("database query failed"))

	sender := new(MockSender)
	sender.On("Send", mock.Anything, mock.Anything).Return(nil)

	n := newDigestNotifier(src, sender)

	res, err := n.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Breaches: 3, Sent: 3}, res)
}

func TestSendSummary(t *testing.T) {
	src := new(MockSource)
	src.On("ActiveRecords", mock.Anything).Return(records(), nil)
	src.On("CompletedSince", mock.Anything, mock.Anything).Return(closed(), nil)

	var got Notification
	sender := new(MockSender)
	sender.On("Send", mock.Anything, mock.Anything).Return(nil).
		Run(func(args mock.Arguments) {
			if msg := args.Get(1).(Notification); msg.Kind == KindDailySummary && got.ID == "" {
				got = msg
			}
		})

	n := newDigestNotifier(src, sender)

	s, err := n.SendSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, s.KPIs.InProgress)
	assert.Equal(t, 2, s.Completed)
	assert.Equal(t, map[string]int{"overdue": 1, "time_overrun": 1, "near_due": 1}, s.Breaches)

	assert.Equal(t, "Synthèse de production du 16/03/2026", got.Subject)
	assert.Contains(t, got.Text, "4 OF en cours, 2 clôturés")
	assert.Contains(t, got.HTML, "Alertes ouvertes")

	// окно уже отмечено, плановая проверка сводку не дублирует
	res, err := n.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, res.SummarySent)
}

func TestSendSummary_SendError(t *testing.T) {
	src := new(MockSource)
	src.On("ActiveRecords", mock.Anything).Return(records(), nil)
	src.On("CompletedSince", mock.Anything, mock.Anything).Return(nil, nil)

	sender := new(MockSender)
	sender.On("Send", mock.Anything, mock.Anything).Return(apperr.Notification("smtp: 421 try later"))

	n := newDigestNotifier(src, sender)

	_, err := n.SendSummary(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotification))
	assert.Empty(t, n.sent)
}

func TestBuildCompletion(t *testing.T) {
	msg, err := BuildCompletion(closed()[0])
	require.NoError(t, err)

	assert.Equal(t, KindCompleted, msg.Kind)
	assert.Equal(t, SeverityInfo, msg.Severity)
	assert.Equal(t, "[info] OF terminé - F10", msg.Subject)
	assert.Contains(t, msg.HTML, "16/03/2026")
	assert.Contains(t, msg.Text, "5/5")
}

func TestRun_DisabledReturnsImmediately(t *testing.T) {
	src := new(MockSource)
	n := NewNotifier(slog.Default(), src, new(MockSender), nil, Settings{Enabled: false})

	done := make(chan struct{})
	go func() {
		n.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return for disabled notifier")
	}
	src.AssertNotCalled(t, "ActiveRecords", mock.Anything)
}

func TestRun_ChecksUntilCancelled(t *testing.T) {
	var checks atomic.Int32
	src := new(MockSource)
	src.On("ActiveRecords", mock.Anything).Return([]calculator.Record{}, nil).
		Run(func(mock.Arguments) { checks.Add(1) })

	n := newTestNotifier(src, new(MockSender))
	n.settings.Interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return checks.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestBuild(t *testing.T) {
	b := Detect(records(), rules())[0]

	msg, err := Build(b)
	require.NoError(t, err)

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "[critical] OF en retard - F1", msg.Subject)
	assert.Contains(t, msg.HTML, "#dc3545")
	assert.Contains(t, msg.HTML, "F1")
	assert.Contains(t, msg.Text, "3 jour(s)")

	other, err := Build(b)
	require.NoError(t, err)
	assert.NotEqual(t, msg.ID, other.ID)
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, LogSender{Log: slog.Default()}.Send(context.Background(), Notification{Subject: "s"}))
}
