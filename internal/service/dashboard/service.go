// Package dashboard assembles derived production views from the ERP store.
//
// Every view is computed from one fetch: orders and closed history are read
// concurrently, metrics are derived in memory and the aggregators run on the
// result. Nothing is written back.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"prod-dashboard/internal/apperr"
	"prod-dashboard/internal/cache"
	"prod-dashboard/internal/service/alerting"
	"prod-dashboard/internal/service/calculator"
	"prod-dashboard/internal/service/export"
	"prod-dashboard/internal/service/report"
	"prod-dashboard/internal/storage"
)

const filterOptionsKey = "dashboard:filter-options"

type Storage interface {
	Orders(ctx context.Context, filter storage.OrderFilter) ([]storage.ManufacturingOrder, error)
	HistoricalOrders(ctx context.Context, from, to time.Time) ([]storage.HistoricalOrder, error)
	Employees(ctx context.Context) ([]storage.Employee, error)
	Sectors(ctx context.Context) ([]storage.Sector, error)
	FilterOptions(ctx context.Context) (storage.FilterOptions, error)
	Ping(ctx context.Context) error
}

type Settings struct {
	NearTermWindowDays  int
	ChargePeriodDays    int
	HistoryLookbackDays int
	TopN                int
	Location            *time.Location
	Rules               alerting.Rules
	CacheTTL            time.Duration
	Version             string
}

// Query narrows the records a view is computed from. Filter goes to the
// store; AlertOnly, Priority and Limit apply after derivation.
type Query struct {
	Filter    storage.OrderFilter
	AlertOnly bool
	Priority  calculator.Priority
	Limit     int
}

type Service struct {
	log      *slog.Logger
	storage  Storage
	cache    cache.Store
	settings Settings
	now      func() time.Time
}

func New(log *slog.Logger, st Storage, c cache.Store, settings Settings) *Service {
	if settings.Location == nil {
		settings.Location = time.Local
	}
	if settings.TopN <= 0 {
		settings.TopN = 10
	}
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{
		log:      log.With(slog.String("component", "dashboard")),
		storage:  st,
		cache:    c,
		settings: settings,
		now:      time.Now,
	}
}

// today is the current calendar day in the plant's time zone.
func (s *Service) today() time.Time {
	n := s.now().In(s.settings.Location)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, s.settings.Location)
}

type dataset struct {
	records []calculator.Record
	history []storage.HistoricalOrder
}

func (s *Service) load(ctx context.Context, q Query) (dataset, error) {
	const op = "dashboard.Service.load"

	if err := q.Filter.Validate(); err != nil {
		return dataset{}, fmt.Errorf("%s: %w", op, err)
	}

	today := s.today()
	var orders []storage.ManufacturingOrder
	var history []storage.HistoricalOrder

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.storage.Orders(gctx, q.Filter)
		return err
	})
	g.Go(func() error {
		var err error
		from := today.AddDate(0, 0, -s.settings.HistoryLookbackDays)
		history, err = s.storage.HistoricalOrders(gctx, from, today)
		return err
	})
	if err := g.Wait(); err != nil {
		return dataset{}, fmt.Errorf("%s: %w", op, err)
	}

	records := calculator.DeriveAll(orders, calculator.HistoricalUnitTimes(history), calculator.Params{
		Today:              today,
		NearTermWindowDays: s.settings.NearTermWindowDays,
	})

	return dataset{records: narrow(records, q), history: history}, nil
}

func narrow(records []calculator.Record, q Query) []calculator.Record {
	if !q.AlertOnly && q.Priority == "" && q.Limit <= 0 {
		return records
	}

	out := make([]calculator.Record, 0, len(records))
	for _, r := range records {
		if q.AlertOnly && !r.TimeAlert {
			continue
		}
		if q.Priority != "" && r.Priority != q.Priority {
			continue
		}
		out = append(out, r)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out
}

// Records returns the derived records matching q.
func (s *Service) Records(ctx context.Context, q Query) ([]calculator.Record, error) {
	ds, err := s.load(ctx, q)
	if err != nil {
		return nil, err
	}
	return ds.records, nil
}

func (s *Service) Order(ctx context.Context, id string) (calculator.Record, error) {
	const op = "dashboard.Service.Order"

	if id == "" {
		return calculator.Record{}, fmt.Errorf("%s: %w", op, apperr.Validation("order id is empty"))
	}

	records, err := s.Records(ctx, Query{Filter: storage.OrderFilter{OrderID: id}})
	if err != nil {
		return calculator.Record{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(records) == 0 {
		return calculator.Record{}, fmt.Errorf("%s: %w", op,
			apperr.NotFound("order not found", apperr.WithDetail("id", id)))
	}

	return records[0], nil
}

type Dashboard struct {
	GeneratedAt  time.Time           `json:"generated_at"`
	KPIs         report.KPIs         `json:"kpis"`
	ByStatus     []report.GroupStats `json:"by_status"`
	ByFamily     []report.GroupStats `json:"by_family"`
	Distribution report.Distribution `json:"distribution"`
	Backlog      []calculator.Record `json:"backlog"`
	Recent       []calculator.Record `json:"recent"`
	Alerts       []alerting.Breach   `json:"alerts"`
}

func (s *Service) Dashboard(ctx context.Context, q Query) (Dashboard, error) {
	const op = "dashboard.Service.Dashboard"

	ds, err := s.load(ctx, q)
	if err != nil {
		return Dashboard{}, fmt.Errorf("%s: %w", op, err)
	}

	r := ds.records
	backlog := report.Backlog(r)
	if len(backlog) > s.settings.TopN {
		backlog = backlog[:s.settings.TopN]
	}

	return Dashboard{
		GeneratedAt:  s.now(),
		KPIs:         report.ComputeKPIs(r),
		ByStatus:     report.Aggregate(r, report.ByStatus, report.DateRange{}).Groups,
		ByFamily:     report.TopGroups(report.Aggregate(r, report.ByFamily, report.DateRange{}).Groups, s.settings.TopN),
		Distribution: report.Distribute(r),
		Backlog:      backlog,
		Recent:       report.Recent(r, s.settings.TopN),
		Alerts:       alerting.Detect(r, s.settings.Rules),
	}, nil
}

func (s *Service) KPIs(ctx context.Context, q Query) (report.KPIs, error) {
	records, err := s.Records(ctx, q)
	if err != nil {
		return report.KPIs{}, fmt.Errorf("dashboard.Service.KPIs: %w", err)
	}
	return report.ComputeKPIs(records), nil
}

func (s *Service) Summary(ctx context.Context, q Query, by report.GroupBy) (report.Summary, error) {
	records, err := s.Records(ctx, q)
	if err != nil {
		return report.Summary{}, fmt.Errorf("dashboard.Service.Summary: %w", err)
	}
	return report.Aggregate(records, by, report.DateRange{}), nil
}

func (s *Service) Backlog(ctx context.Context, q Query) ([]calculator.Record, error) {
	limit := q.Limit
	q.Limit = 0

	records, err := s.Records(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("dashboard.Service.Backlog: %w", err)
	}

	backlog := report.Backlog(records)
	if limit > 0 && len(backlog) > limit {
		backlog = backlog[:limit]
	}
	return backlog, nil
}

func (s *Service) Alerts(ctx context.Context, q Query) ([]alerting.Breach, error) {
	records, err := s.Records(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("dashboard.Service.Alerts: %w", err)
	}
	return alerting.Detect(records, s.settings.Rules), nil
}

// ActiveRecords feeds the notifier with every in-progress order.
func (s *Service) ActiveRecords(ctx context.Context) ([]calculator.Record, error) {
	return s.Records(ctx, Query{Filter: storage.OrderFilter{
		Statuses: []storage.Status{storage.StatusInProgress},
	}})
}

// CompletedSince lists orders closed between since and today, by calendar day.
func (s *Service) CompletedSince(ctx context.Context, since time.Time) ([]storage.HistoricalOrder, error) {
	history, err := s.storage.HistoricalOrders(ctx, since.In(s.settings.Location), s.today())
	if err != nil {
		return nil, fmt.Errorf("dashboard.Service.CompletedSince: %w", err)
	}
	return history, nil
}

func (s *Service) Charge(ctx context.Context, q Query) ([]calculator.SectorCharge, error) {
	const op = "dashboard.Service.Charge"

	// Загрузка сектора считается по всем заказам, limit здесь не действует
	q.Limit = 0

	var (
		records   []calculator.Record
		sectors   []storage.Sector
		employees []storage.Employee
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.Records(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		sectors, err = s.storage.Sectors(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		employees, err = s.storage.Employees(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return calculator.ChargeRates(sectors, records, employees, s.settings.ChargePeriodDays), nil
}

func (s *Service) Employees(ctx context.Context) ([]storage.Employee, error) {
	employees, err := s.storage.Employees(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard.Service.Employees: %w", err)
	}
	return employees, nil
}

// FilterOptions is read through the cache. Cache failures only cost a query.
func (s *Service) FilterOptions(ctx context.Context) (storage.FilterOptions, error) {
	const op = "dashboard.Service.FilterOptions"
	log := s.log.With(slog.String("op", op))

	var opts storage.FilterOptions

	raw, err := s.cache.Get(ctx, filterOptionsKey)
	switch {
	case err == nil:
		uerr := json.Unmarshal(raw, &opts)
		if uerr == nil {
			return opts, nil
		}
		// Битая запись перезаписывается свежими данными ниже
		log.Warn("cached filter options are corrupt", slog.String("error", uerr.Error()))
	case !errors.Is(err, cache.ErrCacheMiss):
		log.Warn("cache read failed", slog.String("error", err.Error()))
	}

	opts, err = s.storage.FilterOptions(ctx)
	if err != nil {
		return storage.FilterOptions{}, fmt.Errorf("%s: %w", op, err)
	}

	if raw, err := json.Marshal(opts); err == nil {
		if err := s.cache.Set(ctx, filterOptionsKey, raw, s.settings.CacheTTL); err != nil {
			log.Warn("cache write failed", slog.String("error", err.Error()))
		}
	}

	return opts, nil
}

// Synthesis collects what the text and spreadsheet reports need.
func (s *Service) Synthesis(ctx context.Context, q Query) (export.Synthesis, error) {
	const op = "dashboard.Service.Synthesis"

	var (
		ds      dataset
		sectors []storage.Sector
		emps    []storage.Employee
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ds, err = s.load(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		sectors, err = s.storage.Sectors(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		emps, err = s.storage.Employees(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return export.Synthesis{}, fmt.Errorf("%s: %w", op, err)
	}

	r := ds.records
	return export.Synthesis{
		GeneratedAt: s.now().In(s.settings.Location),
		From:        q.Filter.From,
		To:          q.Filter.To,
		Records:     r,
		Historical:  len(ds.history),
		KPIs:        report.ComputeKPIs(r),
		TopDelayed:  report.TopByDelay(r, s.settings.TopN),
		Charge:      calculator.ChargeRates(sectors, r, emps, s.settings.ChargePeriodDays),
		ByStatus:    report.Aggregate(r, report.ByStatus, report.DateRange{}).Groups,
		TopFamilies: report.TopGroups(report.Aggregate(r, report.ByFamily, report.DateRange{}).Groups, s.settings.TopN),
		TopClients:  report.TopGroups(report.Aggregate(r, report.ByClient, report.DateRange{}).Groups, s.settings.TopN),
	}, nil
}

type Health struct {
	Status            string    `json:"status"`
	Timestamp         time.Time `json:"timestamp"`
	DatabaseConnected bool      `json:"database_connected"`
	Version           string    `json:"version"`
}

func (s *Service) Health(ctx context.Context) (Health, error) {
	h := Health{
		Status:            "healthy",
		Timestamp:         s.now(),
		DatabaseConnected: true,
		Version:           s.settings.Version,
	}

	if err := s.storage.Ping(ctx); err != nil {
		h.Status = "unhealthy"
		h.DatabaseConnected = false
		return h, fmt.Errorf("dashboard.Service.Health: %w", err)
	}

	return h, nil
}
