package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"

	"prod-dashboard/internal/apperr"
	"prod-dashboard/internal/config"
)

// Storage is a read-only adapter over the ERP schema (OF_DA, HISTO_OF_DA,
// SALARIES, SECTEURS). It never issues a mutating statement.
type Storage struct {
	db          *sql.DB
	log         *slog.Logger
	slowQuery   time.Duration
	orderPrefix string
}

func New(ctx context.Context, log *slog.Logger, cfg config.Database) (*Storage, error) {
	const op = "storage.mysql.New"

	dsn := mysql.NewConfig()
	dsn.User = cfg.User
	dsn.Passwd = cfg.Password
	dsn.Net = "tcp"
	dsn.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	dsn.DBName = cfg.Name
	dsn.ParseTime = true
	dsn.Loc = time.Local

	db, err := sql.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, apperr.Connection("cannot open database", apperr.WithCause(err)))
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, apperr.Connection("database unreachable", apperr.WithCause(err)))
	}

	return NewWithDB(db, log, cfg.SlowQuery, cfg.OrderPrefix), nil
}

// NewWithDB wraps an already opened handle.
func NewWithDB(db *sql.DB, log *slog.Logger, slowQuery time.Duration, orderPrefix string) *Storage {
	if log == nil {
		log = slog.Default()
	}
	return &Storage{
		db:          db,
		log:         log.With(slog.String("component", "storage.mysql")),
		slowQuery:   slowQuery,
		orderPrefix: orderPrefix,
	}
}

func (s *Storage) Ping(ctx context.Context) error {
	const op = "storage.mysql.Ping"

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, apperr.Connection("database unreachable", apperr.WithCause(err)))
	}
	return nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}
