package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"prod-dashboard/internal/storage"
)

// FilterOptions collects the distinct values offered by the dashboard filters.
func (s *Storage) FilterOptions(ctx context.Context) (storage.FilterOptions, error) {
	const op = "storage.mysql.FilterOptions"

	var opts storage.FilterOptions
	prefixWhere := ""
	var args []any
	if s.orderPrefix != "" {
		prefixWhere = " WHERE NUMERO_OFDA LIKE ?"
		args = append(args, s.orderPrefix+"%")
	}

	err := s.readOnly(ctx, op, func(tx *sql.Tx) error {
		var err error

		opts.Families, err = distinct(ctx, tx, "COALESCE(CATEGORIE, '"+defaultFamily+"')", prefixWhere, args)
		if err != nil {
			return classify(op, "families", err)
		}
		opts.Clients, err = distinct(ctx, tx, "COALESCE(CLIENT, '"+defaultClient+"')", prefixWhere, args)
		if err != nil {
			return classify(op, "clients", err)
		}
		opts.Sectors, err = distinct(ctx, tx, "COALESCE(SECTEUR, '"+defaultSector+"')", prefixWhere, args)
		if err != nil {
			return classify(op, "sectors", err)
		}

		codes, err := distinct(ctx, tx, "COALESCE(STATUT, '')", prefixWhere, args)
		if err != nil {
			return classify(op, "statuses", err)
		}
		seen := make(map[storage.Status]bool)
		for _, c := range codes {
			st := storage.StatusFromCode(c)
			if !seen[st] {
				seen[st] = true
				opts.Statuses = append(opts.Statuses, st)
			}
		}

		var minDate, maxDate sql.NullTime
		row := tx.QueryRowContext(ctx, `
			SELECT MIN(LANCE_LE),
			       MAX(LANCE_LE),
			       COUNT(*)
			FROM OF_DA`+prefixWhere, args...)
		if err := row.Scan(&minDate, &maxDate, &opts.TotalRecords); err != nil {
			return classify(op, "date range", err)
		}
		opts.MinDate = nullTime(minDate)
		opts.MaxDate = nullTime(maxDate)

		return nil
	})
	if err != nil {
		return storage.FilterOptions{}, err
	}

	return opts, nil
}

func distinct(ctx context.Context, tx *sql.Tx, expr, where string, args []any) ([]string, error) {
	stmt := fmt.Sprintf("SELECT DISTINCT %s AS v FROM OF_DA%s ORDER BY v", expr, where)

	rows, err := tx.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	return values, rows.Err()
}
