package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"prod-dashboard/internal/apperr"
	"prod-dashboard/internal/storage"
)

// HistoricalOrders returns closed orders whose closing date falls in [from, to].
// Zero bounds are open.
func (s *Storage) HistoricalOrders(ctx context.Context, from, to time.Time) ([]storage.HistoricalOrder, error) {
	const op = "storage.mysql.HistoricalOrders"

	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, fmt.Errorf("%s: %w", op, apperr.Validation("end date is before start date"))
	}

	var where []string
	var args []any

	if s.orderPrefix != "" {
		where = append(where, "NUMERO_OFDA LIKE ?")
		args = append(args, s.orderPrefix+"%")
	}
	if !from.IsZero() {
		where = append(where, "DATE_CLOTURE >= ?")
		args = append(args, startOfDay(from))
	}
	if !to.IsZero() {
		where = append(where, "DATE_CLOTURE < ?")
		args = append(args, startOfDay(to).AddDate(0, 0, 1))
	}

	stmt := "SELECT" + orderColumns + ",\n\tDATE_CLOTURE\n\tFROM HISTO_OF_DA"
	if len(where) > 0 {
		stmt += "\n\tWHERE " + strings.Join(where, " AND ")
	}
	stmt += "\n\tORDER BY DATE_CLOTURE DESC, NUMERO_OFDA ASC"

	var history []storage.HistoricalOrder
	err := s.readOnly(ctx, op, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, stmt, args...)
		if err != nil {
			return classify(op, "ошибка получения истории OF", err)
		}
		defer rows.Close()

		for rows.Next() {
			var closed sql.NullTime
			order, err := scanOrder(rows, &closed)
			if err != nil {
				return classify(op, "ошибка сканирования истории OF", err)
			}
			history = append(history, storage.HistoricalOrder{
				ManufacturingOrder: order,
				ClosedAt:           nullTime(closed),
			})
		}

		if err := rows.Err(); err != nil {
			return classify(op, "ошибка чтения строк", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return history, nil
}
