package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"prod-dashboard/internal/storage"
)

const (
	defaultClient = "Non défini"
	defaultFamily = "Non définie"
	defaultSector = "Non défini"
)

// orderColumns is shared by OF_DA and HISTO_OF_DA, scanned by scanOrder.
const orderColumns = `
	NUMERO_OFDA,
	COALESCE(PRODUIT, ''),
	COALESCE(DESIGNATION, ''),
	COALESCE(STATUT, ''),
	COALESCE(QUANTITE_DEMANDEE, 0),
	COALESCE(CUMUL_ENTREES, 0),
	COALESCE(DUREE_PREVUE, 0),
	COALESCE(CUMUL_TEMPS_PASSES, 0),
	LANCE_LE,
	LANCEMENT_AU_PLUS_TARD,
	DISPO_DEMANDEE,
	COALESCE(CLIENT, '` + defaultClient + `'),
	COALESCE(CATEGORIE, '` + defaultFamily + `'),
	COALESCE(SECTEUR, '` + defaultSector + `'),
	COALESCE(AFFAIRE, '')`

func (s *Storage) Orders(ctx context.Context, filter storage.OrderFilter) ([]storage.ManufacturingOrder, error) {
	const op = "storage.mysql.Orders"

	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stmt, args := buildOrdersQuery(s.orderPrefix, filter)

	var orders []storage.ManufacturingOrder
	err := s.readOnly(ctx, op, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, stmt, args...)
		if err != nil {
			return classify(op, "ошибка получения OF", err)
		}
		defer rows.Close()

		for rows.Next() {
			order, err := scanOrder(rows)
			if err != nil {
				return classify(op, "ошибка сканирования OF", err)
			}
			orders = append(orders, order)
		}

		if err := rows.Err(); err != nil {
			return classify(op, "ошибка чтения строк", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return orders, nil
}

func buildOrdersQuery(prefix string, filter storage.OrderFilter) (string, []any) {
	var where []string
	var args []any

	if prefix != "" {
		where = append(where, "NUMERO_OFDA LIKE ?")
		args = append(args, prefix+"%")
	}

	if filter.OrderID != "" {
		where = append(where, "NUMERO_OFDA = ?")
		args = append(args, filter.OrderID)
	}

	// Диапазон только по дате запуска: OF без LANCE_LE в него не попадает
	if !filter.From.IsZero() {
		where = append(where, "LANCE_LE >= ?")
		args = append(args, startOfDay(filter.From))
	}
	if !filter.To.IsZero() {
		where = append(where, "LANCE_LE < ?")
		args = append(args, startOfDay(filter.To).AddDate(0, 0, 1))
	}

	if len(filter.Statuses) > 0 {
		codes, hasError := statusCodes(filter.Statuses)
		var cond []string
		if len(codes) > 0 {
			cond = append(cond, "STATUT IN ("+placeholders(len(codes))+")")
			for _, c := range codes {
				args = append(args, c)
			}
		}
		if hasError {
			cond = append(cond, "COALESCE(STATUT, '') NOT IN ('C', 'T', 'A', 'P')")
		}
		where = append(where, "("+strings.Join(cond, " OR ")+")")
	}

	if filter.Family != "" {
		where = append(where, "COALESCE(CATEGORIE, '"+defaultFamily+"') = ?")
		args = append(args, filter.Family)
	}
	if filter.Client != "" {
		where = append(where, "COALESCE(CLIENT, '"+defaultClient+"') = ?")
		args = append(args, filter.Client)
	}
	if filter.Sector != "" {
		where = append(where, "COALESCE(SECTEUR, '"+defaultSector+"') = ?")
		args = append(args, filter.Sector)
	}

	stmt := "SELECT" + orderColumns + "\n\tFROM OF_DA"
	if len(where) > 0 {
		stmt += "\n\tWHERE " + strings.Join(where, "\n\t  AND ")
	}
	stmt += "\n\tORDER BY LANCEMENT_AU_PLUS_TARD DESC, NUMERO_OFDA ASC"

	return stmt, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner, extra ...any) (storage.ManufacturingOrder, error) {
	var o storage.ManufacturingOrder
	var launched, latest, availability sql.NullTime

	dest := []any{
		&o.ID, &o.Product, &o.Designation, &o.StatusCode,
		&o.RequestedQuantity, &o.ProducedQuantity, &o.PlannedDuration, &o.ElapsedDuration,
		&launched, &latest, &availability,
		&o.Client, &o.Family, &o.Sector, &o.Affair,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return storage.ManufacturingOrder{}, err
	}

	o.StatusCode = strings.TrimSpace(o.StatusCode)
	o.Status = storage.StatusFromCode(o.StatusCode)
	o.LaunchDate = nullTime(launched)
	o.DueDate = nullTime(latest)
	o.RequestedAvailability = nullTime(availability)

	return o, nil
}

func statusCodes(statuses []storage.Status) ([]string, bool) {
	var codes []string
	hasError := false
	seen := make(map[string]bool)
	for _, st := range statuses {
		code := st.Code()
		if code == "" {
			hasError = true
			continue
		}
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	return codes, hasError
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

func nullTime(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
