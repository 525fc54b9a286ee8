package mysql

import (
	"context"
	"database/sql"

	"prod-dashboard/internal/storage"
)

func (s *Storage) Employees(ctx context.Context) ([]storage.Employee, error) {
	const op = "storage.mysql.Employees"

	stmt := `
		SELECT MATRICULE, NOM, COALESCE(QUALIFICATION, ''), ACTIF,
		       COALESCE(SECTEUR, '` + defaultSector + `'), COALESCE(COEFF_EFFICACITE, 1)
		FROM SALARIES
		ORDER BY NOM ASC, MATRICULE ASC
	`

	var employees []storage.Employee
	err := s.readOnly(ctx, op, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, stmt)
		if err != nil {
			return classify(op, "ошибка получения всех работников", err)
		}
		defer rows.Close()

		for rows.Next() {
			var e storage.Employee
			if err := rows.Scan(&e.ID, &e.Name, &e.Qualification, &e.Active, &e.Sector, &e.EfficiencyCoefficient); err != nil {
				return classify(op, "ошибка сканирования строк для всех сотрудников", err)
			}
			employees = append(employees, e)
		}

		if err := rows.Err(); err != nil {
			return classify(op, "ошибка чтения строк", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return employees, nil
}

func (s *Storage) Sectors(ctx context.Context) ([]storage.Sector, error) {
	const op = "storage.mysql.Sectors"

	stmt := `SELECT SECTEUR, COALESCE(CAPACITE_HORAIRE, 0) FROM SECTEURS ORDER BY SECTEUR ASC`

	var sectors []storage.Sector
	err := s.readOnly(ctx, op, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, stmt)
		if err != nil {
			return classify(op, "ошибка получения секторов", err)
		}
		defer rows.Close()

		for rows.Next() {
			var sec storage.Sector
			if err := rows.Scan(&sec.Name, &sec.HourlyCapacity); err != nil {
				return classify(op, "ошибка сканирования секторов", err)
			}
			sectors = append(sectors, sec)
		}

		if err := rows.Err(); err != nil {
			return classify(op, "ошибка чтения строк", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sectors, nil
}
