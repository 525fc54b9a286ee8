package mysql

import (
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var orderCols = []string{
	"NUMERO_OFDA", "PRODUIT", "DESIGNATION", "STATUT",
	"QUANTITE_DEMANDEE", "CUMUL_ENTREES", "DUREE_PREVUE", "CUMUL_TEMPS_PASSES",
	"LANCE_LE", "LANCEMENT_AU_PLUS_TARD", "DISPO_DEMANDEE",
	"CLIENT", "CATEGORIE", "SECTEUR", "AFFAIRE",
}

func newMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewWithDB(db, slog.Default(), 0, "F"), mock
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
