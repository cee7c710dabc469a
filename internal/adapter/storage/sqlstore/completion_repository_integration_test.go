//go:build integration

package sqlstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"

	"github.com/fleetcore/driver-completion/internal/domain"
	"github.com/fleetcore/driver-completion/pkg/config"
)

const dispatchSchema = `
CREATE TABLE Terminals (TerminalID INT PRIMARY KEY, TerminalName VARCHAR(64) NOT NULL);
CREATE TABLE Employees (
	ID INT PRIMARY KEY, DriverNo VARCHAR(16), FirstName VARCHAR(64), LastName VARCHAR(64),
	Status CHAR(1), Driver CHAR(1), DriverType CHAR(1), TerminalID INT REFERENCES Terminals(TerminalID)
);
CREATE TABLE ClientMaster (ClientID INT PRIMARY KEY, ClientName VARCHAR(64));
CREATE TABLE Orders (OrderTrackingID INT PRIMARY KEY, ClientID INT, Status CHAR(1), DeliveryTargetTo TIMESTAMP);
CREATE TABLE OrderDrivers (OrderTrackingID INT, DriverID INT);
`

const dispatchSeed = `
INSERT INTO Terminals VALUES (1, 'North'), (2, 'East');
INSERT INTO Employees VALUES
	(10, 'D1', 'Ann', 'Archer', 'A', 'Y', 'C', 1),
	(11, 'D2', 'Bob', 'Baker', 'A', 'Y', 'C', 1),
	(12, 'D3', 'Cal', 'Cole', 'A', 'Y', 'C', 2),
	(13, 'D4', 'Dee', 'Dunn', 'I', 'Y', 'C', 2),
	(14, 'D5', 'Eve', 'Ellis', 'A', 'Y', 'O', 2),
	(15, 'D6', 'Fay', 'Ford', 'A', 'N', 'C', 2);
INSERT INTO ClientMaster VALUES (100, 'Acme');
INSERT INTO Orders VALUES
	(1, 100, 'N', '2024-03-15 09:00:00'),
	(2, 100, 'C', '2024-03-15 10:00:00'),
	(3, 100, 'P', '2024-03-15 23:59:00'),
	(4, 100, 'D', '2024-03-15 11:00:00'),
	(5, 100, 'L', '2024-03-15 11:00:00'),
	(6, 100, 'N', '2024-03-14 23:59:00'),
	(7, 999, 'C', '2024-03-15 12:00:00'),
	(8, 100, 'C', '2024-03-16 00:00:00');
INSERT INTO OrderDrivers VALUES (1, 10), (2, 10), (3, 10), (4, 10), (5, 10), (6, 10), (7, 10), (8, 10);
`

func setupPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("dispatch"),
		tcpostgres.WithUsername("report"),
		tcpostgres.WithPassword("report"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("postgres container not available: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, dispatchSchema)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, dispatchSeed)
	require.NoError(t, err)

	return dsn
}

func TestCompletionRepository_Postgres(t *testing.T) {
	dsn := setupPostgres(t)
	log := zap.NewNop()

	db, err := NewConnection(config.DatabaseConfig{Driver: "postgres", URL: dsn}, log)
	require.NoError(t, err)
	defer Close(db)

	repo := NewCompletionRepository(db, 10*time.Second, log)
	ctx := context.Background()
	window := domain.NewWindow(time.Date(2024, 3, 15, 8, 59, 0, 0, time.UTC), 0, time.UTC)

	t.Run("roster", func(t *testing.T) {
		drivers, err := repo.ListActiveDrivers(ctx)
		require.NoError(t, err)
		require.Len(t, drivers, 3)

		assert.Equal(t, "East", drivers[0].TerminalName)
		assert.Equal(t, "D3", drivers[0].DriverNo)
		assert.Equal(t, "North", drivers[1].TerminalName)
		assert.Equal(t, "D1", drivers[1].DriverNo)
		assert.Equal(t, "Archer", drivers[1].LastName)
		assert.Equal(t, int64(10), drivers[1].EmployeeID)
	})

	t.Run("uncompleted", func(t *testing.T) {
		n, err := repo.CountUncompleted(ctx, 10, window)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("completed skips pending, lost, clientless and out of window orders", func(t *testing.T) {
		n, err := repo.CountCompleted(ctx, 10, window)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("two day window", func(t *testing.T) {
		wide := domain.NewWindow(time.Date(2024, 3, 15, 8, 59, 0, 0, time.UTC), 1, time.UTC)
		n, err := repo.CountUncompleted(ctx, 10, wide)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("driver without orders", func(t *testing.T) {
		n, err := repo.CountCompleted(ctx, 12, window)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
