package integrity_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sohosai/hyperdashi-server/core/database"
	"github.com/sohosai/hyperdashi-server/core/database/dbtest"
	"github.com/sohosai/hyperdashi-server/core/labels"
	"github.com/sohosai/hyperdashi-server/core/middleware/errhandler"
	"github.com/sohosai/hyperdashi-server/core/reconcile"
	"github.com/sohosai/hyperdashi-server/feature/integrity"
	"github.com/sohosai/hyperdashi-server/feature/integrity/checks"
)

type fixture struct {
	db    *database.DB
	alloc *labels.Allocator
	svc   *integrity.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.SQLite(t)
	alloc := labels.NewAllocator(db, zap.NewNop(), nil)
	return &fixture{db: db, alloc: alloc, svc: integrity.NewService(db, alloc, zap.NewNop())}
}

func (f *fixture) exec(t *testing.T, stmt string, args ...any) {
	t.Helper()
	_, err := f.db.ExecContext(context.Background(), stmt, args...)
	require.NoError(t, err)
}

func (f *fixture) addItem(t *testing.T, label string, onLoan bool) int64 {
	t.Helper()
	f.exec(t, "INSERT INTO items (name, label_id, storage_type, is_on_loan) VALUES (?, ?, 'location', ?)",
		"item "+label, label, onLoan)
	var id int64
	require.NoError(t, f.db.QueryRowContext(context.Background(),
		"SELECT id FROM items WHERE label_id = ?", label).Scan(&id))
	return id
}

func (f *fixture) onLoan(t *testing.T, id int64) bool {
	t.Helper()
	var v bool
	require.NoError(t, f.db.QueryRowContext(context.Background(),
		"SELECT is_on_loan FROM items WHERE id = ?", id).Scan(&v))
	return v
}

func TestRun_Clean(t *testing.T) {
	f := newFixture(t)

	report, err := f.svc.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, integrity.StatusOK, report.Status)
	assert.Equal(t, map[string]int{"loan_flags": 0, "label_counter": 0, "schema": 0}, report.Plan.Summary.ByCheck)
}

func TestRun_LoanFlagDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.alloc.Allocate(ctx, 3); err != nil {
		t.Fatal(err)
	}

	stale := f.addItem(t, "0001", true)
	unflagged := f.addItem(t, "0002", false)
	consistent := f.addItem(t, "0003", false)
	f.exec(t, "INSERT INTO loans (item_id, student_number, student_name, loan_date) VALUES (?, 's1', 'Student', ?)",
		unflagged, time.Now())

	report, err := f.svc.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, integrity.StatusDrift, report.Status)
	assert.Equal(t, 2, report.Plan.Summary.ByCheck["loan_flags"])
	assert.Zero(t, report.Executed)
	assert.True(t, f.onLoan(t, stale), "report-only run must not write")

	report, err = f.svc.Run(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, integrity.StatusFixed, report.Status)
	assert.Equal(t, 2, report.Executed)
	assert.False(t, f.onLoan(t, stale))
	assert.True(t, f.onLoan(t, unflagged))
	assert.False(t, f.onLoan(t, consistent))

	report, err = f.svc.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, integrity.StatusOK, report.Status)
}

func TestRun_CounterBehind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addItem(t, "00A0", false)
	f.exec(t, "INSERT INTO containers (id, name, location) VALUES ('0050', 'Box', 'Room 1')")
	// Non-label ids never count.
	f.addItem(t, "legacy-7", false)

	report, err := f.svc.Run(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 1, report.Plan.Summary.ByCheck["label_counter"])
	assert.Equal(t, "00A0", report.Plan.Findings[0].Key)

	_, err = f.svc.Run(ctx, true)
	require.NoError(t, err)
	current, err := f.alloc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(360), current)

	codes, err := f.alloc.Allocate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"00A1"}, codes)
}

func TestRun_SchemaDriftIsReportOnly(t *testing.T) {
	f := newFixture(t)
	f.exec(t, "ALTER TABLE cable_colors ADD COLUMN legacy_code TEXT")

	report, err := f.svc.Run(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, integrity.StatusDrift, report.Status)
	require.Len(t, report.Plan.Findings, 1)
	assert.Equal(t, "cable_colors", report.Plan.Findings[0].Key)
	assert.Contains(t, report.Plan.Findings[0].Problem, "extra columns: legacy_code")
	assert.Zero(t, report.Executed)
}

func TestApply_RequiresConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addItem(t, "ABCD", true)

	plan, err := f.svc.Plan(ctx)
	require.NoError(t, err)
	n, err := f.svc.Apply(ctx, plan, reconcile.Options{Confirmed: true, DryRun: true})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, f.onLoan(t, id))
}

func TestRepairer_UnknownAction(t *testing.T) {
	f := newFixture(t)
	err := integrity.NewRepairer(f.db).Apply(context.Background(), reconcile.Action{Type: "drop_everything", Key: "1"})
	assert.Error(t, err)
}

func TestRepairer_PostgresShape(t *testing.T) {
	db, mock := dbtest.MockPostgres(t)
	mock.ExpectExec("UPDATE label_counter SET current_value = $1 WHERE id = 1 AND current_value < $2").
		WithArgs(int64(360), int64(360)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := integrity.NewRepairer(db).ApplyBatch(context.Background(), checks.ActionRaiseCounter, []string{"12", "360"})
	require.NoError(t, err)
}

func TestHandler(t *testing.T) {
	f := newFixture(t)
	f.addItem(t, "0009", true)
	app := fiber.New(fiber.Config{ErrorHandler: errhandler.New(zap.NewNop())})
	require.NoError(t, integrity.NewFeature(f.db, f.alloc, zap.NewNop()).Load(app))

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var report integrity.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, integrity.StatusDrift, report.Status)
	// One stale flag and a counter behind 0009.
	assert.Equal(t, 2, report.Plan.Summary.Findings)

	resp, err = app.Test(httptest.NewRequest("GET", "/integrity?fix=true", nil))
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, integrity.StatusFixed, report.Status)

	resp, err = app.Test(httptest.NewRequest("GET", "/integrity?fix=maybe", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
