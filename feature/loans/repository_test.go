package loans_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sohosai/hyperdashi-server/core/apperror"
	"github.com/sohosai/hyperdashi-server/core/database/dbtest"
	"github.com/sohosai/hyperdashi-server/core/labels"
	"github.com/sohosai/hyperdashi-server/core/query"
	"github.com/sohosai/hyperdashi-server/feature/items"
	"github.com/sohosai/hyperdashi-server/feature/loans"
)

type fixture struct {
	loans *loans.Repository
	items *items.Repository
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := dbtest.SQLite(t)
	return fixture{
		loans: loans.NewRepository(db, zap.NewNop(), nil),
		items: items.NewRepository(db, labels.NewAllocator(db, zap.NewNop(), nil), zap.NewNop(), nil),
	}
}

func ptr[T any](v T) *T { return &v }

func (f fixture) item(t *testing.T, name string) *items.Item {
	t.Helper()
	it, err := f.items.Create(context.Background(), items.CreateRequest{Name: name})
	require.NoError(t, err)
	return it
}

func (f fixture) lend(t *testing.T, itemID int64, student string) *loans.WithItem {
	t.Helper()
	loan, err := f.loans.Create(context.Background(), loans.CreateRequest{
		ItemID:        itemID,
		StudentNumber: student,
		StudentName:   "Student " + student,
	})
	require.NoError(t, err)
	return loan
}

func TestLoanLifecycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	it := f.item(t, "Projector")

	loan := f.lend(t, it.ID, "S001")
	assert.True(t, loan.Active())
	assert.Equal(t, "Projector", loan.ItemName)
	assert.Equal(t, it.LabelID, loan.ItemLabelID)
	assert.False(t, loan.LoanDate.IsZero())

	got, err := f.items.Get(ctx, it.ID)
	require.NoError(t, err)
	assert.True(t, got.IsOnLoan)

	_, err = f.loans.Create(ctx, loans.CreateRequest{ItemID: it.ID, StudentNumber: "S002", StudentName: "Other"})
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	returned, err := f.loans.Return(ctx, loan.ID, loans.ReturnRequest{Remarks: ptr("scratched lens")})
	require.NoError(t, err)
	require.NotNil(t, returned.ReturnDate)
	assert.Equal(t, "scratched lens", *returned.Remarks)

	got, err = f.items.Get(ctx, it.ID)
	require.NoError(t, err)
	assert.False(t, got.IsOnLoan)

	_, err = f.loans.Return(ctx, loan.ID, loans.ReturnRequest{})
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	// The item can be lent again once returned.
	f.lend(t, it.ID, "S002")
}

func TestCreate_Guards(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	disposed := f.item(t, "Broken amp")
	_, err := f.items.Dispose(ctx, disposed.ID)
	require.NoError(t, err)

	tests := []struct {
		name string
		req  loans.CreateRequest
		kind apperror.Kind
	}{
		{"missing item", loans.CreateRequest{ItemID: 999, StudentNumber: "S1", StudentName: "A"}, apperror.KindNotFound},
		{"disposed item", loans.CreateRequest{ItemID: disposed.ID, StudentNumber: "S1", StudentName: "A"}, apperror.KindConflict},
		{"empty student number", loans.CreateRequest{ItemID: disposed.ID, StudentName: "A"}, apperror.KindBadRequest},
		{"long student number", loans.CreateRequest{ItemID: disposed.ID, StudentNumber: "123456789012345678901", StudentName: "A"}, apperror.KindBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.loans.Create(ctx, tt.req)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
		})
	}

	_, err = f.loans.Return(ctx, 999, loans.ReturnRequest{})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	_, err = f.loans.Get(ctx, 999)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestReturn_ExplicitDate(t *testing.T) {
	f := setup(t)
	it := f.item(t, "Tripod")
	loan := f.lend(t, it.ID, "S001")
	when := time.Date(2025, 11, 3, 15, 4, 5, 0, time.UTC)

	returned, err := f.loans.Return(context.Background(), loan.ID, loans.ReturnRequest{ReturnDate: &when})
	require.NoError(t, err)
	require.NotNil(t, returned.ReturnDate)
	assert.True(t, when.Equal(*returned.ReturnDate))
	assert.Nil(t, returned.Remarks)
}

func TestList_Filters(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a, b, c := f.item(t, "A"), f.item(t, "B"), f.item(t, "C")

	first := f.lend(t, a.ID, "S001")
	_, err := f.loans.Return(ctx, first.ID, loans.ReturnRequest{})
	require.NoError(t, err)
	f.lend(t, a.ID, "S002")
	f.lend(t, b.ID, "S001")
	f.lend(t, c.ID, "S003")

	count := func(filter loans.Filter) int64 {
		res, err := f.loans.List(ctx, filter, query.Page{})
		require.NoError(t, err)
		assert.Len(t, res.Loans, int(res.Total))
		return res.Total
	}

	assert.Equal(t, int64(4), count(loans.Filter{}))
	assert.Equal(t, int64(2), count(loans.Filter{ItemID: &a.ID}))
	assert.Equal(t, int64(2), count(loans.Filter{StudentNumber: ptr("S001")}))
	assert.Equal(t, int64(3), count(loans.Filter{ActiveOnly: ptr(true)}))
	assert.Equal(t, int64(1), count(loans.Filter{ActiveOnly: ptr(false)}))
	assert.Equal(t, int64(1), count(loans.Filter{StudentNumber: ptr("S001"), ActiveOnly: ptr(true)}))

	res, err := f.loans.List(ctx, loans.Filter{}, query.Page{Page: 1, PerPage: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalPages)
	require.Len(t, res.Loans, 3)
	assert.Equal(t, "C", res.Loans[0].ItemName, "newest first")
}

func TestDeletingItemRemovesLoanHistory(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	it := f.item(t, "Cable")
	loan := f.lend(t, it.ID, "S001")
	_, err := f.loans.Return(ctx, loan.ID, loans.ReturnRequest{})
	require.NoError(t, err)

	require.NoError(t, f.items.Delete(ctx, it.ID))
	_, err = f.loans.Get(ctx, loan.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestCreate_PostgresLocksItem(t *testing.T) {
	db, mock := dbtest.MockPostgres(t)
	repo := loans.NewRepository(db, nil, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT is_on_loan, is_disposed FROM items WHERE id = $1 FOR UPDATE").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"is_on_loan", "is_disposed"}).AddRow(true, false))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), loans.CreateRequest{ItemID: 3, StudentNumber: "S1", StudentName: "A"})
	assert.True(t, apperror.Is(err, apperror.KindConflict))
}

func TestReturn_PostgresWritesBothRows(t *testing.T) {
	db, mock := dbtest.MockPostgres(t)
	repo := loans.NewRepository(db, nil, nil)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT item_id, return_date FROM loans WHERE id = $1 FOR UPDATE").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "return_date"}).AddRow(int64(3), nil))
	mock.ExpectExec("UPDATE loans SET return_date = $1, updated_at = $2 WHERE id = $3").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE items SET is_on_loan = $1, updated_at = $2 WHERE id = $3").
		WithArgs(false, sqlmock.AnyArg(), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT l.id, l.item_id, i.name AS item_name, i.label_id AS item_label_id, l.student_number, " +
		"l.student_name, l.organization, l.loan_date, l.return_date, l.remarks, l.created_at, l.updated_at " +
		"FROM loans l JOIN items i ON i.id = l.item_id WHERE l.id = $1").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "item_id", "item_name", "item_label_id", "student_number", "student_name",
			"organization", "loan_date", "return_date", "remarks", "created_at", "updated_at",
		}).AddRow(int64(5), int64(3), "Mixer", "0003", "S1", "A", nil, now, now, nil, now, now))

	loan, err := repo.Return(context.Background(), 5, loans.ReturnRequest{})
	require.NoError(t, err)
	assert.False(t, loan.Active())
	assert.Equal(t, "Mixer", loan.ItemName)
}
