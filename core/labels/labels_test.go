package labels_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/sohosai/hyperdashi-server/core/apperror"
	"github.com/sohosai/hyperdashi-server/core/database"
	"github.com/sohosai/hyperdashi-server/core/database/dbtest"
	"github.com/sohosai/hyperdashi-server/core/labels"
)

func setCounter(t *testing.T, db *database.DB, v int64) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), "UPDATE label_counter SET current_value = ? WHERE id = 1", v)
	require.NoError(t, err)
}

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		n    int64
		code string
	}{
		{0, "0000"},
		{1, "0001"},
		{35, "000Z"},
		{36, "0010"},
		{46655, "0ZZZ"},
		{labels.MaxValue, "ZZZZ"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.code, labels.Encode(tt.n))
			n, err := labels.Decode(tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.n, n)
		})
	}

	assert.Equal(t, int64(1679615), labels.MaxValue)
	for _, bad := range []string{"", "001", "00001", "abcd", "00-1", "ÄÄ"} {
		assert.False(t, labels.Valid(bad), bad)
		_, err := labels.Decode(bad)
		assert.True(t, apperror.Is(err, apperror.KindBadRequest), bad)
	}
}

func TestAllocate_SQLite(t *testing.T) {
	db := dbtest.SQLite(t)
	a := labels.NewAllocator(db, zap.NewNop(), nil)
	ctx := context.Background()

	current, err := a.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), current)

	codes, err := a.Allocate(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001", "0002", "0003"}, codes)

	codes, err = a.Allocate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"0004"}, codes)

	current, err = a.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), current)

	_, err = a.Allocate(ctx, 0)
	assert.True(t, apperror.Is(err, apperror.KindBadRequest))
}

func TestAllocate_WidthAndDistinctness(t *testing.T) {
	db := dbtest.SQLite(t)
	a := labels.NewAllocator(db, zap.NewNop(), nil)
	ctx := context.Background()

	seen := make(map[string]struct{})
	var prev int64
	for quantity := 1; quantity <= labels.MaxBatch; quantity += 111 {
		codes, err := a.Allocate(ctx, quantity)
		require.NoError(t, err)
		require.Len(t, codes, quantity)
		for _, code := range codes {
			require.Len(t, code, labels.Width)
			n, err := labels.Decode(code)
			require.NoError(t, err)
			require.Equal(t, prev+1, n, "codes must be consecutive")
			prev = n
			_, dup := seen[code]
			require.False(t, dup, code)
			seen[code] = struct{}{}
		}
	}

	current, err := a.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, prev, current)
}

func TestAllocate_Concurrent(t *testing.T) {
	db := dbtest.SQLite(t)
	a := labels.NewAllocator(db, zap.NewNop(), nil)
	ctx := context.Background()

	const workers, perWorker = 16, 5
	var (
		mu    sync.Mutex
		codes []string
		wg    sync.WaitGroup
	)
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				got, err := a.Allocate(ctx, 1)
				if err != nil {
					errs <- err
					return
				}
				mu.Lock()
				codes = append(codes, got...)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// No duplicates and no gaps.
	seen := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		seen[c] = struct{}{}
	}
	require.Len(t, seen, workers*perWorker)
	for n := int64(1); n <= workers*perWorker; n++ {
		_, ok := seen[labels.Encode(n)]
		assert.True(t, ok, "missing %s", labels.Encode(n))
	}

	require.NoError(t, db.Close())
	goleak.VerifyNone(t)
}

func TestAllocate_Exhaustion(t *testing.T) {
	db := dbtest.SQLite(t)
	a := labels.NewAllocator(db, zap.NewNop(), nil)
	ctx := context.Background()

	setCounter(t, db, labels.MaxValue-2)

	_, err := a.Allocate(ctx, 3)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindBadRequest))
	assert.Equal(t, "Not enough label IDs available", err.Error())

	current, err := a.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, labels.MaxValue-2, current, "rejected allocation must not move the counter")

	codes, err := a.Allocate(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"ZZZY", "ZZZZ"}, codes)

	_, err = a.Allocate(ctx, 1)
	assert.True(t, apperror.Is(err, apperror.KindBadRequest))
}

func TestGenerate_Validation(t *testing.T) {
	db := dbtest.SQLite(t)
	a := labels.NewAllocator(db, zap.NewNop(), nil)

	tests := []struct {
		name    string
		req     labels.GenerateRequest
		wantErr bool
	}{
		{"zero", labels.GenerateRequest{Quantity: 0, RecordType: labels.RecordQR}, true},
		{"too many", labels.GenerateRequest{Quantity: 1001, RecordType: labels.RecordQR}, true},
		{"bad record type", labels.GenerateRequest{Quantity: 1, RecordType: "none"}, true},
		{"qr", labels.GenerateRequest{Quantity: 2, RecordType: labels.RecordQR}, false},
		{"barcode", labels.GenerateRequest{Quantity: 1, RecordType: labels.RecordBarcode}, false},
		{"nothing", labels.GenerateRequest{Quantity: 1000, RecordType: labels.RecordNothing}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := a.Generate(context.Background(), tt.req)
			if tt.wantErr {
				assert.True(t, apperror.Is(err, apperror.KindBadRequest))
				return
			}
			require.NoError(t, err)
			assert.Len(t, resp.VisibleIDs, tt.req.Quantity)
		})
	}
}

func TestAllocate_PostgresLocksCounter(t *testing.T) {
	db, mock := dbtest.MockPostgres(t)
	a := labels.NewAllocator(db, zap.NewNop(), nil)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT current_value FROM label_counter WHERE id = 1 FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"current_value"}).AddRow(int64(5)))
	mock.ExpectExec("UPDATE label_counter SET current_value = $1 WHERE id = 1").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	codes, err := a.Allocate(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"0006", "0007"}, codes)
}

func TestAllocate_PostgresExhaustionRollsBack(t *testing.T) {
	db, mock := dbtest.MockPostgres(t)
	a := labels.NewAllocator(db, zap.NewNop(), nil)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT current_value FROM label_counter WHERE id = 1 FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"current_value"}).AddRow(labels.MaxValue))
	mock.ExpectRollback()

	_, err := a.Allocate(context.Background(), 1)
	assert.True(t, apperror.Is(err, apperror.KindBadRequest))
}

func ExampleEncode() {
	fmt.Println(labels.Encode(1), labels.Encode(36), labels.Encode(labels.MaxValue))
	// Output: 0001 0010 ZZZZ
}
