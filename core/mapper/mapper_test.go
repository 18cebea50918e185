package mapper

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBool(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want bool
	}{
		{"NativeTrue", true, true},
		{"NativeFalse", false, false},
		{"IntOne", int64(1), true},
		{"IntZero", int64(0), false},
		{"IntTwo", int64(2), false},
		{"TextOne", "1", true},
		{"TextTrue", "true", true},
		{"TextTRUE", "TRUE", true},
		{"TextFalse", "false", false},
		{"Bytes", []byte("true"), true},
		{"Nil", nil, false},
		{"Garbage", "yes please", false},
		{"Float", 1.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Bool(tt.in))
		})
	}
}

func TestNumbers(t *testing.T) {
	assert.Equal(t, 42, Int(int64(42)))
	assert.Equal(t, 42, Int("42"))
	assert.Equal(t, 0, Int("x"))
	assert.Equal(t, 0, Int(nil))
	assert.Equal(t, 12.5, Float(12.5))
	assert.Equal(t, 12.5, Float("12.5"))
	assert.Equal(t, 3.0, Float(int64(3)))
	assert.Nil(t, OptInt(nil))
	assert.Equal(t, 7, *OptInt(int64(7)))
	assert.Nil(t, OptFloat(nil))
	assert.Nil(t, OptBool(nil))
	assert.True(t, *OptBool("1"))
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "", String(nil))
	assert.Equal(t, "abc", String([]byte("abc")))
	assert.Equal(t, "12", String(int64(12)))
	assert.Nil(t, OptString(nil))
	assert.Equal(t, "x", *OptString("x"))
}

func TestTime(t *testing.T) {
	want := time.Date(2026, 10, 15, 1, 2, 3, 456000000, time.UTC)

	tests := []struct {
		name string
		in   any
	}{
		{"Aware", want.In(time.FixedZone("JST", 9*3600))},
		{"NaiveMicros", "2026-10-15 01:02:03.456000"},
		{"NaiveT", "2026-10-15T01:02:03.456"},
		{"Zulu", "2026-10-15T01:02:03.456Z"},
		{"Offset", "2026-10-15 10:02:03.456+09:00"},
		{"Bytes", []byte("2026-10-15 01:02:03.456")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Time(tt.in)
			assert.True(t, want.Equal(got), "got %v", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	assert.True(t, Time(nil).IsZero())
	assert.True(t, Time("not a time").IsZero())
	assert.Nil(t, OptTime(nil))
	assert.NotNil(t, OptTime("2026-10-15"))
}

func TestStringList(t *testing.T) {
	list, err := StringList(`["HDMI","USB-C"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"HDMI", "USB-C"}, list)

	list, err = StringList(nil)
	require.NoError(t, err)
	assert.Nil(t, list)

	list, err = StringList("  ")
	require.NoError(t, err)
	assert.Nil(t, list)

	_, err = StringList(`["HDMI"`)
	assert.Error(t, err)

	_, err = StringList(int64(3))
	assert.Error(t, err)

	enc, err := EncodeStringList([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, enc)

	enc, err = EncodeStringList(nil)
	require.NoError(t, err)
	assert.Nil(t, enc)

	enc, err = EncodeStringList([]string{})
	require.NoError(t, err)
	assert.Equal(t, `[]`, enc)
}

func TestScanRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"ID", "name", "is_disposed"}).
			AddRow(int64(1), "Projector", "true").
			AddRow(int64(2), "Cable", int64(0)),
	)

	rows, err := db.QueryContext(context.Background(), "SELECT id, name, is_disposed FROM items")
	require.NoError(t, err)

	got, err := ScanRows(rows)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(1), got[0].Int64("id"))
	assert.Equal(t, "Projector", got[0].Text("name"))
	assert.True(t, got[0].Bool("is_disposed"))
	assert.False(t, got[1].Bool("is_disposed"))
	assert.False(t, got[1].Bool("missing_column"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanOne_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	var rows *sql.Rows
	rows, err = db.QueryContext(context.Background(), "SELECT id FROM items WHERE id = 1")
	require.NoError(t, err)

	row, ok, err := ScanOne(rows)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, row)
}
