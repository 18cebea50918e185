package labels

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sohosai/hyperdashi-server/core/apperror"
	"github.com/sohosai/hyperdashi-server/core/database"
	"github.com/sohosai/hyperdashi-server/core/metrics"
)

// MaxBatch is the largest quantity Generate accepts.
const MaxBatch = 1000

// Record types a caller may request labels for.
const (
	RecordQR      = "qr"
	RecordBarcode = "barcode"
	RecordNothing = "nothing"
)

// GenerateRequest asks for a batch of fresh labels.
type GenerateRequest struct {
	Quantity   int    `json:"quantity"`
	RecordType string `json:"record_type"`
}

// GenerateResponse lists the labels issued, in counter order.
type GenerateResponse struct {
	VisibleIDs []string `json:"visible_ids"`
}

// Allocator draws labels from the label_counter row.
type Allocator struct {
	db      database.Database
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewAllocator creates an allocator. m may be nil.
func NewAllocator(db database.Database, logger *zap.Logger, m *metrics.Metrics) *Allocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Allocator{db: db, logger: logger, metrics: m}
}

// Allocate reserves quantity consecutive labels. On exhaustion nothing is
// written and the counter keeps its value.
func (a *Allocator) Allocate(ctx context.Context, quantity int) (codes []string, err error) {
	defer func(start time.Time) { a.metrics.ObserveOperation("labels", "allocate", start, err) }(time.Now())

	if quantity < 1 {
		return nil, apperror.BadRequest("Quantity must be at least 1")
	}

	d := a.db.Dialect()
	var first, last int64
	err = a.db.InTx(ctx, func(q database.Querier) error {
		current, err := readCounter(ctx, q, d.ForUpdate())
		if err != nil {
			return err
		}
		if current+int64(quantity) > MaxValue {
			return apperror.BadRequest("Not enough label IDs available")
		}

		first, last = current+1, current+int64(quantity)
		_, err = q.ExecContext(ctx,
			"UPDATE label_counter SET current_value = "+d.Placeholder(1)+" WHERE id = 1", last)
		if err != nil {
			return apperror.Database(err, "Failed to advance label counter")
		}
		return nil
	})
	if err != nil {
		if apperror.Is(err, apperror.KindBadRequest) {
			a.metrics.RecordLabelExhaustion()
			a.logger.Warn("Label allocation rejected", zap.Int("quantity", quantity), zap.Error(err))
		}
		return nil, err
	}

	codes = make([]string, 0, quantity)
	for n := first; n <= last; n++ {
		codes = append(codes, Encode(n))
	}
	a.metrics.RecordLabelsAllocated(quantity)
	a.logger.Info("Labels allocated",
		zap.Int("quantity", quantity),
		zap.String("first", codes[0]),
		zap.String("last", codes[len(codes)-1]),
	)
	return codes, nil
}

// Generate validates a batch request and allocates it.
func (a *Allocator) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if req.Quantity < 1 || req.Quantity > MaxBatch {
		return nil, apperror.BadRequest("Quantity must be between 1 and %d", MaxBatch)
	}
	switch req.RecordType {
	case RecordQR, RecordBarcode, RecordNothing:
	default:
		return nil, apperror.BadRequest("Invalid record type")
	}

	codes, err := a.Allocate(ctx, req.Quantity)
	if err != nil {
		return nil, err
	}
	return &GenerateResponse{VisibleIDs: codes}, nil
}

// Current returns the last issued counter value, 0 when nothing was issued.
func (a *Allocator) Current(ctx context.Context) (int64, error) {
	return readCounter(ctx, a.db, "")
}

func readCounter(ctx context.Context, q database.Querier, suffix string) (int64, error) {
	var current int64
	err := q.QueryRowContext(ctx, "SELECT current_value FROM label_counter WHERE id = 1"+suffix).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperror.Internal(err, "Label counter row is missing")
	}
	if err != nil {
		return 0, apperror.Database(err, "Failed to read label counter")
	}
	return current, nil
}
