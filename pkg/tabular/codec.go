// Package tabular implements the self-describing columnar interchange format
// exchanged with guest modules. Batches travel as Arrow IPC streams, so the
// schema rides with the payload and the receiving side can validate structure
// before trusting a single value. The codec only produces and consumes byte
// slices; moving them across the boundary is the adapters' job.
package tabular

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// timestampUTC is the fixed-precision timestamp type used for the date field.
var timestampUTC = &arrow.TimestampType{Unit: arrow.Second, TimeZone: "UTC"}

// CommandSchema describes the command batch: what the guest should do.
func CommandSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "command", Type: arrow.BinaryTypes.String},
		{Name: "config.filename", Type: arrow.BinaryTypes.String},
	}, nil)
}

// DataSchema describes the data batch: what the guest should do it to.
func DataSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Uint64},
		{Name: "content", Type: arrow.BinaryTypes.String},
		{Name: "title", Type: arrow.BinaryTypes.String},
		{Name: "date", Type: timestampUTC},
		{Name: "score", Type: arrow.PrimitiveTypes.Float64},
	}, nil)
}

// ResultSchema describes the batch the guest hands back.
func ResultSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Uint64},
		{Name: "content", Type: arrow.BinaryTypes.String},
	}, nil)
}

// Encode serializes a record batch to the Arrow IPC stream format.
func Encode(rec arrow.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(rec.Schema()))
	if err := w.Write(rec); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to write record batch: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close batch writer: %w", err)
	}

	return buf.Bytes(), nil
}

// Decode deserializes the first record batch of an Arrow IPC stream. The
// caller owns the returned record and must Release it.
func Decode(data []byte) (arrow.Record, error) {
	r, err := ipc.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open batch reader: %w", err)
	}
	defer r.Release()

	if !r.Next() {
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("failed to read record batch: %w", err)
		}

		return nil, errors.New("stream contains no record batch")
	}

	rec := r.Record()
	rec.Retain()

	return rec, nil
}

// Row is one row of the data batch in native Go types.
type Row struct {
	ID      uint64
	Content string
	Title   string
	Date    time.Time
	Score   float64
}

// NewCommandRecord builds a single-row command batch. The caller owns the
// record.
func NewCommandRecord(command, filename string) arrow.Record {
	b := array.NewRecordBuilder(memory.DefaultAllocator, CommandSchema())
	defer b.Release()

	b.Field(0).(*array.StringBuilder).Append(command)
	b.Field(1).(*array.StringBuilder).Append(filename)

	return b.NewRecord()
}

// NewDataRecord builds a data batch from rows. The caller owns the record.
func NewDataRecord(rows []Row) (arrow.Record, error) {
	b := array.NewRecordBuilder(memory.DefaultAllocator, DataSchema())
	defer b.Release()

	for _, row := range rows {
		ts, err := arrow.TimestampFromTime(row.Date.UTC(), arrow.Second)
		if err != nil {
			return nil, fmt.Errorf("invalid date in row %d: %w", row.ID, err)
		}
		b.Field(0).(*array.Uint64Builder).Append(row.ID)
		b.Field(1).(*array.StringBuilder).Append(row.Content)
		b.Field(2).(*array.StringBuilder).Append(row.Title)
		b.Field(3).(*array.TimestampBuilder).Append(ts)
		b.Field(4).(*array.Float64Builder).Append(row.Score)
	}

	return b.NewRecord(), nil
}

// ResultRow is one row of the result batch.
type ResultRow struct {
	ID      uint64
	Content string
}

// ResultRows extracts the rows of a decoded result batch.
func ResultRows(rec arrow.Record) ([]ResultRow, error) {
	if !rec.Schema().Equal(ResultSchema()) {
		return nil, fmt.Errorf("result schema mismatch: %s", rec.Schema())
	}

	ids, ok := rec.Column(0).(*array.Uint64)
	if !ok {
		return nil, errors.New("result id column has wrong physical type")
	}
	contents, ok := rec.Column(1).(*array.String)
	if !ok {
		return nil, errors.New("result content column has wrong physical type")
	}

	rows := make([]ResultRow, 0, rec.NumRows())
	for i := 0; i < int(rec.NumRows()); i++ {
		rows = append(rows, ResultRow{ID: ids.Value(i), Content: contents.Value(i)})
	}

	return rows, nil
}
