package tabular

import (
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRows() []Row {
	return []Row{
		{
			ID:      1,
			Content: "this is a test",
			Title:   "test",
			Date:    time.Date(2022, 1, 1, 12, 0, 0, 0, time.UTC),
			Score:   1.123456,
		},
	}
}

// TestEncodeDecodeRoundTrip verifies that a data batch survives the IPC
// stream format with schema and values intact.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	rec, err := NewDataRecord(testRows())
	require.NoError(t, err)
	defer rec.Release()

	raw, err := Encode(rec)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	got, err := Decode(raw)
	require.NoError(t, err)
	defer got.Release()

	assert.True(t, got.Schema().Equal(DataSchema()), "schema should survive the round trip")
	assert.Equal(t, int64(1), got.NumRows())
	assert.Equal(t, uint64(1), got.Column(0).(*array.Uint64).Value(0))
	assert.Equal(t, "this is a test", got.Column(1).(*array.String).Value(0))
	assert.Equal(t, "test", got.Column(2).(*array.String).Value(0))
	assert.InDelta(t, 1.123456, got.Column(4).(*array.Float64).Value(0), 1e-9)

	ts := got.Column(3).(*array.Timestamp).Value(0)
	assert.Equal(t, time.Date(2022, 1, 1, 12, 0, 0, 0, time.UTC), ts.ToTime(arrow.Second))
}

// TestDecodeGarbage verifies that a non-IPC payload is rejected.
func TestDecodeGarbage(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte("not an arrow stream"))
	assert.Error(t, err)
}

// TestProcess exercises the full command+data validation and transform.
func TestProcess(t *testing.T) {
	t.Parallel()

	encodeCommand := func(t *testing.T, command, filename string) []byte {
		t.Helper()
		rec := NewCommandRecord(command, filename)
		defer rec.Release()
		raw, err := Encode(rec)
		require.NoError(t, err)
		return raw
	}

	encodeData := func(t *testing.T, rows []Row) []byte {
		t.Helper()
		rec, err := NewDataRecord(rows)
		require.NoError(t, err)
		defer rec.Release()
		raw, err := Encode(rec)
		require.NoError(t, err)
		return raw
	}

	t.Run("accepted command mutates content", func(t *testing.T) {
		t.Parallel()

		out, err := Process(
			encodeCommand(t, "test", "test.txt"),
			encodeData(t, testRows()),
		)
		require.NoError(t, err)

		rec, err := Decode(out)
		require.NoError(t, err)
		defer rec.Release()

		rows, err := ResultRows(rec)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, uint64(1), rows[0].ID)
		assert.Equal(t, "this is a test2", rows[0].Content)
	})

	t.Run("unknown command rejected", func(t *testing.T) {
		t.Parallel()

		_, err := Process(
			encodeCommand(t, "drop", "test.txt"),
			encodeData(t, testRows()),
		)
		assert.Error(t, err)
	})

	t.Run("unexpected filename rejected", func(t *testing.T) {
		t.Parallel()

		_, err := Process(
			encodeCommand(t, "test", "other.txt"),
			encodeData(t, testRows()),
		)
		assert.Error(t, err)
	})

	t.Run("wrong data schema rejected", func(t *testing.T) {
		t.Parallel()

		// Same shape as the data batch but one field renamed.
		schema := arrow.NewSchema([]arrow.Field{
			{Name: "identifier", Type: arrow.PrimitiveTypes.Uint64},
			{Name: "content", Type: arrow.BinaryTypes.String},
			{Name: "title", Type: arrow.BinaryTypes.String},
			{Name: "date", Type: timestampUTC},
			{Name: "score", Type: arrow.PrimitiveTypes.Float64},
		}, nil)
		b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
		defer b.Release()
		b.Field(0).(*array.Uint64Builder).Append(1)
		b.Field(1).(*array.StringBuilder).Append("x")
		b.Field(2).(*array.StringBuilder).Append("y")
		b.Field(3).(*array.TimestampBuilder).Append(0)
		b.Field(4).(*array.Float64Builder).Append(0)
		rec := b.NewRecord()
		defer rec.Release()
		raw, err := Encode(rec)
		require.NoError(t, err)

		_, err = Process(encodeCommand(t, "test", "test.txt"), raw)
		assert.Error(t, err)
	})

	t.Run("empty data batch rejected", func(t *testing.T) {
		t.Parallel()

		_, err := Process(
			encodeCommand(t, "test", "test.txt"),
			encodeData(t, nil),
		)
		assert.Error(t, err)
	})
}
