package tabular

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Values the guest accepts in the command batch. The command payload is an
// instruction, so it is matched on values; the data payload is validated
// structurally only.
const (
	acceptedCommand  = "test"
	acceptedFilename = "test.txt"
)

// Process validates the serialized command and data batches and produces the
// serialized result batch: the data batch's id column plus its content column
// with "2" appended. Any schema, value or row-count mismatch is a rejection,
// never a coercion.
func Process(cmdBytes, dataBytes []byte) ([]byte, error) {
	cmd, err := Decode(cmdBytes)
	if err != nil {
		return nil, fmt.Errorf("command batch: %w", err)
	}
	defer cmd.Release()

	if err := validateCommand(cmd); err != nil {
		return nil, fmt.Errorf("command batch: %w", err)
	}

	data, err := Decode(dataBytes)
	if err != nil {
		return nil, fmt.Errorf("data batch: %w", err)
	}
	defer data.Release()

	if err := validateData(data); err != nil {
		return nil, fmt.Errorf("data batch: %w", err)
	}

	out := transform(data)
	defer out.Release()

	return Encode(out)
}

func validateCommand(rec arrow.Record) error {
	if !rec.Schema().Equal(CommandSchema()) {
		return fmt.Errorf("schema mismatch: got %s", rec.Schema())
	}
	if rec.NumRows() != 1 {
		return fmt.Errorf("expected exactly 1 row, got %d", rec.NumRows())
	}

	command := rec.Column(0).(*array.String).Value(0)
	if command != acceptedCommand {
		return fmt.Errorf("unknown command %q", command)
	}
	filename := rec.Column(1).(*array.String).Value(0)
	if filename != acceptedFilename {
		return fmt.Errorf("unexpected config.filename %q", filename)
	}

	return nil
}

func validateData(rec arrow.Record) error {
	if !rec.Schema().Equal(DataSchema()) {
		return fmt.Errorf("schema mismatch: got %s", rec.Schema())
	}
	if rec.NumRows() < 1 {
		return fmt.Errorf("expected at least 1 row, got %d", rec.NumRows())
	}

	return nil
}

// transform builds the result batch from a validated data batch.
func transform(data arrow.Record) arrow.Record {
	b := array.NewRecordBuilder(memory.DefaultAllocator, ResultSchema())
	defer b.Release()

	ids := data.Column(0).(*array.Uint64)
	contents := data.Column(1).(*array.String)
	for i := 0; i < int(data.NumRows()); i++ {
		b.Field(0).(*array.Uint64Builder).Append(ids.Value(i))
		b.Field(1).(*array.StringBuilder).Append(contents.Value(i) + "2")
	}

	return b.NewRecord()
}
