package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wasmbridge/wasmbridge/internal/host"
	"github.com/wasmbridge/wasmbridge/internal/logging"
	"github.com/wasmbridge/wasmbridge/pkg/tabular"
)

// runCmd drives the full demonstration sequence against both guest modules.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full demonstration call sequence",
	Long: `Invoke every adapter pattern once: the scalar answer, the nul-terminated
greeter, the length-prefixed greeter, and the record-batch processor.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		m, err := newManager(ctx)
		if err != nil {
			log.Error().Err(err).Msg("failed to initialize modules")
			return err
		}
		defer func() {
			if err := m.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close manager")
			}
		}()

		if err := runGreeter(ctx, m); err != nil {
			return err
		}

		return runTabular(ctx, m)
	},
}

func runGreeter(ctx context.Context, m *host.Manager) error {
	inst, err := m.Acquire("greeter")
	if err != nil {
		return err
	}
	defer m.Release("greeter", inst)

	answer, err := inst.Answer(ctx)
	if err != nil {
		return fmt.Errorf("answer: %w", err)
	}
	fmt.Printf("Result from WASM function \"answer\": %d\n", answer)

	cGreeting, err := inst.GreetC(ctx, "Rust (C ABI)")
	if err != nil {
		return fmt.Errorf("c_format_hello_world: %w", err)
	}
	fmt.Printf("Result from WASM function \"c_format_hello_world\": %s\n", cGreeting)

	packedGreeting, err := inst.GreetPacked(ctx, "Rust (Rust ABI)")
	if err != nil {
		return fmt.Errorf("rust_format_hello_world: %w", err)
	}
	fmt.Printf("Result from WASM function \"rust_format_hello_world\": %s\n", packedGreeting)

	return nil
}

func runTabular(ctx context.Context, m *host.Manager) error {
	inst, err := m.Acquire("tabular")
	if err != nil {
		return err
	}
	defer m.Release("tabular", inst)

	cmdBytes, dataBytes, err := demoBatches()
	if err != nil {
		return err
	}

	logging.LogInvocation("tabular", "wasm_memory_process_data_arrow", dataBytes)
	out, err := inst.ProcessBatch(ctx, cmdBytes, dataBytes)
	if err != nil {
		return fmt.Errorf("process_data_arrow: %w", err)
	}
	logging.LogResult("tabular", "wasm_memory_process_data_arrow", out)

	rec, err := tabular.Decode(out)
	if err != nil {
		return fmt.Errorf("failed to decode result batch: %w", err)
	}
	defer rec.Release()

	rows, err := tabular.ResultRows(rec)
	if err != nil {
		return err
	}
	for _, row := range rows {
		fmt.Printf("Result from WASM function \"process_data_arrow\": {id: %d, content: %q}\n",
			row.ID, row.Content)
	}

	return nil
}

// demoBatches builds the demonstration command and data payloads.
func demoBatches() (cmdBytes, dataBytes []byte, err error) {
	cmdRec := tabular.NewCommandRecord("test", "test.txt")
	cmdBytes, err = tabular.Encode(cmdRec)
	cmdRec.Release()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode command batch: %w", err)
	}

	dataRec, err := tabular.NewDataRecord([]tabular.Row{{
		ID:      1,
		Content: "this is a test",
		Title:   "test",
		Date:    time.Date(2022, 1, 1, 12, 0, 0, 0, time.UTC),
		Score:   1.123456,
	}})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build data batch: %w", err)
	}
	dataBytes, err = tabular.Encode(dataRec)
	dataRec.Release()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode data batch: %w", err)
	}

	return cmdBytes, dataBytes, nil
}

func init() {
	rootCmd.AddCommand(runCmd)
}
