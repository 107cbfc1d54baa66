package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wasmbridge/wasmbridge/pkg/tabular"
)

var (
	processCommand  string
	processFilename string
	processContent  string
	processTitle    string
	processID       uint64
	processScore    float64
)

// processCmd sends a command batch and a data batch through the structured
// adapter.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Send record batches through the structured adapter",
	Long: `Build a command batch and a single-row data batch, send both to the guest's
record-batch processor, and print the returned batch.`,
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

		cmdRec := tabular.NewCommandRecord(processCommand, processFilename)
		cmdBytes, err := tabular.Encode(cmdRec)
		cmdRec.Release()
		if err != nil {
			return fmt.Errorf("failed to encode command batch: %w", err)
		}

		dataRec, err := tabular.NewDataRecord([]tabular.Row{{
			ID:      processID,
			Content: processContent,
			Title:   processTitle,
			Date:    time.Now().UTC(),
			Score:   processScore,
		}})
		if err != nil {
			return fmt.Errorf("failed to build data batch: %w", err)
		}
		dataBytes, err := tabular.Encode(dataRec)
		dataRec.Release()
		if err != nil {
			return fmt.Errorf("failed to encode data batch: %w", err)
		}

		inst, err := m.Acquire("tabular")
		if err != nil {
			return err
		}
		defer m.Release("tabular", inst)

		out, err := inst.ProcessBatch(ctx, cmdBytes, dataBytes)
		if err != nil {
			return err
		}

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
			fmt.Printf("{id: %d, content: %q}\n", row.ID, row.Content)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(&processCommand, "command", "test", "Command value")
	processCmd.Flags().StringVar(&processFilename, "filename", "test.txt", "config.filename value")
	processCmd.Flags().StringVar(&processContent, "content", "this is a test", "Row content")
	processCmd.Flags().StringVar(&processTitle, "title", "test", "Row title")
	processCmd.Flags().Uint64Var(&processID, "id", 1, "Row id")
	processCmd.Flags().Float64Var(&processScore, "score", 1.123456, "Row score")
}
