// Package cmd provides the CLI commands for the wasmbridge application.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wasmbridge/wasmbridge/internal/config"
	"github.com/wasmbridge/wasmbridge/internal/host"
	"github.com/wasmbridge/wasmbridge/internal/logging"
)

var (
	debug       bool
	human       bool
	embedded    bool
	greeterPath string
	tabularPath string
	poolSize    int
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "wasmbridge",
	Short: "Host driver for sandboxed WASM compute modules",
	Long: `wasmbridge drives computations inside sandboxed WASM guest modules over a
numeric-only export surface: strings and record batches cross the boundary
through explicitly allocated, validated and released guest buffers.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if err := config.Initialize(); err != nil {
			return err
		}
		cfg := config.Get()
		logging.InitLogger(debug || cfg.Log.Level == "debug", human || cfg.Log.Format == "human")

		if greeterPath == "" {
			greeterPath = cfg.Modules.Greeter
		}
		if tabularPath == "" {
			tabularPath = cfg.Modules.Tabular
		}
		if poolSize <= 0 {
			poolSize = cfg.Pool.Size
		}

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&human, "human", false, "Enable human-readable logs")
	rootCmd.PersistentFlags().
		BoolVar(&embedded, "embedded", false, "Run the in-process guest instead of loading .wasm images")
	rootCmd.PersistentFlags().StringVar(&greeterPath, "greeter", "", "Path to the greeter module image")
	rootCmd.PersistentFlags().StringVar(&tabularPath, "tabular", "", "Path to the tabular module image")
	rootCmd.PersistentFlags().IntVar(&poolSize, "pool", 0, "Instance pool size per module")
}

// newManager builds a Manager with the greeter and tabular modules
// registered, either from module images or the in-process guest.
func newManager(ctx context.Context) (*host.Manager, error) {
	m, err := host.NewManager(ctx)
	if err != nil {
		return nil, err
	}

	if embedded {
		m.RegisterEmbedded("greeter", host.EmbeddedExports(), poolSize)
		m.RegisterEmbedded("tabular", host.EmbeddedExports(), poolSize)

		return m, nil
	}

	if err := m.LoadModule("greeter", greeterPath, host.GreeterExports(), poolSize); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("greeter module: %w", err)
	}
	if err := m.LoadModule("tabular", tabularPath, host.TabularExports(), poolSize); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("tabular module: %w", err)
	}

	return m, nil
}
