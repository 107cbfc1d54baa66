package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	greetName string
	greetABI  string
)

// greetCmd invokes one of the two greeter adapters.
var greetCmd = &cobra.Command{
	Use:   "greet",
	Short: "Invoke a greeter adapter on the guest module",
	Long: `Send a name into the guest and read back the greeting. The c ABI uses the
nul-terminated convention; the rust ABI uses the length-prefixed convention
with a packed [ptr][len] metadata return.`,
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

		inst, err := m.Acquire("greeter")
		if err != nil {
			return err
		}
		defer m.Release("greeter", inst)

		var greeting string
		switch greetABI {
		case "c":
			greeting, err = inst.GreetC(ctx, greetName)
		case "rust":
			greeting, err = inst.GreetPacked(ctx, greetName)
		default:
			return fmt.Errorf("unknown abi %q, expected c or rust", greetABI)
		}
		if err != nil {
			return err
		}

		fmt.Println(greeting)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(greetCmd)

	greetCmd.Flags().StringVarP(&greetName, "name", "n", "World", "Name to greet")
	greetCmd.Flags().StringVar(&greetABI, "abi", "rust", "Calling convention: c or rust")
}
