package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/luxfi/paractl/pkg/application"
	"github.com/luxfi/paractl/pkg/core"
	"github.com/luxfi/paractl/pkg/registrar"
	"github.com/luxfi/paractl/pkg/relay"
)

// NewTestParachainCmd creates the test_parachain command
func NewTestParachainCmd(app *application.Paractl) *cobra.Command {
	var settle time.Duration

	cmd := &cobra.Command{
		Use:   "test_parachain [parachain_types] [ws_url] [para_id] [height_limit]",
		Short: "Wait for a parachain to be registered and check its block height",
		Long: `Poll the relay chain until the parachain is registered, then fail unless
its head is at or above height_limit (default 100).

parachain_types is an optional JSON file of type overrides; pass "" or "-"
to use the defaults.`,
		Args: cobra.MaximumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := app.LoadSchema(optionalArg(args, 0))
			if err != nil {
				return err
			}
			id, err := requireParaID(args, 2, schema)
			if err != nil {
				return err
			}
			limit, err := parseHeight(optionalArg(args, 3), application.DefaultHeightLimit)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			ep, err := app.Connect(ctx, app.URL(optionalArg(args, 1)), schema)
			if err != nil {
				return err
			}
			defer ep.Close()

			if err := app.Poller().WaitRegistered(ctx, ep, id); err != nil {
				return err
			}

			if settle > 0 {
				app.Log.Info("Waiting before height check", "paraID", id, "delay", settle)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(settle):
				}
			}

			height, err := registrar.NewVerifier(app.Log, app.Metrics).VerifyHeight(ctx, ep, id, limit)
			if err != nil {
				return err
			}
			cmd.Printf("Parachain %s is at block %s\n", id, relay.FormatBlockNumber(height))
			return nil
		},
	}

	cmd.Flags().DurationVar(&settle, "settle", 0, "delay between registration and the height check")

	return cmd
}

// NewCheckRegistrationCmd creates the check_registration command
func NewCheckRegistrationCmd(app *application.Paractl) *cobra.Command {
	return &cobra.Command{
		Use:   "check_registration [ws_url] [para_id]",
		Short: "Check if the parachain is registered",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requireParaID(args, 1, nil)
			if err != nil {
				return err
			}

			ep, err := app.Connect(cmd.Context(), app.URL(optionalArg(args, 0)), nil)
			if err != nil {
				return err
			}
			defer ep.Close()

			registered, err := registrar.IsRegistered(cmd.Context(), ep, id)
			if err != nil {
				return err
			}
			if !registered {
				return fmt.Errorf("%w: parachain with id %s is not registered", core.ErrNotRegistered, id)
			}
			cmd.Println("Parachain is registered")
			return nil
		},
	}
}

// NewRetrieveBestBlockCmd creates the retrieve_best_block command
func NewRetrieveBestBlockCmd(app *application.Paractl) *cobra.Command {
	return &cobra.Command{
		Use:   "retrieve_best_block [ws_url] [filename]",
		Short: "Write the relay chain's best block number to a file",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := optionalArg(args, 1)
			if filename == "" {
				filename = application.DefaultBestBlockFile
			}

			ep, err := app.Connect(cmd.Context(), app.URL(optionalArg(args, 0)), nil)
			if err != nil {
				return err
			}
			defer ep.Close()

			number, err := registrar.BestBlock(cmd.Context(), ep, filename)
			if err != nil {
				return err
			}
			app.Metrics.BestBlock(number)
			cmd.Printf("Best block %s written to %s\n", relay.FormatBlockNumber(number), filename)
			return nil
		},
	}
}
