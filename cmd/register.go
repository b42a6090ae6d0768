package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/luxfi/paractl/pkg/application"
	"github.com/luxfi/paractl/pkg/core"
	"github.com/luxfi/paractl/pkg/registrar"
)

// NewRegisterParachainsCmd creates the batch registration command
func NewRegisterParachainsCmd(app *application.Paractl) *cobra.Command {
	var finalized bool

	cmd := &cobra.Command{
		Use:   "register_parachains <config_path> [ws_url]",
		Short: "Register every parachain listed in a config file",
		Long: `Register the parachains listed in a JSON config file, one after the other,
in file order. Each registration must be included before the next is sent.

Config format:
  {"parachains": [{"genesis_path": "...", "wasm_path": "...", "id": "2000"}]}`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := registrar.LoadBatchConfig(args[0])
			if err != nil {
				return err
			}

			r, closeJournal, err := app.Registrar()
			if err != nil {
				return err
			}
			defer closeJournal()

			ep, err := app.Connect(cmd.Context(), app.URL(optionalArg(args, 1)), nil)
			if err != nil {
				return err
			}
			defer ep.Close()

			receipts, err := r.RegisterAll(cmd.Context(), ep, cfg, finalized)
			for _, receipt := range receipts {
				cmd.Printf("Registered parachain %s (nonce %d) at %s\n", receipt.ParaID, receipt.Nonce, receipt.BlockHash)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&finalized, "finalized", false, "wait for finality instead of inclusion")

	return cmd
}

// NewRegisterParachainCmd creates the single registration command
func NewRegisterParachainCmd(app *application.Paractl) *cobra.Command {
	var finalized bool

	cmd := &cobra.Command{
		Use:   "register_parachain <wasm_path> <header_data> <para_id> [is_parachain] [ws_url]",
		Short: "Register a parachain with given paths to wasm code and head data",
		Long: `Register a parachain with given paths to wasm code and head data.

is_parachain is accepted for compatibility with older scripts; the
registration is always scheduled as a parachain.`,
		Args: cobra.RangeArgs(3, 5),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requireParaID(args, 2, nil)
			if err != nil {
				return err
			}
			if v := optionalArg(args, 3); v != "" {
				isParachain, err := strconv.ParseBool(v)
				if err != nil {
					return core.ErrInvalidConfigf("invalid is_parachain %q", v)
				}
				if !isParachain {
					app.Log.Warn("Ignoring is_parachain=false, registering as a parachain", "paraID", id)
				}
			}

			reg, err := registrar.LoadRegistration(id, args[1], args[0])
			if err != nil {
				return err
			}

			r, closeJournal, err := app.Registrar()
			if err != nil {
				return err
			}
			defer closeJournal()

			ep, err := app.Connect(cmd.Context(), app.URL(optionalArg(args, 4)), nil)
			if err != nil {
				return err
			}
			defer ep.Close()

			receipt, err := r.Register(cmd.Context(), ep, reg, finalized)
			if err != nil {
				return err
			}
			cmd.Printf("Registered parachain %s (nonce %d) at %s\n", receipt.ParaID, receipt.Nonce, receipt.BlockHash)
			return nil
		},
	}

	cmd.Flags().BoolVar(&finalized, "finalized", false, "wait for finality instead of inclusion")

	return cmd
}
