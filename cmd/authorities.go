package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/luxfi/paractl/pkg/application"
)

var listAuthoritiesJSON bool

// NewClearAuthoritiesCmd creates the clear_authorities command
func NewClearAuthoritiesCmd(app *application.Paractl) *cobra.Command {
	return &cobra.Command{
		Use:   "clear_authorities <spec_file>",
		Short: "Remove all authorities from the chainspec file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			editor, err := app.Editor()
			if err != nil {
				return err
			}
			if err := editor.ClearAuthorities(args[0]); err != nil {
				return err
			}
			app.Metrics.Authorities(0)
			cmd.Printf("Removed all authorities from %s file\n", args[0])
			return nil
		},
	}
}

// NewAddAuthorityCmd creates the add_authority command
func NewAddAuthorityCmd(app *application.Paractl) *cobra.Command {
	return &cobra.Command{
		Use:   "add_authority <spec_file> <authority>",
		Short: "Add an authority to the chainspec file",
		Long: `Add an authority to the chainspec file. The authority is a name such as
"alice"; its first letter is upper-cased to build the development seed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			editor, err := app.Editor()
			if err != nil {
				return err
			}
			if err := editor.AddAuthorities(args[0], []string{args[1]}); err != nil {
				return err
			}
			authorities, err := editor.Authorities(args[0])
			if err != nil {
				return err
			}
			app.Metrics.Authorities(len(authorities))
			cmd.Printf("Added authority %s\n", args[1])
			return nil
		},
	}
}

// NewAddAuthoritiesFromFileCmd creates the add_authorities_from_file command
func NewAddAuthoritiesFromFileCmd(app *application.Paractl) *cobra.Command {
	return &cobra.Command{
		Use:   "add_authorities_from_file <spec_file> <authorities_file>",
		Short: "Clear existing authorities from chainspec and add authorities with seeds from file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			editor, err := app.Editor()
			if err != nil {
				return err
			}
			if err := editor.AddAuthoritiesFromFile(args[0], args[1]); err != nil {
				return err
			}
			authorities, err := editor.Authorities(args[0])
			if err != nil {
				return err
			}
			app.Metrics.Authorities(len(authorities))
			cmd.Printf("Chainspec %s now has %d authorities\n", args[0], len(authorities))
			return nil
		},
	}
}

// NewListAuthoritiesCmd creates the list_authorities command
func NewListAuthoritiesCmd(app *application.Paractl) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list_authorities <spec_file>",
		Short: "List the authorities in the chainspec file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			editor, err := app.Editor()
			if err != nil {
				return err
			}
			authorities, err := editor.Authorities(args[0])
			if err != nil {
				return err
			}
			app.Metrics.Authorities(len(authorities))

			if listAuthoritiesJSON {
				out, err := json.MarshalIndent(authorities, "", "  ")
				if err != nil {
					return err
				}
				cmd.Println(string(out))
				return nil
			}
			for i, a := range authorities {
				cmd.Printf("%d. stash %s\n", i+1, a.Stash)
				cmd.Printf("   grandpa %s\n", a.Keys["grandpa"])
				cmd.Printf("   babe    %s\n", a.Keys["babe"])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&listAuthoritiesJSON, "json", false, "Output in JSON format")

	return cmd
}
