package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/luxfi/paractl/pkg/application"
	"github.com/luxfi/paractl/pkg/relay"
)

var journalOutputJSON bool

// NewJournalCmd creates the journal command
func NewJournalCmd(app *application.Paractl) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show registrations submitted from this machine",
		Long: `Show the registrations recorded in the local journal, oldest first.
The journal is read from --journal, or from <base-dir>/journal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := app.OpenJournal()
			if err != nil {
				return err
			}
			defer j.Close()

			entries, err := j.List()
			if err != nil {
				return err
			}

			if journalOutputJSON {
				out, err := json.MarshalIndent(entries, "", "  ")
				if err != nil {
					return err
				}
				cmd.Println(string(out))
				return nil
			}
			if len(entries) == 0 {
				cmd.Println("No registrations recorded")
				return nil
			}
			for _, e := range entries {
				cmd.Printf("%s  para %s  nonce %d  %s  %s  %s\n",
					e.SubmittedAt.Format("2006-01-02 15:04:05"),
					relay.ParaID(e.ParaID), e.Nonce, e.Status, e.BlockHash, e.Endpoint)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&journalOutputJSON, "json", false, "Output in JSON format")

	return cmd
}
