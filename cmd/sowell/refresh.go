package main

import (
	"github.com/spf13/cobra"
)

func newRefreshLookupCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-lookup",
		Short: "Rebuild the voter lookup projection after a roll load",
		Long: `Rebuild electorate.voter_lookup and drop the cached classification
aggregates. Run it after every voter roll import; searches keep reading the
previous projection until the refresh commits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.close()
			return a.search.RefreshLookup(cmd.Context())
		},
	}
}
