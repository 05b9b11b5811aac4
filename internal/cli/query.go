package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// queryCommand creates the "query" command.
func (c *CLI) queryCommand() *cobra.Command {
	var (
		queryFile string
		vars      string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Execute a single GraphQL query and print the response",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, variables, err := readQuery(queryFile, vars)
			if err != nil {
				return err
			}
			fc, err := c.fileConfig()
			if err != nil {
				return err
			}
			client, err := c.newClient(fc)
			if err != nil {
				return err
			}

			resp, err := client.Execute(cmd.Context(), query, variables)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(c.out)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}

	cmd.Flags().StringVar(&queryFile, "query-file", "", "file containing the GraphQL query")
	cmd.Flags().StringVar(&vars, "vars", "", "query variables as a JSON object")

	return cmd
}
