package cli

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	resilientgraphql "github.com/opengovern/resilient-graphql"
)

// paginateCommand creates the "paginate" command.
func (c *CLI) paginateCommand() *cobra.Command {
	var (
		queryFile     string
		vars          string
		direction     string
		variable      string
		path          string
		maxPages      int
		checkpointKey string
	)

	cmd := &cobra.Command{
		Use:   "paginate",
		Short: "Walk every page of a cursor-paginated query, printing one JSON document per page",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, variables, err := readQuery(queryFile, vars)
			if err != nil {
				return err
			}
			dir, err := resilientgraphql.ParseDirection(direction)
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

			opts := &resilientgraphql.PaginationOptions{
				VariableName: variable,
				MaxPages:     maxPages,
			}
			if path != "" {
				opts.Locator = resilientgraphql.ExplicitPath(strings.Split(path, ",")...)
			}
			if checkpointKey != "" {
				store, closeStore, err := c.cursorStore(cmd.Context(), fc)
				if err != nil {
					return err
				}
				defer closeStore()
				if store == nil {
					c.Logger.Warn("--checkpoint-key ignored: no checkpoint store configured")
				} else {
					opts.Checkpoint = store
					opts.CheckpointKey = checkpointKey
				}
			}

			enc := json.NewEncoder(c.out)
			pages := 0
			err = client.Paginate(dir, opts).Execute(cmd.Context(), query, variables, func(page map[string]any) error {
				pages++
				return enc.Encode(page)
			})
			if err != nil {
				return err
			}
			c.Logger.Info("pagination finished", "pages", pages)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&queryFile, "query-file", "", "file containing the GraphQL query")
	flags.StringVar(&vars, "vars", "", "initial query variables as a JSON object")
	flags.StringVar(&direction, "direction", "forward", "forward (after/endCursor) or backward (before/startCursor)")
	flags.StringVar(&variable, "variable", "", "cursor variable name (default after or before)")
	flags.StringVar(&path, "path", "", "comma separated path to the paginated connection, e.g. product,variants")
	flags.IntVar(&maxPages, "max-pages", 0, "stop after this many pages (0 = no limit)")
	flags.StringVar(&checkpointKey, "checkpoint-key", "", "persist cursors under this key in the configured checkpoint store")

	return cmd
}
