package command

import (
	"github.com/spf13/cobra"

	"github.com/anchore/clio"
	internalhttp "github.com/anchore/ubiforge/internal/http"
	"github.com/anchore/ubiforge/internal/log"
)

func Root(app clio.Application) *cobra.Command {
	cmd := app.SetupRootCommand(&cobra.Command{})

	// wrap any existing PersistentPreRunE to inject dependencies into context
	existingPreRunE := cmd.PersistentPreRunE
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// inject the global logger into the context
		lgr := log.Get()
		ctx = log.WithLogger(ctx, lgr)

		// inject a configured HTTP client into the context (authenticated against the GitHub API when a token is set)
		httpClient := internalhttp.NewClient(lgr.Nested("component", "http-client"), internalhttp.GitHubToken())
		ctx = internalhttp.WithHTTPClient(ctx, httpClient)

		cmd.SetContext(ctx)

		if existingPreRunE != nil {
			return existingPreRunE(cmd, args)
		}
		return nil
	}

	return cmd
}
