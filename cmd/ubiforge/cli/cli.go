package cli

import (
	"os"

	"github.com/anchore/clio"
	"github.com/anchore/go-logger"
	"github.com/anchore/ubiforge/cmd/ubiforge/cli/command"
	"github.com/anchore/ubiforge/cmd/ubiforge/cli/internal/ui"
	handler "github.com/anchore/ubiforge/cmd/ubiforge/cli/ui"
	"github.com/anchore/ubiforge/internal/bus"
	"github.com/anchore/ubiforge/internal/log"
)

// New constructs the ubiforge application: every command shares the same application configuration
// (.ubiforge.yaml, UBIFORGE_* environment variables, and flags), logger, and event bus.
func New(id clio.Identification) clio.Application {
	clioCfg := clio.NewSetupConfig(id).
		WithGlobalConfigFlag().   // add persistent -c <path> for reading an application config from
		WithGlobalLoggingFlags(). // add persistent -v and -q flags tied to the logging config
		WithConfigInRootHelp().   // --help on the root command renders the full application config in the help text
		WithUIConstructor(
			// progress is drawn on stderr when stdin is a terminal, otherwise installation results are reported
			// one line each (stdout stays machine readable either way)
			func(cfg clio.Config) ([]clio.UI, error) {
				noUI := ui.None(os.Stderr, cfg.Log.Quiet)
				if !cfg.Log.AllowUI(os.Stdin) || cfg.Log.Quiet {
					return []clio.UI{noUI}, nil
				}

				return []clio.UI{
					ui.New(cfg.Log.Quiet, handler.New(handler.DefaultHandlerConfig())),
					noUI,
				}, nil
			},
		).
		WithLoggingConfig(clio.LoggingConfig{
			Level: logger.WarnLevel,
		}).
		WithInitializers(
			func(state *clio.State) error {
				// clio is setting up and providing the bus and logger to the application. Once loaded,
				// we can hoist them into the internal packages for global use.
				bus.Set(state.Bus)
				log.Set(state.Logger)

				return nil
			},
		)

	app := clio.New(*clioCfg)

	root := command.Root(app)

	root.AddCommand(
		clio.VersionCommand(id),
		command.Add(app),
		command.Install(app),
		command.Check(app),
		command.List(app),
		command.LsRemote(app),
		command.Latest(app),
		command.Update(app),
		command.Cache(app),
		command.Run(app),
	)

	return app
}
