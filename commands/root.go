package commands

import (
	"context"
	"fmt"
	"io"

	"sjsage522/carsales/config"
	"sjsage522/carsales/internal/scraper"
	"sjsage522/carsales/logger"
	apperrors "sjsage522/carsales/pkg/errors"
	"sjsage522/carsales/services/updater"

	"github.com/spf13/cobra"
)

// app carries the configuration and services shared by the subcommands
type app struct {
	cfg      *config.Config
	services *Services
}

// NewRootCommand builds the carsales command tree
func NewRootCommand(cfg *config.Config) *cobra.Command {
	return newRootCommand(&app{cfg: cfg})
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "carsales",
		Short:         "carsales merges monthly car sales figures for China, the US and Europe into xlsx spreadsheets.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			services, err := initializeServices(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			a.services = services
			return nil
		},
	}

	rootCmd.AddCommand(
		newChinaCmd(a),
		newUSCmd(a),
		newEuropeCmd(a),
		newFormatCmd(a),
	)
	return rootCmd
}

// Execute runs the command line args against a fresh command tree
func Execute(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	a := &app{cfg: cfg}
	defer func() {
		if a.services != nil {
			a.services.Cleanup()
		}
	}()

	rootCmd := newRootCommand(a)
	rootCmd.SetArgs(args)
	if out != nil {
		rootCmd.SetOut(out)
		rootCmd.SetErr(out)
	}
	return rootCmd.ExecuteContext(ctx)
}

// fail records a command failure that happened before the update pipeline ran
func (a *app) fail(command string, err error) error {
	if a.services != nil {
		a.services.Failures.LogError(command, err)
	}
	return err
}

// invalid wraps a bad argument as a validation error and records it
func (a *app) invalid(command string, err error) error {
	return a.fail(command, apperrors.NewValidation(command, err.Error()))
}

// base returns the scraper settings shared by all regions
func (a *app) base(url string) scraper.BaseScraper {
	return scraper.BaseScraper{
		URL:       url,
		CacheSvc:  a.services.Cache,
		BlockTime: a.cfg.RateLimitBlockTime,
		Client:    a.services.Client,
	}
}

// brands returns the brand map of region with the configured overrides
func (a *app) brands(command, region string) (*scraper.BrandMap, error) {
	m, err := scraper.BrandsFor(region, a.services.Overrides)
	if err != nil {
		return nil, a.fail(command, apperrors.NewConfiguration("brand map", err))
	}
	return m, nil
}

// run executes the update pipeline and reports the outcome on the command's output
func (a *app) run(cmd *cobra.Command, s scraper.Scraper, req updater.Request) error {
	u := updater.NewUpdater(a.services.Publisher, a.services.Failures)

	result, err := u.Run(cmd.Context(), s, req)
	if err != nil {
		return err
	}

	if result.Sheet != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "updated %s sheet %q: %d records, %d written, %d unchanged, %d conflicts, %d cleared\n",
			result.Path, result.Sheet, result.Records, result.Stats.Written, result.Stats.Unchanged, result.Stats.Conflicts, result.Stats.Cleared)
	}
	if result.Snapshot != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "added sheet %q to %s\n", result.Snapshot, result.Path)
	}
	logger.ForUpdater().Debug().Str("command", cmd.Name()).Msg("Command finished")
	return nil
}
