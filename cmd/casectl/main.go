// Command casectl seeds and inspects the case study store from a terminal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harshnakad-cyber/Finastra/internal/app"
	"github.com/harshnakad-cyber/Finastra/internal/casestudies"
	"github.com/harshnakad-cyber/Finastra/internal/config"
	"github.com/harshnakad-cyber/Finastra/internal/validation"
)

type options struct {
	verbose bool
	timeout time.Duration
	output  string
}

// runtime is what every subcommand works against.
type runtime struct {
	cfg     *config.Config
	log     *slog.Logger
	stores  *app.Stores
	service *casestudies.Service
}

func (rt *runtime) close() {
	if rt.stores == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.stores.Close(ctx); err != nil {
		rt.log.Warn("store close failed", slog.String("error", err.Error()))
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "casectl",
		Short:         "Seed and query the case study catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall command timeout")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "yaml", "output format: yaml or json")

	root.AddCommand(
		newSeedCmd(opts),
		newListCmd(opts),
		newShowCmd(opts),
		newFacetsCmd(opts),
	)
	return root
}

// withRuntime opens the configured stores for the duration of fn.
func withRuntime(cmd *cobra.Command, opts *options, fn func(ctx context.Context, rt *runtime) error) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	stores, err := app.OpenStores(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	rt := &runtime{
		cfg:     cfg,
		log:     log,
		stores:  stores,
		service: casestudies.NewService(stores.CaseStudies, validation.New(), cfg.Location(), log),
	}
	defer rt.close()
	return fn(ctx, rt)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
