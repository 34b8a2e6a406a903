package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/G-Node/trialform/trialform/config"
	"github.com/G-Node/trialform/trialform/form"
	"github.com/G-Node/trialform/trialform/prompt"
	"github.com/G-Node/trialform/trialform/widget"
	"github.com/G-Node/trialform/trialform/worker"
)

func promptCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Fill in the signup form in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger := log.New(io.Discard, "", 0)
			if verbose {
				logger = log.New(os.Stderr, "", log.LstdFlags)
			}
			action := worker.LogAction(logger)

			w := widget.New(
				widget.WithID("terminal"),
				widget.WithResetDelay(cfg.ResetDelay),
				widget.WithLogger(logger),
				widget.WithSubmitHook(func(ctx context.Context, _ string, payload form.Values) error {
					_, err := action(ctx, payload)
					return err
				}),
			)
			defer w.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			if _, err := prompt.Run(ctx, prompt.NewSurveyDriver(), w, out); err != nil {
				if errors.Is(err, prompt.ErrAborted) || errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trialform.yaml", "YAML configuration file (skipped if missing)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log the submitted values (password redacted)")

	return cmd
}
