package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/inboxpulse/insight-engine/internal/observability"
	"github.com/inboxpulse/insight-engine/internal/storage"
	"github.com/inboxpulse/insight-engine/pkg/engine"
)

// newAskCmd creates the ask command.
func newAskCmd() *cobra.Command {
	var (
		anchorSubject string
		showContext   bool
		timeout       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question against the marketing warehouse",
		Long: `Ask classifies the question, gathers database context for each
facet, and generates an answer.

Examples:
  insight-cli ask "What were Chase's top subject lines last quarter?"
  insight-cli ask --anchor "50% off everything" "How would this perform?"
  insight-cli ask --show-context "Compare Chime and Current mailing volume"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")

			db, err := openDB()
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()

			repos := storage.NewRepositories(db)
			assistant, err := newAssistant(repos)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			ctx = observability.ContextWithRequestID(ctx, uuid.New().String())

			ui := NewUI(outputJSON)
			spin := ui.Spinner("Thinking...")
			resp, err := assistant.Ask(ctx, engine.AskRequest{
				Question:      question,
				AnchorSubject: anchorSubject,
			})
			spin.Stop()
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			if outputJSON {
				return ui.JSON(resp)
			}

			if showContext {
				ui.Info("--- Context ---")
				ui.Info("%s", resp.Context)
				ui.Info("--- Answer ---")
			}
			fmt.Println(resp.Answer)
			ui.Success("Answered in %dms", resp.LatencyMs)
			return nil
		},
	}

	cmd.Flags().StringVar(&anchorSubject, "anchor", "", "subject line the question refers to")
	cmd.Flags().BoolVar(&showContext, "show-context", false, "print the gathered database context")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall request timeout")

	return cmd
}
