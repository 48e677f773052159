// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/litreview/internal/agents"
	"github.com/pdiddy/litreview/internal/engine"
	"github.com/pdiddy/litreview/internal/llm"
	"github.com/pdiddy/litreview/internal/metrics"
	"github.com/pdiddy/litreview/internal/search"
	"github.com/pdiddy/litreview/internal/sources"
	"github.com/pdiddy/litreview/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run <topic>",
	Short: "Run a full literature review session",
	Long: `Run executes the complete agent pipeline for a topic: clarification,
perspective generation, search strategy, retrieval, citation analysis,
synthesis, quality review, and report writing.

Progress events stream to stderr; the final report goes to stdout or the
file given with --output. When the clarifier raises critical questions the
command prompts for answers on stdin unless --skip-clarification is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("mode", "standard", "research mode: quick, standard, comprehensive, clinical, exploratory")
	runCmd.Flags().String("style", "apa", "citation style: apa, vancouver, harvard, chicago")
	runCmd.Flags().Int("max-sources", 0, "override the mode's source cap")
	runCmd.Flags().Int("years-back", 0, "override the mode's publication date range")
	runCmd.Flags().String("model", "", "override the LLM model")
	runCmd.Flags().String("output", "", "write the report to a file instead of stdout")
	runCmd.Flags().Bool("skip-clarification", false, "proceed with the topic as-is instead of prompting")
	runCmd.Flags().Bool("verbose", false, "log engine internals to stderr")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	topic := args[0]
	mode, _ := cmd.Flags().GetString("mode")
	style, _ := cmd.Flags().GetString("style")
	maxSources, _ := cmd.Flags().GetInt("max-sources")
	yearsBack, _ := cmd.Flags().GetInt("years-back")
	model, _ := cmd.Flags().GetString("model")
	output, _ := cmd.Flags().GetString("output")
	skipClarification, _ := cmd.Flags().GetBool("skip-clarification")
	verbose, _ := cmd.Flags().GetBool("verbose")

	key := anthropicKey()
	if key == "" {
		return fmt.Errorf("no Claude API key: put it in .secrets/anthropic-api-key or set LITREVIEW_ANTHROPIC_API_KEY")
	}

	logger := zap.NewNop()
	if verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()
	}

	cfg := engineConfig()
	collector := metrics.NewCollector("litreview", nil)
	registry := sources.DefaultRegistry(cfg, collector)
	deps := agents.Deps{
		LLM:    &llm.Claude{APIKey: key},
		Search: search.New(registry, cfg.Search),
		Logger: logger,
	}
	eng := engine.New(cfg, deps, collector, logger)

	var overrides engine.ConfigOverrides
	overrides.Style = types.CitationStyle(style)
	overrides.MaxSources = maxSources
	overrides.YearsBack = yearsBack
	overrides.Model = model

	id, err := eng.CreateSession("cli", topic, types.ResearchMode(mode), &overrides)
	if err != nil {
		return err
	}

	events, unsubscribe, err := eng.Subscribe(id)
	if err != nil {
		return err
	}
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			printEvent(os.Stderr, ev)
		}
	}()

	ctx := cmd.Context()
	for {
		if err := eng.ExecuteSession(ctx, id); err != nil {
			return err
		}
		sess, err := eng.GetSession(id)
		if err != nil {
			return err
		}

		switch sess.Status {
		case types.StatusAwaitingClarification:
			if skipClarification {
				if err := eng.SkipClarification(id); err != nil {
					return err
				}
				continue
			}
			answers := promptClarifications(os.Stderr, os.Stdin, sess.Clarifications)
			if err := eng.SubmitClarifications(id, answers); err != nil {
				return err
			}
		case types.StatusComplete:
			unsubscribe()
			<-done
			return writeReport(sess, output)
		default:
			return fmt.Errorf("session stopped in state %s", sess.Status)
		}
	}
}

// printEvent renders one engine event as a progress line.
func printEvent(w io.Writer, ev types.Event) {
	switch ev.Type {
	case types.EventAgentStart:
		fmt.Fprintf(w, "[%3d%%] %s: starting\n", ev.Progress, ev.Agent)
	case types.EventAgentComplete:
		fmt.Fprintf(w, "[%3d%%] %s: done\n", ev.Progress, ev.Agent)
	case types.EventAgentError:
		retry := "giving up"
		if ev.Retrying {
			retry = "retrying"
		}
		fmt.Fprintf(w, "       %s: %s (%s)\n", ev.Agent, ev.Message, retry)
	case types.EventSourceFound:
		if ev.Paper != nil {
			fmt.Fprintf(w, "       source: %s (%d) [%s]\n", ev.Paper.Title, ev.Paper.Year, ev.Paper.Source)
		}
	case types.EventPerspectiveAdded:
		if ev.Perspective != nil {
			fmt.Fprintf(w, "       perspective: %s\n", ev.Perspective.Title)
		}
	case types.EventClarificationNeeded:
		fmt.Fprintf(w, "       %s\n", ev.Message)
	case types.EventError:
		fmt.Fprintf(w, "error: %s\n", ev.Message)
	}
}

// promptClarifications asks each question on w and reads answers from r.
// An empty line leaves the question unanswered.
func promptClarifications(w io.Writer, r io.Reader, questions []types.ClarifyingQuestion) map[string]string {
	fmt.Fprintln(w, "\nThe topic needs clarification. Press Enter to skip a question.")
	scanner := bufio.NewScanner(r)
	answers := make(map[string]string)
	for _, q := range questions {
		fmt.Fprintf(w, "  %s\n  > ", q.Question)
		if !scanner.Scan() {
			break
		}
		if a := strings.TrimSpace(scanner.Text()); a != "" {
			answers[q.ID] = a
		}
	}
	return answers
}

// writeReport renders the final report as Markdown to path, or stdout when
// path is empty.
func writeReport(sess types.ResearchSession, path string) error {
	if sess.Report == nil {
		return fmt.Errorf("session finished without a report")
	}

	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating report file: %w", err)
		}
		defer f.Close()
		out = f
	}

	renderReport(out, sess.Report)

	if path != "" {
		fmt.Fprintf(os.Stderr, "Report written to %s (%d words, ~%d min read)\n",
			path, sess.Report.WordCount, sess.Report.ReadingTimeMinutes)
	}
	return nil
}

// renderReport writes the report as Markdown.
func renderReport(w io.Writer, r *types.Report) {
	fmt.Fprintf(w, "# %s\n\n", r.Title)
	for _, section := range r.Sections {
		fmt.Fprintf(w, "## %s\n\n%s\n\n", section.Title, section.Content)
	}
	if len(r.References) > 0 {
		fmt.Fprintln(w, "## References")
		fmt.Fprintln(w)
		for i, ref := range r.References {
			fmt.Fprintf(w, "%d. %s\n", i+1, ref.Formatted)
		}
	}
}
