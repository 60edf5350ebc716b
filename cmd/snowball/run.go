// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/snowball/internal/snowball"
	"github.com/pdiddy/snowball/internal/store"
	"github.com/pdiddy/snowball/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run [project]",
	Short: "Run citation expansion until saturation",
	Long: `Run expands the project's collection iteration by iteration until a
saturation condition fires, the configured limits are reached, or the run
is interrupted. An interrupted or stopped run resumes from the last
completed iteration on the next invocation.

In semi-automatic mode a saturation signal asks for confirmation before
stopping; manual mode asks after every iteration.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	s, err := store.Open(databasePath(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	project, err := s.GetProject(args[0])
	if err != nil {
		return err
	}
	if project.IsComplete {
		fmt.Printf("project %q is already saturated; delete and recreate it to expand again\n", project.Name)
		return nil
	}

	engine, err := snowball.NewEngine(project, newClient(s), s,
		snowball.WithInteraction(&terminalInteraction{in: os.Stdin, out: os.Stdout}),
		snowball.WithProgress(&progressWriter{w: os.Stdout}),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := engine.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			fmt.Println("\ninterrupted; run again to resume from the last completed iteration")
			return nil
		}
		return err
	}

	if result.IsSaturated {
		fmt.Printf("\nsaturated: %s (confidence %.2f)\n", result.Reason, result.Confidence)
	} else {
		fmt.Println("\nstopped; run again to continue expanding")
	}
	return nil
}

// progressWriter prints one line per completed iteration.
type progressWriter struct {
	w io.Writer
}

func (p *progressWriter) IterationCompleted(rec types.IterationRecord) {
	m := rec.Metrics
	fmt.Fprintf(p.w, "iteration %d: %d candidates, %d new papers, %d total (growth %.3f, novelty %.3f)\n",
		m.IterationNumber, m.CandidatesConsidered, m.NewPapers, m.PapersAfter, m.GrowthRate, m.NoveltyRate)
}

// terminalInteraction collects continue/stop decisions from stdin.
type terminalInteraction struct {
	in  io.Reader
	out io.Writer
}

func (t *terminalInteraction) ConfirmContinue(res types.SaturationResult, m types.IterationMetrics) (bool, error) {
	if res.IsSaturated {
		fmt.Fprintf(t.out, "saturation signal: %s (confidence %.2f)\n", res.Reason, res.Confidence)
	}
	fmt.Fprintf(t.out, "continue expanding? [y/N]: ")

	reader := bufio.NewReader(t.in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("reading response: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
