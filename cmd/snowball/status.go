// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/snowball/internal/snowball"
	"github.com/pdiddy/snowball/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status [project]",
	Short: "Show a project's expansion progress",
	Long: `Status prints the project's configuration summary, collection size, and
the metrics of every completed iteration, with a growth-trend estimate.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := store.Open(databasePath(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	project, err := s.GetProject(args[0])
	if err != nil {
		return err
	}
	size, err := s.CollectionSize(project.ID)
	if err != nil {
		return err
	}
	seeds, err := s.Seeds(project.ID)
	if err != nil {
		return err
	}
	records, err := s.Iterations(project.ID)
	if err != nil {
		return err
	}

	fmt.Printf("project:    %s\n", project.Name)
	fmt.Printf("mode:       %s\n", project.Config.IterationMode)
	fmt.Printf("papers:     %d (%d seeds), max %d\n", size, len(seeds), project.Config.MaxPapers)
	fmt.Printf("iterations: %d of %d\n", project.CurrentIteration, project.Config.MaxIterations)
	fmt.Printf("complete:   %v\n", project.IsComplete)

	if len(records) == 0 {
		return nil
	}

	tracker := snowball.NewTracker()
	for _, rec := range records {
		tracker.Record(rec.Metrics)
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITER\tCANDIDATES\tNEW\tTOTAL\tGROWTH\tNOVELTY\tFWD\tBACK\tAUTHOR\tSATURATION")
	for _, rec := range records {
		m := rec.Metrics
		saturation := "-"
		if rec.Saturation.IsSaturated {
			saturation = fmt.Sprintf("%s (%.2f)", rec.Saturation.Reason, rec.Saturation.Confidence)
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%.3f\t%.3f\t%d\t%d\t%d\t%s\n",
			m.IterationNumber, m.CandidatesConsidered, m.NewPapers, m.PapersAfter,
			m.GrowthRate, m.NoveltyRate, m.ForwardFound, m.BackwardFound, m.AuthorFound, saturation)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\ngrowth trend: %s, progress: %.0f%%\n",
		tracker.GrowthTrend(), tracker.Progress(project.Config)*100)
	return nil
}
