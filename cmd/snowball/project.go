// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/snowball/internal/store"
	"github.com/pdiddy/snowball/pkg/types"
)

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Create a new snowball project",
	Long: `Init creates a project with the given name in the local database. The
expansion behavior is controlled by flags; unset flags take the standard
defaults. Scoring weights can be tuned individually.`,
	Args: cobra.ExactArgs(1),
	RunE: runInit,
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects in the local database",
	RunE:  runProjects,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a project and its collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	initCmd.Flags().Int("min-year", 0, "earliest accepted publication year (0 = unbounded)")
	initCmd.Flags().Int("max-year", 0, "latest accepted publication year (0 = unbounded)")
	initCmd.Flags().Int("min-citations", 0, "minimum citation count for inclusion")
	initCmd.Flags().Bool("include-preprints", true, "admit preprints and posted content")
	initCmd.Flags().StringSlice("languages", []string{"en"}, "accepted language codes (empty = all)")
	initCmd.Flags().String("mode", string(types.ModeSemiAutomatic), "iteration mode: automatic, semi-automatic, manual, or fixed")
	initCmd.Flags().Int("max-iterations", 5, "maximum expansion rounds")
	initCmd.Flags().Int("max-papers", 500, "maximum collection size")
	initCmd.Flags().Int("papers-per-iteration", 50, "top-scored candidates admitted per round")
	initCmd.Flags().Float64("growth-threshold", 0.05, "stop when growth rate falls below this")
	initCmd.Flags().Float64("novelty-threshold", 0.10, "stop when novelty rate falls below this")
	initCmd.Flags().Float64("weight-velocity", 0.25, "citation velocity weight")
	initCmd.Flags().Float64("weight-recent", 0.20, "recent citations weight")
	initCmd.Flags().Float64("weight-foundational", 0.25, "foundational weight")
	initCmd.Flags().Float64("weight-author-overlap", 0.15, "author overlap weight")
	initCmd.Flags().Float64("weight-recency", 0.15, "recency weight")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(deleteCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg := types.DefaultConfig()
	flags := cmd.Flags()

	cfg.MinYear, _ = flags.GetInt("min-year")
	cfg.MaxYear, _ = flags.GetInt("max-year")
	cfg.MinCitations, _ = flags.GetInt("min-citations")
	cfg.IncludePreprints, _ = flags.GetBool("include-preprints")
	cfg.Languages, _ = flags.GetStringSlice("languages")
	mode, _ := flags.GetString("mode")
	cfg.IterationMode = types.IterationMode(mode)
	cfg.MaxIterations, _ = flags.GetInt("max-iterations")
	cfg.MaxPapers, _ = flags.GetInt("max-papers")
	cfg.PapersPerIteration, _ = flags.GetInt("papers-per-iteration")
	cfg.GrowthThreshold, _ = flags.GetFloat64("growth-threshold")
	cfg.NoveltyThreshold, _ = flags.GetFloat64("novelty-threshold")
	cfg.Weights.CitationVelocity, _ = flags.GetFloat64("weight-velocity")
	cfg.Weights.RecentCitations, _ = flags.GetFloat64("weight-recent")
	cfg.Weights.Foundational, _ = flags.GetFloat64("weight-foundational")
	cfg.Weights.AuthorOverlap, _ = flags.GetFloat64("weight-author-overlap")
	cfg.Weights.Recency, _ = flags.GetFloat64("weight-recency")

	s, err := store.Open(databasePath(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := s.CreateProject(args[0], cfg)
	if err != nil {
		return err
	}

	fmt.Printf("created project %q (%s)\n", p.Name, p.ID)
	fmt.Printf("mode: %s, max iterations: %d, max papers: %d, per iteration: %d\n",
		p.Config.IterationMode, p.Config.MaxIterations, p.Config.MaxPapers, p.Config.PapersPerIteration)
	return nil
}

func runProjects(cmd *cobra.Command, args []string) error {
	s, err := store.Open(databasePath(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	projects, err := s.ListProjects()
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Println("no projects")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPAPERS\tITERATION\tMODE\tCOMPLETE")
	for _, p := range projects {
		size, err := s.CollectionSize(p.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%v\n",
			p.Name, size, p.CurrentIteration, p.Config.IterationMode, p.IsComplete)
	}
	return w.Flush()
}

func runDelete(cmd *cobra.Command, args []string) error {
	s, err := store.Open(databasePath(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := s.GetProject(args[0])
	if err != nil {
		return err
	}
	if err := s.DeleteProject(p.ID); err != nil {
		return err
	}
	fmt.Printf("deleted project %q\n", p.Name)
	return nil
}
