// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/snowball/internal/store"
	"github.com/pdiddy/snowball/pkg/types"
)

var papersCmd = &cobra.Command{
	Use:   "papers [project]",
	Short: "List or export a project's collection",
	Long: `Papers lists the collection ordered by iteration and score. With --yaml
the full records, including score breakdowns and discovery provenance, are
written to stdout as YAML.`,
	Args: cobra.ExactArgs(1),
	RunE: runPapers,
}

func init() {
	papersCmd.Flags().Bool("yaml", false, "emit full records as YAML")
	papersCmd.Flags().Int("iteration", -1, "only papers admitted in this iteration")
	rootCmd.AddCommand(papersCmd)
}

func runPapers(cmd *cobra.Command, args []string) error {
	s, err := store.Open(databasePath(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	project, err := s.GetProject(args[0])
	if err != nil {
		return err
	}

	var papers []types.Paper
	if iteration, _ := cmd.Flags().GetInt("iteration"); iteration >= 0 {
		papers, err = s.PapersByIteration(project.ID, iteration)
	} else {
		papers, err = s.LoadCollection(project.ID)
	}
	if err != nil {
		return err
	}

	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(papers)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tYEAR\tCITED\tSCORE\tMETHOD\tITER\tTITLE")
	for _, p := range papers {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.3f\t%s\t%d\t%s\n",
			p.OpenAlexID, p.PublicationYear, p.CitedByCount, p.Score,
			p.Method, p.IterationAdded, truncate(p.Title, 60))
	}
	return w.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
