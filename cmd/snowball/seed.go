// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/snowball/internal/cache"
	"github.com/pdiddy/snowball/internal/openalex"
	"github.com/pdiddy/snowball/internal/store"
	"github.com/pdiddy/snowball/pkg/types"
)

var seedCmd = &cobra.Command{
	Use:   "seed [project] [identifiers...]",
	Short: "Add seed papers to a project",
	Long: `Seed resolves identifiers against OpenAlex and adds the resulting works
to the project as seed papers. Identifiers may be OpenAlex work IDs
(W2741809807), DOIs (10.xxxx/... or https://doi.org/...), or, with --title,
a free-text title to search for.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().String("title", "", "search for a work by title instead of resolving identifiers")
	rootCmd.AddCommand(seedCmd)
}

// newClient builds the OpenAlex client backed by the store's response cache.
func newClient(s *store.Store) *openalex.Client {
	return openalex.NewClient(
		openalex.WithIdentity(clientIdentity()),
		openalex.WithCache(cache.New(s, cache.DefaultTTL)),
	)
}

func runSeed(cmd *cobra.Command, args []string) error {
	title, _ := cmd.Flags().GetString("title")
	if title == "" && len(args) < 2 {
		return fmt.Errorf("provide identifiers to resolve, or --title to search")
	}

	s, err := store.Open(databasePath(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	project, err := s.GetProject(args[0])
	if err != nil {
		return err
	}

	client := newClient(s)
	ctx := context.Background()

	var works []types.Work
	if title != "" {
		found, err := client.SearchByTitle(ctx, title, 1)
		if err != nil {
			return fmt.Errorf("searching for %q: %w", title, err)
		}
		if len(found) == 0 {
			return fmt.Errorf("no work matched title %q", title)
		}
		works = found[:1]
	} else {
		for _, ident := range args[1:] {
			work, err := resolveIdentifier(ctx, client, ident)
			if err != nil {
				return fmt.Errorf("resolving %s: %w", ident, err)
			}
			works = append(works, work)
		}
	}

	for _, w := range works {
		paper, err := s.AddSeed(project.ID, seedPaper(w))
		if err != nil {
			return err
		}
		fmt.Printf("added seed %s: %s (%d)\n", paper.OpenAlexID, paper.Title, paper.PublicationYear)
	}
	return nil
}

// resolveIdentifier fetches a work by OpenAlex ID or DOI.
func resolveIdentifier(ctx context.Context, client *openalex.Client, ident string) (types.Work, error) {
	if strings.HasPrefix(ident, "10.") || strings.Contains(ident, "doi.org/") {
		return client.GetWorkByDOI(ctx, ident)
	}
	return client.GetWork(ctx, ident)
}

// seedPaper converts a resolved work into a seed collection paper.
func seedPaper(w types.Work) types.Paper {
	return types.Paper{
		OpenAlexID:      w.ID,
		DOI:             w.DOI,
		PMID:            w.PMID,
		Title:           w.Title,
		Authors:         w.Authors,
		PublicationYear: w.PublicationYear,
		Type:            w.Type,
		Language:        w.Language,
		CitedByCount:    w.CitedByCount,
		CountsByYear:    w.CountsByYear,
		ReferencedWorks: w.ReferencedWorks,
		Method:          types.DiscoverySeed,
	}
}
