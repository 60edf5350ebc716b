// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the snowball CLI: iterative
// citation-graph expansion of a seed paper collection through the
// OpenAlex works API.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/snowball/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the snowball CLI.
var rootCmd = &cobra.Command{
	Use:   "snowball",
	Short: "Grow a paper collection by citation snowballing",
	Long: `snowball expands a seed collection of academic papers by iteratively
following forward citations, backward references, and co-author publications
in the OpenAlex citation graph. Each iteration filters and scores the
discovered candidates, admits the best, and stops once the collection
saturates.

Create a project with init, add seed papers with seed, and expand with run.
Inspect progress with status and the collection with papers.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./snowball.yaml or ~/.config/snowball/config.yaml)")
	rootCmd.PersistentFlags().String("database", "", "SQLite database path (default: .snowball/snowball.db)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("snowball")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "snowball"))
		}
	}

	viper.SetDefault("database", filepath.Join(".snowball", "snowball.db"))
	viper.SetDefault("openalex.email", "")
	viper.SetDefault("openalex.api_key", "")

	viper.SetEnvPrefix("SNOWBALL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// databasePath resolves the database location from the flag or config.
func databasePath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("database"); p != "" {
		return p
	}
	return viper.GetString("database")
}

// clientIdentity resolves the OpenAlex polite-pool identity: an email wins
// over an API key, secrets fill in when config is silent.
func clientIdentity() string {
	if email := secretDefault("openalex-email", viper.GetString("openalex.email")); email != "" {
		return email
	}
	return secretDefault("openalex-api-key", viper.GetString("openalex.api_key"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
