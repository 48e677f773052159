// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the litreview CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/litreview/internal/secrets"
	"github.com/pdiddy/litreview/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
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

// rootCmd is the base command for the litreview CLI.
var rootCmd = &cobra.Command{
	Use:   "litreview",
	Short: "Multi-agent literature review over academic databases",
	Long: `litreview runs automated literature reviews. A pipeline of specialized
agents clarifies the topic, plans search strategies, queries academic
databases (PubMed, arXiv, Semantic Scholar, CrossRef, Europe PMC), analyzes
citations, synthesizes themes, and writes a structured report.

Each operation is a subcommand: run executes a full review session, search
performs a one-shot multi-database search, and graph builds a citation graph
around a seed paper.`,
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

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./litreview.yaml or ~/.config/litreview/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("litreview")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "litreview"))
		}
	}

	viper.SetEnvPrefix("LITREVIEW")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// engineConfig assembles the engine configuration from defaults, the
// config file, and loaded secrets.
func engineConfig() types.EngineConfig {
	cfg := types.DefaultEngineConfig()
	if m := viper.GetString("model"); m != "" {
		cfg.Model = m
	}
	if n := viper.GetInt("search.max_results"); n > 0 {
		cfg.Search.MaxResults = n
	}

	// Provider API keys raise the rate limits for the sources that
	// support them.
	cfg.Providers[types.SourcePubMed] = types.DefaultProviderConfig(
		types.SourcePubMed, secretDefault("pubmed-api-key", viper.GetString("pubmed_api_key")))
	cfg.Providers[types.SourceSemanticScholar] = types.DefaultProviderConfig(
		types.SourceSemanticScholar, secretDefault("semantic-scholar-api-key", viper.GetString("semantic_scholar_api_key")))

	if email := secretDefault("crossref-email", viper.GetString("crossref_email")); email != "" {
		pc := cfg.Providers[types.SourceCrossRef]
		pc.Email = email
		cfg.Providers[types.SourceCrossRef] = pc
	}
	return cfg
}

// anthropicKey returns the Claude API key from secrets or environment.
func anthropicKey() string {
	return secretDefault("anthropic-api-key", viper.GetString("anthropic_api_key"))
}

// parseSource resolves a provider name given on the command line.
func parseSource(name string) (types.PaperSource, error) {
	for _, s := range types.AllSources {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q (supported: %v)", name, types.AllSources)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
