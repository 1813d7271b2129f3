// Package cli provides the litgraph command-line interface: ingestion
// runs, entity normalization, natural-language graph queries, multi-hop
// reasoning, and temporal trend forecasting, all wired against a shared
// Neo4j-backed graph store.
//
// Configuration can be provided via command-line flags, environment
// variables (LITGRAPH_*), or a YAML configuration file, with the usual
// precedence: flags > environment > config file > defaults.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opencite/litgraph/common"
	"github.com/opencite/litgraph/version"
)

// cfgFile holds the path to the configuration file specified via the
// --config flag. When empty, initConfig searches $HOME/.litgraph.yaml and
// ./.litgraph.yaml.
var cfgFile string

// RootCmd is the entry point for the litgraph CLI.
var RootCmd = &cobra.Command{
	Use:     "litgraph",
	Short:   "Knowledge-graph pipeline for academic AI/ML literature",
	Version: version.GetModuleVersion(),
	Long: `litgraph

Ingests papers from bibliographic and open-access sources, normalizes
entity names into a canonical graph, answers natural-language questions
via generated Cypher, finds multi-hop relationships between entities, and
tracks citation-adoption trends over time.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.litgraph.yaml)")

	RootCmd.PersistentFlags().String("log-level", "info", "log level (debug|info|warn|error)")
	RootCmd.PersistentFlags().String("log-format", "text", "log format (text|json)")

	RootCmd.PersistentFlags().String("neo4j-url", "", "Neo4j bolt URL")
	RootCmd.PersistentFlags().String("neo4j-user", "", "Neo4j username")
	RootCmd.PersistentFlags().String("neo4j-password", "", "Neo4j password")
	RootCmd.PersistentFlags().String("redis-url", "", "Redis URL (optional, enables cross-process job locks and sets the job queue server)")
	RootCmd.PersistentFlags().String("llm-base-url", "", "OpenAI-compatible LLM endpoint")
	RootCmd.PersistentFlags().String("llm-api-key", "", "LLM API key")
	RootCmd.PersistentFlags().String("llm-model", "", "LLM model name")

	viper.BindPFlag("log.level", RootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", RootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("neo4j.url", RootCmd.PersistentFlags().Lookup("neo4j-url"))
	viper.BindPFlag("neo4j.user", RootCmd.PersistentFlags().Lookup("neo4j-user"))
	viper.BindPFlag("neo4j.password", RootCmd.PersistentFlags().Lookup("neo4j-password"))
	viper.BindPFlag("redis.url", RootCmd.PersistentFlags().Lookup("redis-url"))
	viper.BindPFlag("llm.base_url", RootCmd.PersistentFlags().Lookup("llm-base-url"))
	viper.BindPFlag("llm.api_key", RootCmd.PersistentFlags().Lookup("llm-api-key"))
	viper.BindPFlag("llm.model", RootCmd.PersistentFlags().Lookup("llm-model"))

	RootCmd.AddCommand(ingestCmd)
	RootCmd.AddCommand(normalizeCmd)
	RootCmd.AddCommand(queryCmd)
	RootCmd.AddCommand(reasonCmd)
	RootCmd.AddCommand(temporalCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".litgraph")
	}

	viper.SetEnvPrefix("LITGRAPH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	common.Configure(viper.GetString("log.level"), viper.GetString("log.format"))
}

// Execute runs the root command, exiting the process on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
