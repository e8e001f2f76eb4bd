// Package cmd contains the duolog command line interface: the presentation
// layer that starts sessions, consumes engine events on a fixed cadence and
// renders them to the terminal.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "duolog",
	Short: "Run a turn-based dialogue between two language-model agents",
	Long: `duolog drives an agent-to-agent conversation: two independently
configured models take alternating turns over a fixed number of rounds,
each agent responding to the other's prior output plus the original
question. Models can be served locally via Ollama or hosted (OpenAI,
Anthropic, Gemini).`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", buildVersion, buildCommit, buildDate)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/duolog/config.yaml)")
}

func initConfig() {
	// Keys in a local .env are picked up before viper reads the environment.
	_ = godotenv.Load()

	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home + "/.config/duolog")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("DUOLOG")
	viper.AutomaticEnv()

	viper.SetDefault("rounds", 3)
	viper.SetDefault("timeout", 600*time.Second)
	viper.SetDefault("cooldown", 2*time.Second)
	viper.SetDefault("retry.base_delay", time.Second)
	viper.SetDefault("retry.max_attempts", 5)
	viper.SetDefault("ollama.url", "http://localhost:11434")
	viper.SetDefault("openai.api_key", "")
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("gemini.api_key", "")

	// Hosted keys also come from the conventional env vars when the
	// DUOLOG_-prefixed ones are absent.
	_ = viper.BindEnv("openai.api_key", "DUOLOG_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = viper.BindEnv("anthropic.api_key", "DUOLOG_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	_ = viper.BindEnv("gemini.api_key", "DUOLOG_GEMINI_API_KEY", "GEMINI_API_KEY")

	// Config file is optional.
	_ = viper.ReadInConfig()
}
