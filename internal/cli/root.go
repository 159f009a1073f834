// Package cli implements the aicpctl command surface: chat, run-eval,
// registry, and review, grounded on the teacher's cmd package pattern
// (a package-level rootCmd, NewXCmd constructors registered in init())
// and original_source/src/aicp/cli.py's subcommand set.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "aicpctl",
	Short: "A control plane for talking to, and orchestrating, LLM providers.",
	Long:  "aicpctl routes completions through a reliability layer with circuit breaking and failover, and runs declarative pipelines of AI-backed stages.",
}

// Execute runs the root command. Called by cmd/aicpctl's main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig builds a viper instance layered per SPEC_FULL.md §6.1: a
// config file at ~/.config/aicpctl/config.yml, overridden by AICP_*
// environment variables, overridden by explicit flags set on cmd.
func loadConfig(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("AICP")
	v.AutomaticEnv()

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "aicpctl"))
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	_ = v.ReadInConfig() // absence of a config file is not an error

	if cmd != nil {
		_ = v.BindPFlags(cmd.Flags())
	}
	return v
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
