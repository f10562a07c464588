package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	envFile    string

	rootCmd = &cobra.Command{
		Use:           "pilot",
		Short:         "Run desktop automation scripts against what is on screen",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "INI configuration file (defaults apply when omitted)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file with PILOT_* overrides")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
