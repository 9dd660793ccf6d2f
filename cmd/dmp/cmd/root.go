package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cloudtechnologies/dmp-go/pkg/dmp"
	"github.com/joho/godotenv"
	"github.com/phsym/console-slog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var verbose = false
var workdir = ""

var rootCmd = &cobra.Command{
	Use:   "dmp",
	Short: "OnAudience DMP datapoint assignment client",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if workdir != "" {
			err := os.Chdir(workdir)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to change working directory: %v\n", err)
				os.Exit(1)
			}
		}
		godotenv.Load()

		logLevel := slog.LevelInfo
		if verbose {
			logLevel = slog.LevelDebug
		}
		if os.Getenv("PRETTY_LOGS") != "false" {
			logger := slog.New(
				console.NewHandler(os.Stderr, &console.HandlerOptions{Level: logLevel}),
			)
			slog.SetDefault(logger)
		} else {
			slog.SetLogLoggerLevel(logLevel)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	viper.AutomaticEnv()
	viper.SetEnvPrefix("DMP")
	persistentFlags := rootCmd.PersistentFlags()
	persistentFlags.StringVarP(&workdir, "workdir", "w", "", "working directory")
	persistentFlags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	persistentFlags.StringP("config-file", "f", "dmp.yaml", "config file, relative to working directory")
	viper.BindPFlag("config_file", persistentFlags.Lookup("config-file"))
}

func newClient() (*dmp.Client, error) {
	config, err := dmp.LoadConfigFile(viper.GetString("config_file"))
	if err != nil {
		return nil, fmt.Errorf("load config file %q: %w", viper.GetString("config_file"), err)
	}
	return dmp.NewClientFromConfig(*config)
}
