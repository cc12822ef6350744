/*
	Copyright 2024 Markus Papenbrock
*/

package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/log"
	eventsCmd "github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/cmd/events"
	serverCmd "github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/cmd/server"
	summaryCmd "github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/cmd/summary"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/cmd/util"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/config"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/version"
)

const envPrefix = "FTD"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "ftd",
	Short:   "Session telemetry dashboard for Formula 1",
	Long:    ``,
	Version: version.FullVersion,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:funlen // flag definitions
func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.ftd.yml)")

	rootCmd.PersistentFlags().IntVar(&config.Year, "year",
		time.Now().Year(),
		"season to use")
	rootCmd.PersistentFlags().StringVar(&config.SessionType, "session-type",
		"Race",
		"session type of selected events (Race, Qualifying, Sprint, FP1, ...)")
	rootCmd.PersistentFlags().StringVar(&config.SourceURL, "source-url",
		"https://api.openf1.org/v1",
		"base URL of the OpenF1 API")
	rootCmd.PersistentFlags().StringVar(&config.CircuitURL, "circuit-url",
		"https://api.multiviewer.app/api/v1/circuits",
		"base URL of the circuit info API")
	rootCmd.PersistentFlags().StringVar(&config.SourceTimeout, "source-timeout",
		"30s",
		"timeout for requests to the data source")
	rootCmd.PersistentFlags().StringVar(&config.WaitForServices,
		"wait-for-services",
		"15s",
		"Duration to wait for other services to be ready")
	rootCmd.PersistentFlags().StringVar(&config.LogLevel,
		"log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().StringVar(&config.LogFormat,
		"log-format",
		"text",
		"controls the log output format (json, text)")
	rootCmd.PersistentFlags().StringVar(&config.LogFilter,
		"log-filter",
		"",
		"zapfilter rules, for example '*:* -debug:broadcast'")

	// add commands here
	rootCmd.AddCommand(serverCmd.NewServerCmd())
	rootCmd.AddCommand(eventsCmd.NewEventsCmd())
	rootCmd.AddCommand(summaryCmd.NewSummaryCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".ftd" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".ftd")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		viper.OnConfigChange(onConfigChange)
		viper.WatchConfig()
	}

	bindFlags(rootCmd, viper.GetViper())
	for _, cmd := range rootCmd.Commands() {
		bindFlags(cmd, viper.GetViper())
	}
}

// onConfigChange applies a changed log level to the running logger.
// Other values are only read at startup.
func onConfigChange(e fsnotify.Event) {
	if !viper.IsSet("log-level") {
		return
	}
	level := util.ParseLogLevel(viper.GetString("log-level"), log.Default().Level())
	if level != log.Default().Level() {
		log.Info("Config changed, applying log level",
			log.String("file", e.Name), log.Stringer("level", level))
		log.Default().SetLevel(level)
	}
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --log-level to FTD_LOG_LEVEL
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper config value to the flag when the flag is not set and viper
		// has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "Could set flag value for %s: %v", f.Name, err)
			}
		}
	})
}
