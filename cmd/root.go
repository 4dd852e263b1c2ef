package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	catalogCmd "podracer/pkg/cmd/catalog"
	historyCmd "podracer/pkg/cmd/history"
	raceCmd "podracer/pkg/cmd/race"
	serveCmd "podracer/pkg/cmd/serve"
	"podracer/pkg/config"
	"podracer/pkg/helper"
	"podracer/pkg/log"
)

const envPrefix = "PODRACER"

// env names kept from the bot deployment
var legacyEnv = map[string]string{
	"telegram-token":    "TELEGRAM_TOKEN",
	"webserver-address": "WEBSERVER_ADDRESS",
}

var (
	cfgFile string
	chatIDs []string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "podracer",
	Short: "Pick a track and a racer, then race against the pod racing backend",
	Long:  ``,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()
		ids, err := helper.ParseChatIDs(chatIDs)
		if err != nil {
			return err
		}
		config.TelegramChatIDs = ids
		return nil
	},
	SilenceUsage: true,
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
		"config file (default is $HOME/.podracer.yml)")

	rootCmd.PersistentFlags().StringVar(&config.BackendURL,
		"backend-url",
		config.DefaultBackendURL,
		"base URL of the racing backend")
	rootCmd.PersistentFlags().DurationVar(&config.HTTPTimeout,
		"http-timeout",
		8*time.Second,
		"timeout for a single backend request")
	rootCmd.PersistentFlags().DurationVar(&config.PollInterval,
		"poll-interval",
		config.DefaultPollInterval,
		"interval between race status requests")
	rootCmd.PersistentFlags().IntVar(&config.PollMaxTicks,
		"poll-max-ticks",
		1200,
		"give up after this many polls without a finished race (0 polls forever)")
	rootCmd.PersistentFlags().DurationVar(&config.CountdownTick,
		"countdown-tick",
		config.DefaultCountdownTick,
		"duration of one countdown step")
	rootCmd.PersistentFlags().IntVar(&config.RaceIDOffset,
		"race-id-offset",
		config.DefaultRaceIDOffset,
		"added to the race id returned on creation before it is used")
	rootCmd.PersistentFlags().IntVar(&config.RetryMax,
		"retry-max",
		3,
		"retries for creating and starting a race on transient failures")
	rootCmd.PersistentFlags().DurationVar(&config.RetryInitialInterval,
		"retry-initial-interval",
		200*time.Millisecond,
		"first retry backoff")
	rootCmd.PersistentFlags().DurationVar(&config.RetryMaxInterval,
		"retry-max-interval",
		2*time.Second,
		"upper bound of the retry backoff")
	rootCmd.PersistentFlags().StringVar(&config.HistoryDB,
		"history-db",
		"",
		"sqlite file for race results (empty disables the history)")
	rootCmd.PersistentFlags().StringVar(&config.TelegramToken,
		"telegram-token",
		"",
		"bot token used to announce results (empty disables notifications)")
	rootCmd.PersistentFlags().StringSliceVar(&chatIDs,
		"telegram-chat-ids",
		[]string{},
		"telegram chats receiving race results")
	rootCmd.PersistentFlags().StringSliceVar(&config.TrackNames,
		"track-names",
		config.DefaultTrackNames,
		"display names applied to the tracks by position")
	rootCmd.PersistentFlags().StringSliceVar(&config.RacerNames,
		"racer-names",
		config.DefaultRacerNames,
		"display names applied to the racers by position")
	rootCmd.PersistentFlags().DurationVar(&config.CatalogRefresh,
		"catalog-refresh",
		time.Hour,
		"drop cached tracks and racers after this interval (0 keeps them)")
	rootCmd.PersistentFlags().StringVar(&config.LogLevel,
		"log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().StringVar(&config.LogFormat,
		"log-format",
		"text",
		"controls the log output format (text, json)")

	// add commands here
	rootCmd.AddCommand(raceCmd.NewRaceCmd())
	rootCmd.AddCommand(serveCmd.NewServeCmd())
	rootCmd.AddCommand(catalogCmd.NewCatalogCmd())
	rootCmd.AddCommand(historyCmd.NewHistoryCmd())
}

// initConfig reads in .env, the config file and ENV variables if set.
func initConfig() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "Could not load .env:", err)
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".podracer" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".podracer")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	bindFlags(rootCmd, viper.GetViper())
	for _, cmd := range rootCmd.Commands() {
		bindFlags(cmd, viper.GetViper())
	}
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --backend-url to PODRACER_BACKEND_URL
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			envNames := []string{fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)}
			if legacy, ok := legacyEnv[f.Name]; ok {
				envNames = append(envNames, legacy)
			}
			if err := v.BindEnv(append([]string{f.Name}, envNames...)...); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper config value to the flag when the flag is not set and viper
		// has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := fmt.Sprintf("%v", v.Get(f.Name))
			if f.Value.Type() == "stringSlice" {
				val = strings.Join(v.GetStringSlice(f.Name), ",")
			}
			if err := cmd.Flags().Set(f.Name, val); err != nil {
				fmt.Fprintf(os.Stderr, "Could set flag value for %s: %v", f.Name, err)
			}
		}
	})
}

func setupLogger() {
	level, err := log.ParseLevel(config.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.ResetDefault(log.New(os.Stderr, level, config.LogFormat, log.WithCaller(true), log.AddCallerSkip(1)))
}
