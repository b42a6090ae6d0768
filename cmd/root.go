package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/luxfi/paractl/pkg/application"
)

var (
	// Version information (set by ldflags)
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"

	// Global flags
	configFile string
	logLevel   string
	baseDir    string

	// Application context
	app = application.New()
)

// Execute runs the root command. The metrics file, when configured, is
// written whether or not the command succeeded.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	if app.Config != nil {
		if werr := app.WriteMetrics(); werr != nil {
			app.Log.Warn("Failed to write metrics", "error", werr)
		}
	}
	if err != nil && app.Log != nil {
		app.Log.Error("Command failed", "error", err)
	}
	return err
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "paractl",
		Short:        "Parachain registration and chainspec tool",
		Long:         `A CLI for registering parachains with a relay chain, checking that they produce blocks, and managing the authority set of a chainspec.`,
		Version:      fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Initialize application context
			return initializeApp()
		},
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default is ./paractl.yaml)")
	flags.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&baseDir, "base-dir", "", "base directory for paractl data")
	flags.String("signer", application.DefaultSignerSeed, "secret URI of the sudo account")
	flags.Uint16("ss58-prefix", 42, "SS58 address prefix")
	flags.Duration("connect-timeout", 3*time.Second, "relay chain connection timeout")
	flags.Int("poll-attempts", 100, "registration poll attempts")
	flags.Duration("poll-interval", 2*time.Second, "delay between registration polls")
	flags.String("journal", "", "directory of the registration journal (disabled when empty)")
	flags.String("metrics-file", "", "write prometheus metrics to this file after each command")

	bindFlag(flags.Lookup("log-level"), application.KeyLogLevel)
	bindFlag(flags.Lookup("signer"), application.KeySignerSeed)
	bindFlag(flags.Lookup("ss58-prefix"), application.KeySS58Prefix)
	bindFlag(flags.Lookup("connect-timeout"), application.KeyConnectTimeout)
	bindFlag(flags.Lookup("poll-attempts"), application.KeyPollAttempts)
	bindFlag(flags.Lookup("poll-interval"), application.KeyPollInterval)
	bindFlag(flags.Lookup("journal"), application.KeyJournalPath)
	bindFlag(flags.Lookup("metrics-file"), application.KeyMetricsFile)

	// Initialize config
	cobra.OnInitialize(initConfig)

	// Add commands
	rootCmd.AddCommand(NewRegisterParachainsCmd(app))
	rootCmd.AddCommand(NewRegisterParachainCmd(app))
	rootCmd.AddCommand(NewTestParachainCmd(app))
	rootCmd.AddCommand(NewCheckRegistrationCmd(app))
	rootCmd.AddCommand(NewClearAuthoritiesCmd(app))
	rootCmd.AddCommand(NewAddAuthorityCmd(app))
	rootCmd.AddCommand(NewAddAuthoritiesFromFileCmd(app))
	rootCmd.AddCommand(NewListAuthoritiesCmd(app))
	rootCmd.AddCommand(NewRetrieveBestBlockCmd(app))
	rootCmd.AddCommand(NewJournalCmd(app))

	return rootCmd
}

func bindFlag(flag *pflag.Flag, key string) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("paractl")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PARACTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; defaults and flags still apply.
	_ = viper.ReadInConfig()
}

func initializeApp() error {
	// Set up base directory
	if baseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		baseDir = filepath.Join(homeDir, ".paractl")
	}

	// Create base directory if it doesn't exist
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create base directory: %w", err)
	}

	logger, err := application.NewLogger("paractl", viper.GetString(application.KeyLogLevel))
	if err != nil {
		return err
	}

	app.Setup(baseDir, logger, viper.GetViper())
	return nil
}
