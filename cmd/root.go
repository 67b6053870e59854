package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jamesmacaulay/backfire/internal/config"
	"github.com/jamesmacaulay/backfire/internal/observability"
)

// Version is stamped at build time.
var Version = "dev"

var (
	cfgFile   string
	loadedCfg *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "backfire",
	Short:   "Backfire pastes Backpack journal updates into a Campfire room.",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initializeConfig(); err != nil {
			return fmt.Errorf("failed to initialize configuration: %w", err)
		}

		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		loadedCfg = cfg

		observability.InitializeLogger(cfg.Logger)
		observability.GetLogger().Info("starting backfire", zap.String("version", Version))
		return nil
	},
}

// Execute runs the root command. It accepts a context from main so TERM and
// INT stop the bot between polling cycles.
func Execute(ctx context.Context) error {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// context.Canceled during graceful shutdown is expected, not a failure.
		if ctx.Err() == nil {
			observability.GetLogger().Error("command execution failed", zap.Error(err))
		}
		return err
	}
	return nil
}

func init() {
	// Pick up BACKFIRE_* values from a local .env when present.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")

	rootCmd.AddCommand(runCmd)
}

// initializeConfig reads in the config file and environment variables.
func initializeConfig() error {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("BACKFIRE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Credentials usually arrive via the environment, not the file.
	_ = viper.BindEnv("campfire.login", "BACKFIRE_CAMPFIRE_LOGIN")
	_ = viper.BindEnv("campfire.password", "BACKFIRE_CAMPFIRE_PASSWORD")
	_ = viper.BindEnv("backpack.token", "BACKFIRE_BACKPACK_TOKEN")

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults plus environment
		// variables may be a complete configuration.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}
