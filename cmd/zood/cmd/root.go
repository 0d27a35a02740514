// Package cmd implements the zood command line.
package cmd

import (
	"github.com/kungfuzoo/zoo/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "0.1.0"

var (
	cfgFile string
	v       = config.New()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "zood",
	Short: "Kung Fu Panda Zoo API server",
	Long: `zood serves the zoo's animals and employees over a JSON REST API.

Configuration is read from defaults, an optional zood.yaml, ZOO_* environment
variables and flags, in increasing order of precedence.

Examples:
  # Serve on the default port with the built-in records
  zood

  # Serve on port 9090 with the badger backend and no records
  zood serve --port 9090 --backend badger --empty

  # Publish changes to an external NATS server
  ZOO_EVENTS_ENABLED=true ZOO_EVENTS_NATS_URL=nats://localhost:4222 zood`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./zood.yaml or $HOME/zood.yaml)")

	flags := rootCmd.PersistentFlags()
	flags.Int("port", 8080, "API server port")
	flags.String("backend", "memory", "record store backend (memory, badger, sqlite)")
	flags.String("seed-file", "", "YAML or JSON file with the initial records")
	flags.Bool("empty", false, "start with no records")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("dev", false, "human-friendly development logging")
	flags.Bool("tracing", false, "export OpenTelemetry traces and metrics to stdout")
	flags.Bool("events", false, "publish record changes to NATS")
	flags.String("nats-url", "", "external NATS server URL (default starts an embedded server)")

	bindFlags(v, map[string]string{
		"server.port":     "port",
		"store.backend":   "backend",
		"seed.file":       "seed-file",
		"seed.empty":      "empty",
		"log.level":       "log-level",
		"log.development": "dev",
		"tracing.enabled": "tracing",
		"events.enabled":  "events",
		"events.nats_url": "nats-url",
	})
}

// bindFlags binds config keys to persistent flags of rootCmd.
func bindFlags(v *viper.Viper, keys map[string]string) {
	for key, flag := range keys {
		cobra.CheckErr(v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)))
	}
}

// loadConfig reads the config file and returns the validated configuration.
func loadConfig() (*config.Config, error) {
	if err := config.ReadFile(v, cfgFile); err != nil {
		return nil, err
	}
	return config.Load(v)
}
