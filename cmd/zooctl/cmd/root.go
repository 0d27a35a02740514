// Package cmd implements the zooctl command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	apiServer string
	output    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "zooctl",
	Short: "Command-line client for the Kung Fu Panda Zoo API",
	Long: `zooctl manages the animals and employees of a running zood.

Examples:
  # List all animals
  zooctl get animals

  # Show one employee as YAML
  zooctl get employee 2 -o yaml

  # Add an animal from a file
  zooctl create animal -f monkey.yaml

  # Replace an animal
  zooctl update animal 6 --set name=Monkey --set diet="Almond cookies"

  # Remove an employee without confirmation
  zooctl delete employee 5 --force`,
	Version:      "0.1.0",
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.zooctl.yaml)")
	rootCmd.PersistentFlags().StringVarP(&apiServer, "server", "s", "http://localhost:8080", "API server address")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "Output format (table, wide, yaml, json)")

	// Bind flags to viper
	viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))

	// Environment variables
	viper.SetEnvPrefix("ZOO")
	viper.AutomaticEnv()
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".zooctl")
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
