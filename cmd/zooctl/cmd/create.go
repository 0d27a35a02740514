package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create <animal|employee>",
	Short: "Add a record",
	Long: `Add a record from a YAML or JSON file and/or --set flags.
The server assigns the id.

Examples:
  # Add an animal described in a file
  zooctl create animal -f monkey.yaml

  # Add an employee from flags
  zooctl create employee --set name="Seth Rogen" --set role="Voice of Mantis"

  # Read the record from stdin
  cat viper.json | zooctl create animal -f -`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

var createFlags recordFlags

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringVarP(&createFlags.filename, "filename", "f", "", "YAML or JSON file with the record (- for stdin)")
	createCmd.Flags().StringArrayVar(&createFlags.set, "set", nil, "Set a field (field=value), can be repeated")
}

func runCreate(cmd *cobra.Command, args []string) error {
	res, err := normalizeResourceType(args[0])
	if err != nil {
		return err
	}

	rec, err := readRecord(res, createFlags, cmd.InOrStdin())
	if err != nil {
		return err
	}

	client := NewAPIClient()
	resp, err := client.Post(res.listPath(), rec)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", res.name(), err)
	}

	var result mutationResponse
	if err := client.HandleResponse(resp, &result); err != nil {
		return err
	}

	return PrintResult(cmd.OutOrStdout(), &result, GetOutputFormat())
}
