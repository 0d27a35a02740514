package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update <animal|employee> <id>",
	Short: "Replace a record",
	Long: `Replace a record. Fields that are not given are cleared, the same as
a PUT to the API.

Examples:
  # Replace animal 6 with the contents of a file
  zooctl update animal 6 -f monkey.yaml

  # Replace employee 2 from flags
  zooctl update employee 2 --set name="Dustin Hoffman" --set role="Voice of Shifu"`,
	Args: cobra.ExactArgs(2),
	RunE: runUpdate,
}

var updateFlags recordFlags

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().StringVarP(&updateFlags.filename, "filename", "f", "", "YAML or JSON file with the record (- for stdin)")
	updateCmd.Flags().StringArrayVar(&updateFlags.set, "set", nil, "Set a field (field=value), can be repeated")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	res, err := normalizeResourceType(args[0])
	if err != nil {
		return err
	}

	id, err := res.parseID(args[1])
	if err != nil {
		return err
	}

	rec, err := readRecord(res, updateFlags, cmd.InOrStdin())
	if err != nil {
		return err
	}

	client := NewAPIClient()
	resp, err := client.Put(res.itemPath(id), rec)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", res.name(), err)
	}

	var result mutationResponse
	if err := client.HandleResponse(resp, &result); err != nil {
		return err
	}

	return PrintResult(cmd.OutOrStdout(), &result, GetOutputFormat())
}
