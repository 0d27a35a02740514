package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <animals|employees> [id]",
	Short: "Display one or many records",
	Long: `Display one or many records.

Resource types:
  animals, animal
  employees, employee

Examples:
  # List all animals
  zooctl get animals

  # Get a specific employee
  zooctl get employee 3

  # List every column of every animal
  zooctl get animals -o wide

  # Get records in YAML format
  zooctl get animals -o yaml`,
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: []string{"animals", "animal", "employees", "employee"},
	RunE:      runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	res, err := normalizeResourceType(args[0])
	if err != nil {
		return err
	}

	client := NewAPIClient()
	outputFormat := GetOutputFormat()

	if len(args) == 2 {
		id, err := res.parseID(args[1])
		if err != nil {
			return err
		}

		resp, err := client.Get(res.itemPath(id))
		if err != nil {
			return fmt.Errorf("failed to get %s: %w", res.name(), err)
		}

		var rec record
		if err := client.HandleResponse(resp, &rec); err != nil {
			return err
		}

		return PrintRecords(cmd.OutOrStdout(), res, map[int]record{id: rec}, outputFormat)
	}

	resp, err := client.Get(res.listPath())
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", res.kind.Collection, err)
	}

	var raw map[string]record
	if err := client.HandleResponse(resp, &raw); err != nil {
		return err
	}

	records, err := keyByID(raw)
	if err != nil {
		return err
	}

	return PrintRecords(cmd.OutOrStdout(), res, records, outputFormat)
}

// keyByID converts the JSON object keys of a list response to IDs.
func keyByID(raw map[string]record) (map[int]record, error) {
	records := make(map[int]record, len(raw))
	for key, rec := range raw {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("server returned non-numeric id %q", key)
		}
		records[id] = rec
	}
	return records, nil
}
