package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <animal|employee> <id>",
	Short: "Delete a record",
	Long: `Delete a record.

Examples:
  # Delete an animal, asking for confirmation
  zooctl delete animal 5

  # Delete with force (skip confirmation)
  zooctl delete employee 5 --force`,
	Args: cobra.ExactArgs(2),
	RunE: runDelete,
}

var deleteForce bool

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVar(&deleteForce, "force", false, "Skip confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	res, err := normalizeResourceType(args[0])
	if err != nil {
		return err
	}

	id, err := res.parseID(args[1])
	if err != nil {
		return err
	}

	if !deleteForce {
		fmt.Fprintf(cmd.OutOrStdout(), "Delete %s %d? [y/N]: ", res.name(), id)
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
			return nil
		}
	}

	client := NewAPIClient()
	resp, err := client.Delete(res.itemPath(id))
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", res.name(), err)
	}

	var result mutationResponse
	if err := client.HandleResponse(resp, &result); err != nil {
		return err
	}

	return PrintResult(cmd.OutOrStdout(), &result, GetOutputFormat())
}
