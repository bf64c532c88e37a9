// cmd/client/cmd/task/list.go
package task

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long: `List tasks from the server. While offline, a cached response is
served when one is fresh enough.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := appFromContext(cmd)
		if err != nil {
			return err
		}

		data, err := app.Facade().Get(cmd.Context(), "/tasks")
		if err != nil {
			return err
		}

		var tasks []struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			Status string `json:"status"`
		}
		if err := json.Unmarshal(data, &tasks); err != nil {
			return fmt.Errorf("failed to parse task list: %w", err)
		}

		if len(tasks) == 0 {
			fmt.Println("No tasks")
			return nil
		}

		for _, t := range tasks {
			fmt.Printf("%-28s %-10s %s\n", t.ID, t.Status, t.Name)
		}
		return nil
	},
}
