// cmd/client/cmd/task/create.go
package task

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	taskName        string
	taskDescription string
	taskZoneID      string
)

var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a task",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := appFromContext(cmd)
		if err != nil {
			return err
		}

		if taskName == "" {
			return fmt.Errorf("--name is required")
		}

		body := map[string]any{"name": taskName}
		if taskDescription != "" {
			body["description"] = taskDescription
		}
		if taskZoneID != "" {
			body["zoneId"] = taskZoneID
		}

		result, err := app.Facade().Post(cmd.Context(), "/tasks", body)
		if err != nil {
			return err
		}

		printResult(result)
		return nil
	},
}

func init() {
	CreateCmd.Flags().StringVar(&taskName, "name", "", "task name")
	CreateCmd.Flags().StringVar(&taskDescription, "description", "", "task description")
	CreateCmd.Flags().StringVar(&taskZoneID, "zone", "", "zone the task belongs to")
}
