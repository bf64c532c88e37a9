// cmd/client/cmd/task/done.go
package task

import (
	"fmt"

	"github.com/spf13/cobra"
)

var DoneCmd = &cobra.Command{
	Use:   "done <task-id>",
	Short: "Mark a task as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFromContext(cmd)
		if err != nil {
			return err
		}

		body := map[string]any{"status": "done"}
		result, err := app.Facade().Patch(cmd.Context(), fmt.Sprintf("/tasks/%s", args[0]), body)
		if err != nil {
			return err
		}

		printResult(result)
		return nil
	},
}
