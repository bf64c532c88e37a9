// cmd/client/cmd/task/task.go
package task

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sitekeeper/cmd/client/cmd/types"
	"sitekeeper/internal/app/client"
)

var TaskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage site tasks",
	Long: `Create and update tasks on the construction site.

Task mutations are offline-capable: without connectivity they are
stored in the outbox and replayed once the server is reachable.`,
}

func appFromContext(cmd *cobra.Command) (*client.App, error) {
	app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
	if !ok || app == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return app, nil
}

// printResult renders either the live response or the queued
// acknowledgement of a mutation.
func printResult(result client.Result) {
	if result.Queued != nil {
		fmt.Println(color.CyanString("Saved offline, will sync automatically"))
		fmt.Printf("  queue id: %s\n", result.Queued.QueueID)
		if result.Queued.PendingID != "" {
			fmt.Printf("  temporary id: %s (usable in follow-up commands)\n", result.Queued.PendingID)
		}
		return
	}

	var pretty map[string]any
	if err := json.Unmarshal(result.Data, &pretty); err == nil {
		if id, ok := pretty["id"]; ok {
			fmt.Printf("Done (id: %v)\n", id)
			return
		}
	}
	fmt.Println("Done")
}
