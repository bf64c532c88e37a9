// cmd/client/cmd/queue/queue.go
package queue

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sitekeeper/cmd/client/cmd/types"
	"sitekeeper/internal/app/client"
)

var QueueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect the offline outbox",
}

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending offline operations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("application not initialized")
		}

		if !app.OfflineCapable() {
			return fmt.Errorf("offline storage unavailable")
		}

		entries, err := app.Store().ListAll()
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("Outbox is empty")
			return nil
		}

		for _, entry := range entries {
			created := time.UnixMilli(entry.CreatedAt).Format("2006-01-02 15:04:05")
			fmt.Printf("%-28s %-6s %-24s created %s\n", entry.ID, entry.Method, entry.Path, created)
			if entry.RetryCount > 0 {
				fmt.Printf("  %s\n", color.YellowString("retries: %d, last error: %s", entry.RetryCount, entry.LastError))
			}
		}
		return nil
	},
}
