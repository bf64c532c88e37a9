package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sitekeeper/cmd/client/cmd/types"
	"sitekeeper/internal/app/client"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connectivity and outbox state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("application not initialized")
		}

		if app.Monitor().Online() {
			fmt.Println("Network:", color.GreenString("online"))
		} else {
			fmt.Println("Network:", color.RedString("offline"))
		}

		if !app.OfflineCapable() {
			fmt.Println("Outbox:  disabled (local storage unavailable)")
			return nil
		}

		engine := app.Engine()
		fmt.Printf("Pending: %d\n", engine.PendingCount())
		fmt.Printf("Syncing: %v\n", engine.IsSyncing())
		if lastErr := engine.LastSyncError(); lastErr != "" {
			fmt.Println("Last sync error:", color.YellowString(lastErr))
		}

		return nil
	},
}
