// cmd/client/cmd/sync/sync.go
package sync

import (
	"fmt"

	"github.com/spf13/cobra"

	"sitekeeper/cmd/client/cmd/types"
	"sitekeeper/internal/app/client"
)

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Replay pending offline operations now",
	Long: `Manually trigger a drain of the offline outbox. Entries are
replayed strictly in the order they were created; a failing entry
pauses the sync until the next attempt.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("application not initialized")
		}

		if !app.OfflineCapable() {
			return fmt.Errorf("offline storage unavailable")
		}

		if !app.Monitor().Online() {
			return fmt.Errorf("server unreachable, sync postponed")
		}

		result, err := app.Engine().Drain(cmd.Context())
		if err != nil {
			return err
		}
		if result == nil {
			fmt.Println("Sync already in progress")
			return nil
		}

		if result.Applied == 0 && result.Err == "" {
			fmt.Println("Nothing to sync")
		}
		return nil
	},
}
