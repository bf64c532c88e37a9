// cmd/client/cmd/zone/create.go
package zone

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sitekeeper/cmd/client/cmd/types"
	"sitekeeper/internal/app/client"
)

var (
	zoneName   string
	zoneParent string
)

var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an annotated zone",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("application not initialized")
		}

		if zoneName == "" {
			return fmt.Errorf("--name is required")
		}

		body := map[string]any{"name": zoneName}
		if zoneParent != "" {
			body["parentId"] = zoneParent
		}

		result, err := app.Facade().Post(cmd.Context(), "/zones", body)
		if err != nil {
			return err
		}

		if result.Queued != nil {
			fmt.Println(color.CyanString("Saved offline, will sync automatically"))
			fmt.Printf("  temporary id: %s\n", result.Queued.PendingID)
			return nil
		}

		fmt.Println("Created")
		return nil
	},
}

func init() {
	CreateCmd.Flags().StringVar(&zoneName, "name", "", "zone name")
	CreateCmd.Flags().StringVar(&zoneParent, "parent", "", "parent zone id (real or temporary offline id)")
}
