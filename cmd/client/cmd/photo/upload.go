// cmd/client/cmd/photo/upload.go
package photo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sitekeeper/cmd/client/cmd/types"
	"sitekeeper/internal/app/client"
	"sitekeeper/internal/app/client/outbox"
)

var (
	photoTaskID  string
	photoFile    string
	photoCaption string
)

var UploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a photo for a task",
	Long: `Upload a photo attached to a task. The task may be one created
offline: pass its temporary id and it is rewritten to the real id
during sync.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("application not initialized")
		}

		if photoTaskID == "" || photoFile == "" {
			return fmt.Errorf("--task and --file are required")
		}

		data, err := os.ReadFile(photoFile)
		if err != nil {
			return fmt.Errorf("failed to read photo: %w", err)
		}

		fields := []outbox.FormField{
			{Key: "taskId", Kind: outbox.FieldText, Value: photoTaskID},
			{Key: "photo", Kind: outbox.FieldFile, FileName: filepath.Base(photoFile), Data: data},
		}
		if photoCaption != "" {
			fields = append(fields, outbox.FormField{Key: "caption", Kind: outbox.FieldText, Value: photoCaption})
		}

		result, err := app.Facade().Upload(cmd.Context(), "/photos", fields)
		if err != nil {
			return err
		}

		if result.Queued != nil {
			fmt.Println(color.CyanString("Saved offline, will sync automatically"))
			fmt.Printf("  queue id: %s\n", result.Queued.QueueID)
			return nil
		}

		fmt.Println("Uploaded")
		return nil
	},
}

func init() {
	UploadCmd.Flags().StringVar(&photoTaskID, "task", "", "task id (real or temporary offline id)")
	UploadCmd.Flags().StringVar(&photoFile, "file", "", "path to the photo file")
	UploadCmd.Flags().StringVar(&photoCaption, "caption", "", "photo caption")
}
