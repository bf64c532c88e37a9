// cmd/client/cmd/init.go
package cmd

import (
	"sitekeeper/cmd/client/cmd/auth"
	"sitekeeper/cmd/client/cmd/photo"
	"sitekeeper/cmd/client/cmd/queue"
	"sitekeeper/cmd/client/cmd/sync"
	"sitekeeper/cmd/client/cmd/task"
	"sitekeeper/cmd/client/cmd/zone"
)

func init() {
	rootCmd.AddCommand(auth.AuthCmd)
	auth.AuthCmd.AddCommand(auth.LoginCmd)
	auth.AuthCmd.AddCommand(auth.LogoutCmd)

	rootCmd.AddCommand(task.TaskCmd)
	task.TaskCmd.AddCommand(task.CreateCmd)
	task.TaskCmd.AddCommand(task.DoneCmd)
	task.TaskCmd.AddCommand(task.ListCmd)

	rootCmd.AddCommand(photo.PhotoCmd)
	photo.PhotoCmd.AddCommand(photo.UploadCmd)

	rootCmd.AddCommand(zone.ZoneCmd)
	zone.ZoneCmd.AddCommand(zone.CreateCmd)

	rootCmd.AddCommand(queue.QueueCmd)
	queue.QueueCmd.AddCommand(queue.ListCmd)

	rootCmd.AddCommand(sync.SyncCmd)
	rootCmd.AddCommand(statusCmd)
}
