// cmd/client/cmd/photo/photo.go
package photo

import (
	"github.com/spf13/cobra"
)

var PhotoCmd = &cobra.Command{
	Use:   "photo",
	Short: "Manage site photos",
	Long: `Upload photos documenting site progress. Uploads are
offline-capable: the raw file bytes are queued together with the
request and replayed once connectivity returns.`,
}
