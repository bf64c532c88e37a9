// cmd/client/cmd/zone/zone.go
package zone

import (
	"github.com/spf13/cobra"
)

var ZoneCmd = &cobra.Command{
	Use:   "zone",
	Short: "Manage annotated zones",
}
