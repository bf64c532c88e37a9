// cmd/client/cmd/auth/auth.go
package auth

import (
	"github.com/spf13/cobra"
)

var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Sign in to the site API and manage the stored session.`,
}
