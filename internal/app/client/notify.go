package client

import (
	"fmt"

	"github.com/fatih/color"
)

// ConsoleNotifier prints drain-cycle outcomes to the terminal. It is
// the CLI's stand-in for the toast notifications of the web client.
type ConsoleNotifier struct{}

func (ConsoleNotifier) Success(msg string) {
	fmt.Println(color.GreenString("✓ %s", msg))
}

func (ConsoleNotifier) Error(msg string) {
	fmt.Println(color.RedString("✗ %s", msg))
}

func (ConsoleNotifier) Info(msg string) {
	fmt.Println(color.CyanString("• %s", msg))
}
