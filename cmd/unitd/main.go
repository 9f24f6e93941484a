// Command unitd runs the HTTP/1.x connection engine and its config
// document, or operates on a config file directly without starting a
// server. See cmd/unitd/serve.go and cmd/unitd/config.go for the
// subcommands.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load(".env")

	root := &cobra.Command{Use: "unitd"}
	root.AddCommand(serveCmd())
	root.AddCommand(configCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
