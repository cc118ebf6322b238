// Command httputils sends HTTP requests with retries and runs a local
// upstream to try them against.
//
//	httputils request --retries 3 https://api.example.com/users/{id} --path id=42
//	httputils serve --addr 127.0.0.1:8080
//	httputils config
//	httputils keyring set --service api.example.com --user alice
//	httputils version
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/httputils/version"
)

// globals holds the persistent flags shared by every command.
type globals struct {
	configFile string
	envFile    string
	verbose    bool
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "httputils",
		Short: "Send HTTP requests with retries and backoff",
		Long: `httputils builds HTTP requests from flags, executes them with an optional
retry policy and prints the response.

Configuration is read from --config (default ./config.yml, ./config/config.yml)
and overridden by environment variables such as HTTPCLIENT_TIMEOUT.`,
		Version:       version.Get().Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.configFile, "config", "", "configuration file")
	root.PersistentFlags().StringVar(&g.envFile, "env", "", ".env file loaded before the environment")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newRequestCommand(g),
		newServeCommand(g),
		newConfigCommand(g),
		newKeyringCommand(),
		newVersionCommand(),
	)
	return root
}
