package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kbukum/httputils/version"
)

func newVersionCommand() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printVersion(cmd.OutOrStdout(), version.Get(), short)
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print only the version")
	return cmd
}

func printVersion(out io.Writer, info version.Info, short bool) error {
	if short {
		_, err := fmt.Fprintln(out, info.Short())
		return err
	}
	_, err := fmt.Fprintf(out, "%s %s\ncommit:  %s\nbuilt:   %s\ngo:      %s\nrelease: %t\n",
		version.Product, info.Version, orNone(info.GitCommit), orNone(info.BuildTime), orNone(info.GoVersion), info.IsRelease)
	return err
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
