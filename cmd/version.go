package cmd

import (
	"fmt"

	"files2xml/pkg/version"

	"github.com/spf13/cobra"
)

// newVersionCmd prints build information. --short prints the version number only.
func newVersionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display the version of files2xml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			short, err := cmd.Flags().GetBool("short")
			if err != nil {
				return fmt.Errorf("error reading flags: %w", err)
			}

			v := version.Get()
			if short {
				_, err = fmt.Fprintln(app.Stdout, v.Version)
			} else {
				_, err = fmt.Fprintln(app.Stdout, v.String())
			}
			return err
		},
	}
	cmd.Flags().BoolP("short", "s", false, "Print the version number only")
	return cmd
}
