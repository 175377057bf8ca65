package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wolfi-dev/setup-texlive/pkg/cli/styles"
	"github.com/wolfi-dev/setup-texlive/pkg/depends"
)

func cmdDepends() *cobra.Command {
	var namesOnly bool
	cmd := &cobra.Command{
		Use:   "depends FILE...",
		Short: "Print the dependencies declared in DEPENDS.txt files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := depends.ReadFiles(cmd.Context(), args...)
			if err != nil {
				return err
			}

			if namesOnly {
				for _, name := range depends.Names(deps) {
					fmt.Println(name)
				}
				return nil
			}

			for _, d := range deps {
				owner := ""
				if d.Package != "" {
					owner = styles.Faint().Render(" (" + d.Package + ")")
				}
				fmt.Printf("%s %s%s\n", styles.Dependency(d.Type.String()).Render(d.Type.String()), styles.Bold().Render(d.Name), owner)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&namesOnly, "names", false, "print unique package names only")
	return cmd
}
