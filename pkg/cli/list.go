package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wolfi-dev/setup-texlive/pkg/cli/styles"
	"github.com/wolfi-dev/setup-texlive/pkg/tlpdb"
)

func cmdList() *cobra.Command {
	p := &listParams{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the packages of a TeX Live installation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pkgs, err := tlpdb.Load(cmd.Context(), p.texdir)
			if err != nil {
				return fmt.Errorf("unable to list packages: %w", err)
			}

			if p.json {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(pkgs)
			}

			for _, pkg := range pkgs {
				line := pkg.Name + " " + styles.Faint().Render("r"+pkg.Revision)
				if pkg.Version != "" {
					line += " " + styles.Secondary().Render(pkg.Version)
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	p.addFlagsTo(cmd)
	return cmd
}

type listParams struct {
	texdir string
	json   bool
}

func (p *listParams) addFlagsTo(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.texdir, "texdir", "", "TEXDIR of the installation")
	cmd.Flags().BoolVar(&p.json, "json", false, "print packages as JSON")
	_ = cmd.MarkFlagRequired("texdir")
}
