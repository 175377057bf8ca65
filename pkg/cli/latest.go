package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/wolfi-dev/setup-texlive/pkg/cli/internal/wrapped"
	"github.com/wolfi-dev/setup-texlive/pkg/cli/styles"
	"github.com/wolfi-dev/setup-texlive/pkg/ctan"
	"github.com/wolfi-dev/setup-texlive/pkg/release"
)

func cmdLatest() *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Print what is known about the latest TeX Live releases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var source release.Source
			if !offline {
				source = ctan.New()
			}
			l, err := release.New(source).Latest(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, styles.Bold().Render("TeX Live releases"))
			fmt.Fprintln(w, styles.Faint().Render(wrapped.Rule(w, "─")))
			for _, row := range []struct {
				label string
				info  release.Info
			}{
				{"previous", l.Previous},
				{"current", l.Current},
				{"next", l.Next},
			} {
				date := ""
				if !row.info.Date.IsZero() {
					date = styles.Faint().Render(row.info.Date.Format(time.DateOnly))
				}
				fmt.Fprintf(w, "%-9s %s %s\n", row.label, styles.Accented().Render(row.info.Version.String()), date)
			}

			if offline && !l.Next.Date.IsZero() && time.Now().After(l.Next.Date) {
				fmt.Fprintln(w)
				wrapped.Fprintln(w, styles.Secondary().Render(fmt.Sprintf(
					"TeX Live %s was expected on %s. Run without --offline to check CTAN for it.",
					l.Next.Version, l.Next.Date.Format(time.DateOnly))))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "do not check CTAN for a new release")
	return cmd
}
