package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wolfi-dev/setup-texlive/pkg/mirror"
	"github.com/wolfi-dev/setup-texlive/pkg/tlnet"
)

func cmdMirror() *cobra.Command {
	var (
		master   bool
		denylist []string
	)
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Resolve a CTAN mirror and print its tlnet repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := mirror.New(mirror.WithDenylist(denylist...))
			repo, err := tlnet.CTAN(cmd.Context(), r, master)
			if err != nil {
				return err
			}
			fmt.Println(hyperlink(repo.String(), repo.String()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&master, "master", false, "use the CTAN master mirror instead of the redirector")
	cmd.Flags().StringSliceVar(&denylist, "denylist", mirror.DefaultDenylist, "hostname fragments of mirrors to avoid")
	return cmd
}
