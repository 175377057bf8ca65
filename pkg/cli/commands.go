package cli

import (
	"github.com/spf13/cobra"
	"sigs.k8s.io/release-utils/version"
)

func New() *cobra.Command {
	var verbosity int
	cmd := &cobra.Command{
		Use:               "setup-texlive",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Install and cache TeX Live in CI",
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cmd.SetContext(withLogger(cmd.Context(), verbosity))
		},
	}
	cmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "log verbosity, repeat for more")

	cmd.AddCommand(
		cmdSetup(),
		cmdList(),
		cmdDepends(),
		cmdMirror(),
		cmdLatest(),
		version.Version(),
	)

	return cmd
}
