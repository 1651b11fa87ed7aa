package main

import (
	"github.com/spf13/cobra"

	"github.com/pagemorph/pagemorph/pkg/logging"
)

var (
	verbosity int
	quiet     bool
)

var rootCmd = &cobra.Command{
	Use:   "pagemorph",
	Short: "Pagemorph - live text substitution for documents",
	Long: `Pagemorph rewrites text in documents according to user-defined replacement
rules: each rule maps an original text to a replacement, optionally
case-sensitive. Matching is literal (no regex metacharacters), respects word
boundaries, and gives longer patterns precedence over shorter ones.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			logging.Setup(-1, cmd.ErrOrStderr())
			return
		}
		logging.Setup(verbosity, cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")

	rootCmd.AddCommand(rewriteCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
