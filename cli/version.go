package cli

import (
	"github.com/spf13/cobra"

	"github.com/opencite/litgraph/version"
)

var versionVerbose bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the litgraph version, optionally with the full embedded build info",
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().BoolVar(&versionVerbose, "verbose", false, "include Go version and the full dependency list")
	RootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	if !versionVerbose {
		cmd.Println(version.GetModuleVersion())
		return nil
	}
	return printJSON(version.GetBuildInfo())
}
