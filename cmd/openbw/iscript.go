package main

import (
	"github.com/spf13/cobra"

	"github.com/drevilslab/openbw/internal/iscript"
)

var iscriptCmd = &cobra.Command{
	Use:   "iscript",
	Short: "Inspect iscript programs",
}

var iscriptDumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Disassemble an iscript .bin or .yaml",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prog, err := loadProgram(args[0])
		if err != nil {
			return err
		}
		return iscript.Disassemble(prog, cmd.OutOrStdout())
	},
}

func init() {
	iscriptCmd.AddCommand(iscriptDumpCmd)
}
