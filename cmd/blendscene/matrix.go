package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Faultbox/blendscene/internal/importer"
	"github.com/Faultbox/blendscene/pkg/blend"
)

func init() {
	rootCmd.AddCommand(matrixCmd)
}

var matrixCmd = &cobra.Command{
	Use:   "matrix <dump.json> <address> [field]",
	Short: "Print a matrix field of a record (obmat by default)",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := loadDump(args[0])
		if err != nil {
			return err
		}
		addr, err := parseAddress(args[1])
		if err != nil {
			return err
		}
		field := "obmat"
		if len(args) == 3 {
			field = args[2]
		}

		rec, err := blend.FetchOne(f, addr)
		if err != nil {
			return err
		}
		m, err := importer.ReadNamedMatrix(rec, field, cfg.Import.FixUpAxis)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for row := 0; row < 4; row++ {
			fmt.Fprintf(out, "%10.4f %10.4f %10.4f %10.4f\n", m.At(row, 0), m.At(row, 1), m.At(row, 2), m.At(row, 3))
		}
		return nil
	},
}
