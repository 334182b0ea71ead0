package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/blendscene/internal/logger"
	"github.com/Faultbox/blendscene/internal/properties"
	"github.com/Faultbox/blendscene/pkg/blend"
)

func init() {
	rootCmd.AddCommand(propsCmd)
}

var propsCmd = &cobra.Command{
	Use:   "props <dump.json> <address>",
	Short: "Print the custom properties of a record as YAML",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := loadDump(args[0])
		if err != nil {
			return err
		}
		addr, err := parseAddress(args[1])
		if err != nil {
			return err
		}
		rec, err := blend.FetchOne(f, addr)
		if err != nil {
			return err
		}

		// Accept either an ID record or an IDProperty record directly.
		if rec.Type() != "IDProperty" {
			ptr, err := blend.PointerField(rec, "id.properties")
			if err != nil {
				return fmt.Errorf("%s has no custom properties: %w", addr, err)
			}
			if ptr.IsNull() {
				fmt.Fprintln(cmd.OutOrStdout(), "{}")
				return nil
			}
			if rec, err = blend.FetchOne(f, ptr.Address()); err != nil {
				return err
			}
		}

		parser := properties.NewParser(f,
			properties.WithLogger(logger.Named("properties")),
			properties.WithMaxDepth(cfg.Import.MaxPropertyDepth),
			properties.WithSkipHandler(func(addr blend.Address, name string, err error) {
				logger.Sugar.Warnf("property %q at %s skipped: %v", name, addr, err)
			}))
		root, err := parser.Parse(rec)
		if err != nil {
			return err
		}
		properties.PostProcess(root)

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(root); err != nil {
			return err
		}
		return enc.Close()
	},
}
