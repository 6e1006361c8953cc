package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"fabricview/internal/devices"
)

func devicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Manage the SQLite device catalogue",
	}
	cmd.AddCommand(devicesImportCmd(), devicesStatsCmd())
	return cmd
}

func devicesImportCmd() *cobra.Command {
	var builtin bool

	cmd := &cobra.Command{
		Use:   "import [pci.ids]",
		Short: "Replace the catalogue with a pci.ids file",
		Long: "Replace the catalogue configured under devices.database with the\n" +
			"contents of a pci.ids file merged over the built-in table. PCI vendor\n" +
			"ids are also stored under their InfiniBand vendor ids (0x15b3 as 0x2c9).",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !builtin {
				return errors.New("a pci.ids file is required unless --builtin is set")
			}

			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openDeviceStore(cfg)
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("devices.database is not configured")
			}
			defer store.Close()

			table := devices.Builtin()
			source := "builtin"
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()

				parsed, err := devices.ParsePCIIDs(f)
				if err != nil {
					return err
				}
				parsed.AliasFabricVendors()
				table.Merge(parsed)
				source = filepath.Base(args[0])
			}

			stats, err := store.ImportTable(cmd.Context(), table, source)
			if err != nil {
				return err
			}
			fmt.Printf("  %s Imported %s vendors and %s devices from %s\n",
				good.Sprint("✓"), humanize.Comma(int64(stats.Vendors)), humanize.Comma(int64(stats.Devices)), source)
			return nil
		},
	}

	cmd.Flags().BoolVar(&builtin, "builtin", false, "import only the built-in table")
	return cmd
}

func devicesStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show what the catalogue holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openDeviceStore(cfg)
			if err != nil {
				return err
			}
			if store == nil {
				subtle.Println("  Using the built-in device table")
				return nil
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			source, at, ok, err := store.ImportedFrom(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("  %s  %s\n", brand.Sprint("catalogue"), cfg.Devices.Database)
			fmt.Printf("  %s  %s\n", brand.Sprint("vendors  "), humanize.Comma(int64(stats.Vendors)))
			fmt.Printf("  %s  %s\n", brand.Sprint("devices  "), humanize.Comma(int64(stats.Devices)))
			if ok {
				fmt.Printf("  %s  %s %s\n", brand.Sprint("imported "), source, subtle.Sprint(humanize.Time(at)))
			} else {
				warn.Println("  Never imported")
			}
			return nil
		},
	}
}
