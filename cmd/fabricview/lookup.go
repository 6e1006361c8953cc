package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <vendor-id> <device-id>",
		Short: "Resolve a PCI vendor/device pair to a name",
		Long:  "Resolve a PCI vendor/device pair (hex, with or without 0x) using the\nconfigured device catalogue.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			vendorID, err := parseHex(args[0])
			if err != nil {
				return fmt.Errorf("vendor id: %w", err)
			}
			deviceID, err := parseHex(args[1])
			if err != nil {
				return fmt.Errorf("device id: %w", err)
			}

			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openDeviceStore(cfg)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			name := deviceLookup(cfg, store).Lookup(vendorID, deviceID)
			fmt.Printf("  %s  %s\n", subtle.Sprintf("%#x:%#x", vendorID, deviceID), brand.Sprint(name))
			return nil
		},
	}
}

func parseHex(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
