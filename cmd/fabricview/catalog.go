package main

import (
	"github.com/spf13/cobra"

	"fabricview/internal/loader"
)

func catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the configured datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			if path == "" {
				warn.Println("  No config file found, using defaults")
			} else {
				subtle.Printf("  %s\n\n", path)
			}

			if len(cfg.Datasets) == 0 {
				warn.Println("  No datasets configured")
				return nil
			}

			ld := loader.New(loader.Options{BaseDir: cfg.DatasetDir})
			rows := make([][]string, 0, len(cfg.Datasets))
			for _, ds := range cfg.Datasets {
				mark := ""
				if ds.Label == cfg.DefaultDataset || ds.Source == cfg.DefaultDataset {
					mark = "default"
				}
				where := "remote"
				if local, ok := ld.LocalPath(ds.Source); ok {
					where = local
				}
				rows = append(rows, []string{ds.Label, ds.Source, where, mark})
			}
			table([]string{"LABEL", "SOURCE", "PATH", ""}, rows)
			return nil
		},
	}
}
