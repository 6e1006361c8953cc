package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"fabricview/internal/config"
	"fabricview/internal/devices"
	"fabricview/internal/repository"
	"fabricview/internal/repository/sqlite"
)

var (
	brand  = color.New(color.FgHiCyan, color.Bold)
	subtle = color.New(color.FgHiBlack)
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
	warn   = color.New(color.FgYellow)
)

// table prints aligned columns with a dim header
func table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	line := func(cells []string) string {
		var b strings.Builder
		b.WriteString("  ")
		for i, cell := range cells {
			if i < len(widths) {
				fmt.Fprintf(&b, "%-*s  ", widths[i], cell)
			}
		}
		return strings.TrimRight(b.String(), " ")
	}

	subtle.Println(line(headers))
	seps := make([]string, len(headers))
	for i := range headers {
		seps[i] = strings.Repeat("─", widths[i])
	}
	subtle.Println(line(seps))
	for _, row := range rows {
		fmt.Println(line(row))
	}
}

// loadConfig loads the dotenv file and then the config
func loadConfig() (*config.Config, string, error) {
	if err := config.LoadEnv(envPath); err != nil {
		return nil, "", err
	}

	var (
		cfg  *config.Config
		path string
		err  error
	)
	if configPath != "" {
		cfg, path, err = config.LoadFromPath(configPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, path, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, path, nil
}

// openDeviceStore opens the configured SQLite catalogue, or returns nil
// when the built-in table is in use
func openDeviceStore(cfg *config.Config) (repository.DeviceRepository, error) {
	if cfg.Devices.Database == "" {
		return nil, nil
	}
	repo, err := sqlite.New(cfg.Devices.Database)
	if err != nil {
		return nil, fmt.Errorf("open device catalogue: %w", err)
	}
	return repo, nil
}

// deviceLookup returns the lookup the viewer resolves names with
func deviceLookup(cfg *config.Config, store repository.DeviceRepository) devices.Lookuper {
	if store == nil {
		return devices.Builtin()
	}
	return devices.NewStoreLookup(store, cfg.Devices.LookupTimeout.Duration())
}
