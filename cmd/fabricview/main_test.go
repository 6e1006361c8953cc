package main

import (
	"errors"
	"reflect"
	"testing"

	"fabricview/internal/classify"
	"fabricview/internal/config"
	"fabricview/internal/domain"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"0x2c9", 0x2c9, false},
		{"2C9", 0x2c9, false},
		{"0X1003", 0x1003, false},
		{"", 0, true},
		{"0xzz", 0, true},
		{"0x100000000", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseHex(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseHex(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseHex(%q) = %#x, want %#x", tt.in, got, tt.want)
			}
		})
	}
}

func TestReport(t *testing.T) {
	g := domain.NewGraph()
	g.AddNode(*domain.NewNode("sw1", domain.NodeTypeSwitch, "spine"))

	if err := report([]validation{{source: "ok.json", graph: g}}); err != nil {
		t.Errorf("report() with no failures = %v", err)
	}

	err := report([]validation{
		{source: "ok.json", graph: g},
		{source: "bad.json", err: errors.New("boom")},
	})
	if err == nil || err.Error() != "1 of 2 datasets failed validation" {
		t.Errorf("report() = %v, want one failure", err)
	}
}

func TestRootCommands(t *testing.T) {
	want := map[string]bool{"serve": false, "validate": false, "catalog": false, "lookup": false, "devices": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing %s command", name)
		}
	}
}

func TestShippedConfigUsesDefaultRules(t *testing.T) {
	cfg, _, err := config.LoadFromPath("../../fabricview.yaml")
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if !reflect.DeepEqual(cfg.Icons.Rules, classify.DefaultRules()) {
		t.Errorf("shipped icon rules = %+v, want %+v", cfg.Icons.Rules, classify.DefaultRules())
	}
}
