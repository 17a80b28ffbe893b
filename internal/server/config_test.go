package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bfinch/debt-optimizer/pkg/constants"
)

func writeServerConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.yaml")} {
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig(%q): %v", path, err)
		}
		if cfg.Address != constants.DefaultServerAddress {
			t.Errorf("address = %q, want %q", cfg.Address, constants.DefaultServerAddress)
		}
		if cfg.UploadSizeBytes() != constants.DefaultMaxUploadSizeBytes {
			t.Errorf("upload size = %d, want %d", cfg.UploadSizeBytes(), constants.DefaultMaxUploadSizeBytes)
		}
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeServerConfig(t, "address: \":9090\"\nmaxUploadSize: 1M\nlogging:\n  level: debug\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Address != ":9090" {
		t.Errorf("address = %q, want :9090", cfg.Address)
	}
	if cfg.UploadSizeBytes() != 1024*1024 {
		t.Errorf("upload size = %d, want 1 MiB", cfg.UploadSizeBytes())
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "address: [\n"},
		{"non-numeric size", "maxUploadSize: lots\n"},
		{"negative size", "maxUploadSize: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeServerConfig(t, tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"", constants.DefaultMaxUploadSizeBytes},
		{"4096", 4096},
		{"16K", 16 * 1024},
		{"16k", 16 * 1024},
		{"2M", 2 * 1024 * 1024},
		{"1G", 1024 * 1024 * 1024},
		{" 8 K ", 8 * 1024},
	}
	for _, tt := range tests {
		got, err := parseSize(tt.in)
		if err != nil {
			t.Errorf("parseSize(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSize(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
