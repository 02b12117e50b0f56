package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := EmptyConfig()

	if got := cfg.GetCaptureInterval(); got != 2*time.Second {
		t.Errorf("GetCaptureInterval() = %v, want 2s", got)
	}
	if got := cfg.GetGoodMaxDefects(); got != 2 {
		t.Errorf("GetGoodMaxDefects() = %d, want 2", got)
	}
	if got := cfg.GetFairMaxDefects(); got != 5 {
		t.Errorf("GetFairMaxDefects() = %d, want 5", got)
	}
	if got := cfg.GetLocationMaxAge(); got != 10*time.Second {
		t.Errorf("GetLocationMaxAge() = %v, want 10s", got)
	}
	if got := cfg.GetReportRowsPerPage(); got != 30 {
		t.Errorf("GetReportRowsPerPage() = %d, want 30", got)
	}
	if got := cfg.GetUnits(); got != "km" {
		t.Errorf("GetUnits() = %q, want km", got)
	}
	if got := cfg.GetTimezone(); got != "UTC" {
		t.Errorf("GetTimezone() = %q, want UTC", got)
	}
	if got := cfg.GetReportOutputDir(); got != "reports" {
		t.Errorf("GetReportOutputDir() = %q, want reports", got)
	}
	if got := cfg.GetSubmitEndpoints(); len(got) != 1 {
		t.Errorf("GetSubmitEndpoints() = %v, want one default endpoint", got)
	}
}

func TestLoadPartialConfig(t *testing.T) {
	path := writeConfigFile(t, `{
		"capture_interval": "5s",
		"units": "mi",
		"submit_endpoints": ["http://primary:4100", "http://backup:4100"]
	}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if got := cfg.GetCaptureInterval(); got != 5*time.Second {
		t.Errorf("GetCaptureInterval() = %v, want 5s", got)
	}
	if got := cfg.GetUnits(); got != "mi" {
		t.Errorf("GetUnits() = %q, want mi", got)
	}
	if got := cfg.GetSubmitEndpoints(); len(got) != 2 || got[0] != "http://primary:4100" {
		t.Errorf("GetSubmitEndpoints() = %v", got)
	}

	// Omitted fields keep their defaults.
	if got := cfg.GetGoodMaxDefects(); got != 2 {
		t.Errorf("GetGoodMaxDefects() = %d, want default 2", got)
	}
}

func TestLoadConfigRejectsNonJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("units: km"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), ".json") {
		t.Errorf("expected .json extension error, got %v", err)
	}
}

func TestLoadConfigRejectsOversize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.json")
	big := make([]byte, 2*1024*1024)
	if err := os.WriteFile(path, big, 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty is valid", Config{}, false},
		{"bad interval", Config{CaptureInterval: ptrString("sideways")}, true},
		{"zero interval", Config{CaptureInterval: ptrString("0s")}, true},
		{"bad max age", Config{LocationMaxAge: ptrString("soon")}, true},
		{"negative good threshold", Config{GoodMaxDefects: ptrInt(-1)}, true},
		{"fair below good", Config{GoodMaxDefects: ptrInt(4), FairMaxDefects: ptrInt(2)}, true},
		{"zero rows per page", Config{ReportRowsPerPage: ptrInt(0)}, true},
		{"bad units", Config{Units: ptrString("furlongs")}, true},
		{"bad timezone", Config{Timezone: ptrString("Mars/Olympus_Mons")}, true},
		{"valid overrides", Config{
			CaptureInterval: ptrString("1s"),
			GoodMaxDefects:  ptrInt(1),
			FairMaxDefects:  ptrInt(3),
			Units:           ptrString("mi"),
			Timezone:        ptrString("Asia/Kolkata"),
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
