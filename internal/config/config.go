package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/units"
)

// Config represents the capture and reporting configuration. All fields are
// pointers so a partial JSON file only overrides what it names; the Get*
// methods provide the defaults.
type Config struct {
	// Capture params
	CaptureInterval *string `json:"capture_interval,omitempty"` // duration string like "2s"
	GoodMaxDefects  *int    `json:"good_max_defects,omitempty"`
	FairMaxDefects  *int    `json:"fair_max_defects,omitempty"`
	OperatorID      *string `json:"operator_id,omitempty"`

	// Location params
	LocationMaxAge      *string `json:"location_max_age,omitempty"`      // duration string like "10s"
	LocationReadTimeout *string `json:"location_read_timeout,omitempty"` // duration string like "5s"

	// Upstream services
	ClassifierEndpoint *string  `json:"classifier_endpoint,omitempty"`
	SubmitEndpoints    []string `json:"submit_endpoints,omitempty"`

	// Report params
	ReportRowsPerPage *int    `json:"report_rows_per_page,omitempty"`
	ReportOutputDir   *string `json:"report_output_dir,omitempty"`
	Units             *string `json:"units,omitempty"`    // m, km or mi
	Timezone          *string `json:"timezone,omitempty"` // tz database name
}

// Helper functions to create pointers
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// EmptyConfig returns a Config with all fields set to nil.
func EmptyConfig() *Config {
	return &Config{}
}

// LoadConfig loads a Config from a JSON file. The file is validated to
// ensure it has a .json extension and is under the max file size. Fields
// omitted from the JSON retain their default values, so partial configs
// are safe.
func LoadConfig(path string) (*Config, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.CaptureInterval != nil && *c.CaptureInterval != "" {
		d, err := time.ParseDuration(*c.CaptureInterval)
		if err != nil {
			return fmt.Errorf("invalid capture_interval '%s': %w", *c.CaptureInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("capture_interval must be positive, got %s", d)
		}
	}

	if c.LocationMaxAge != nil && *c.LocationMaxAge != "" {
		if _, err := time.ParseDuration(*c.LocationMaxAge); err != nil {
			return fmt.Errorf("invalid location_max_age '%s': %w", *c.LocationMaxAge, err)
		}
	}

	if c.LocationReadTimeout != nil && *c.LocationReadTimeout != "" {
		if _, err := time.ParseDuration(*c.LocationReadTimeout); err != nil {
			return fmt.Errorf("invalid location_read_timeout '%s': %w", *c.LocationReadTimeout, err)
		}
	}

	if c.GoodMaxDefects != nil && *c.GoodMaxDefects < 0 {
		return fmt.Errorf("good_max_defects must be non-negative, got %d", *c.GoodMaxDefects)
	}
	if c.GoodMaxDefects != nil && c.FairMaxDefects != nil && *c.FairMaxDefects < *c.GoodMaxDefects {
		return fmt.Errorf("fair_max_defects (%d) must be >= good_max_defects (%d)",
			*c.FairMaxDefects, *c.GoodMaxDefects)
	}

	if c.ReportRowsPerPage != nil && *c.ReportRowsPerPage < 1 {
		return fmt.Errorf("report_rows_per_page must be at least 1, got %d", *c.ReportRowsPerPage)
	}

	if c.Units != nil && !units.IsValid(*c.Units) {
		return fmt.Errorf("invalid units '%s' (valid: %s)", *c.Units, units.GetValidUnitsString())
	}

	if c.Timezone != nil && !units.IsTimezoneValid(*c.Timezone) {
		return fmt.Errorf("invalid timezone '%s'", *c.Timezone)
	}

	return nil
}

// GetCaptureInterval parses and returns the CaptureInterval as a time.Duration.
func (c *Config) GetCaptureInterval() time.Duration {
	if c.CaptureInterval == nil || *c.CaptureInterval == "" {
		return 2 * time.Second // default
	}
	d, err := time.ParseDuration(*c.CaptureInterval)
	if err != nil {
		return 2 * time.Second // default on parse error
	}
	return d
}

// GetGoodMaxDefects returns the good_max_defects value or the default.
func (c *Config) GetGoodMaxDefects() int {
	if c.GoodMaxDefects == nil {
		return 2
	}
	return *c.GoodMaxDefects
}

// GetFairMaxDefects returns the fair_max_defects value or the default.
func (c *Config) GetFairMaxDefects() int {
	if c.FairMaxDefects == nil {
		return 5
	}
	return *c.FairMaxDefects
}

// GetOperatorID returns the operator_id value or the default.
func (c *Config) GetOperatorID() string {
	if c.OperatorID == nil {
		return ""
	}
	return *c.OperatorID
}

// GetLocationMaxAge parses and returns the LocationMaxAge as a time.Duration.
func (c *Config) GetLocationMaxAge() time.Duration {
	if c.LocationMaxAge == nil || *c.LocationMaxAge == "" {
		return 10 * time.Second // default
	}
	d, err := time.ParseDuration(*c.LocationMaxAge)
	if err != nil {
		return 10 * time.Second // default on parse error
	}
	return d
}

// GetLocationReadTimeout parses and returns the LocationReadTimeout.
func (c *Config) GetLocationReadTimeout() time.Duration {
	if c.LocationReadTimeout == nil || *c.LocationReadTimeout == "" {
		return time.Second // default
	}
	d, err := time.ParseDuration(*c.LocationReadTimeout)
	if err != nil {
		return time.Second // default on parse error
	}
	return d
}

// GetClassifierEndpoint returns the classifier_endpoint value or the default.
func (c *Config) GetClassifierEndpoint() string {
	if c.ClassifierEndpoint == nil {
		return "http://localhost:5000"
	}
	return *c.ClassifierEndpoint
}

// GetSubmitEndpoints returns the submit endpoint list or the default.
func (c *Config) GetSubmitEndpoints() []string {
	if len(c.SubmitEndpoints) == 0 {
		return []string{"http://localhost:4100"}
	}
	return c.SubmitEndpoints
}

// GetReportRowsPerPage returns the report_rows_per_page value or the default.
func (c *Config) GetReportRowsPerPage() int {
	if c.ReportRowsPerPage == nil {
		return 30
	}
	return *c.ReportRowsPerPage
}

// GetReportOutputDir returns the report_output_dir value or the default.
func (c *Config) GetReportOutputDir() string {
	if c.ReportOutputDir == nil || *c.ReportOutputDir == "" {
		return "reports"
	}
	return *c.ReportOutputDir
}

// GetUnits returns the units value or the default.
func (c *Config) GetUnits() string {
	if c.Units == nil || *c.Units == "" {
		return units.Kilometers
	}
	return *c.Units
}

// GetTimezone returns the timezone value or the default.
func (c *Config) GetTimezone() string {
	if c.Timezone == nil || *c.Timezone == "" {
		return "UTC"
	}
	return *c.Timezone
}
