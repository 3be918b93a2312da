package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// Cluster tie-break policies for choosing among retained clusters of
// maximal size.
const (
	TieBreakLast  = "last"
	TieBreakFirst = "first"
)

// TuningConfig represents the root configuration for reconstruction
// parameters. Every field is optional; the Get* accessors supply defaults
// for anything the JSON file leaves out.
type TuningConfig struct {
	// Physical constants
	CmPerNs       *float64 `json:"cm_per_ns,omitempty"`      // group speed of light in the medium
	StandoffCm    *float64 `json:"standoff_cm,omitempty"`    // search volume starts this far in from the sensors
	CoincidenceNs *float64 `json:"coincidence_ns,omitempty"` // perfect-coincidence tolerance
	TimeResNs     *float64 `json:"time_resolution_ns,omitempty"`

	// Isolation limits as fractions of the detector circumference
	PairDistanceFraction *float64 `json:"pair_distance_fraction,omitempty"`
	PairTimeFraction     *float64 `json:"pair_time_fraction,omitempty"`

	// Hit selection
	MinIsolatedHits *int    `json:"min_isolated_hits,omitempty"`
	MinRelated      *int    `json:"min_related,omitempty"`
	MinSelectedHits *int    `json:"min_selected_hits,omitempty"`
	MaxHits         *int    `json:"max_hits,omitempty"`
	ClusterTieBreak *string `json:"cluster_tie_break,omitempty"` // "last" or "first"

	// Four-hit combinations
	MaxComboHits      *int     `json:"max_combo_hits,omitempty"`
	MaxCombinations   *int64   `json:"max_combinations,omitempty"`
	WindowToleranceNs *float64 `json:"window_tolerance_ns,omitempty"`
	MaxWindowSteps    *int     `json:"max_window_steps,omitempty"`

	// Test points
	SideFraction        *float64 `json:"side_fraction,omitempty"`
	CapFraction         *float64 `json:"cap_fraction,omitempty"`
	MinPointSeparation2 *float64 `json:"min_point_separation2,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
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

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.CmPerNs != nil && *c.CmPerNs <= 0 {
		return fmt.Errorf("cm_per_ns must be positive, got %f", *c.CmPerNs)
	}
	if c.StandoffCm != nil && *c.StandoffCm < 0 {
		return fmt.Errorf("standoff_cm must be non-negative, got %f", *c.StandoffCm)
	}
	if c.CoincidenceNs != nil && *c.CoincidenceNs < 0 {
		return fmt.Errorf("coincidence_ns must be non-negative, got %f", *c.CoincidenceNs)
	}
	for name, v := range map[string]*float64{
		"pair_distance_fraction": c.PairDistanceFraction,
		"pair_time_fraction":     c.PairTimeFraction,
		"side_fraction":          c.SideFraction,
		"cap_fraction":           c.CapFraction,
	} {
		if v != nil && (*v <= 0 || *v > 1) {
			return fmt.Errorf("%s must be in (0, 1], got %f", name, *v)
		}
	}
	if c.MinRelated != nil && *c.MinRelated < 2 {
		return fmt.Errorf("min_related must be at least 2, got %d", *c.MinRelated)
	}
	if c.MinSelectedHits != nil && *c.MinSelectedHits < 4 {
		return fmt.Errorf("min_selected_hits must be at least 4, got %d", *c.MinSelectedHits)
	}
	if c.MaxHits != nil && *c.MaxHits < 4 {
		return fmt.Errorf("max_hits must be at least 4, got %d", *c.MaxHits)
	}
	if c.MaxComboHits != nil && *c.MaxComboHits < 4 {
		return fmt.Errorf("max_combo_hits must be at least 4, got %d", *c.MaxComboHits)
	}
	if c.MaxCombinations != nil && (*c.MaxCombinations < 1 || *c.MaxCombinations > math.MaxInt32) {
		return fmt.Errorf("max_combinations must be in [1, %d], got %d", math.MaxInt32, *c.MaxCombinations)
	}
	if c.WindowToleranceNs != nil && *c.WindowToleranceNs <= 0 {
		return fmt.Errorf("window_tolerance_ns must be positive, got %f", *c.WindowToleranceNs)
	}
	if c.MinPointSeparation2 != nil && *c.MinPointSeparation2 < 0 {
		return fmt.Errorf("min_point_separation2 must be non-negative, got %f", *c.MinPointSeparation2)
	}
	if c.ClusterTieBreak != nil {
		switch *c.ClusterTieBreak {
		case TieBreakLast, TieBreakFirst:
		default:
			return fmt.Errorf("cluster_tie_break must be %q or %q, got %q", TieBreakLast, TieBreakFirst, *c.ClusterTieBreak)
		}
	}
	return nil
}

// GetCmPerNs returns the group speed of light in cm/ns or the default.
func (c *TuningConfig) GetCmPerNs() float64 {
	if c.CmPerNs == nil {
		return 21.8
	}
	return *c.CmPerNs
}

// GetStandoffCm returns the standoff_cm value or the default.
func (c *TuningConfig) GetStandoffCm() float64 {
	if c.StandoffCm == nil {
		return 50
	}
	return *c.StandoffCm
}

// GetCoincidenceNs returns the coincidence_ns value or the default.
func (c *TuningConfig) GetCoincidenceNs() float64 {
	if c.CoincidenceNs == nil {
		return 1.0
	}
	return *c.CoincidenceNs
}

// GetTimeResNs returns the time_resolution_ns value or the default.
func (c *TuningConfig) GetTimeResNs() float64 {
	if c.TimeResNs == nil {
		return 1.0
	}
	return *c.TimeResNs
}

// GetPairDistanceFraction returns the pair_distance_fraction value or the default.
func (c *TuningConfig) GetPairDistanceFraction() float64 {
	if c.PairDistanceFraction == nil {
		return 0.1785
	}
	return *c.PairDistanceFraction
}

// GetPairTimeFraction returns the pair_time_fraction value or the default.
func (c *TuningConfig) GetPairTimeFraction() float64 {
	if c.PairTimeFraction == nil {
		return 0.1079
	}
	return *c.PairTimeFraction
}

// GetMinIsolatedHits returns the min_isolated_hits value or the default.
func (c *TuningConfig) GetMinIsolatedHits() int {
	if c.MinIsolatedHits == nil {
		return 3
	}
	return *c.MinIsolatedHits
}

// GetMinRelated returns the min_related value or the default.
func (c *TuningConfig) GetMinRelated() int {
	if c.MinRelated == nil {
		return 3
	}
	return *c.MinRelated
}

// GetMinSelectedHits returns the min_selected_hits value or the default.
func (c *TuningConfig) GetMinSelectedHits() int {
	if c.MinSelectedHits == nil {
		return 4
	}
	return *c.MinSelectedHits
}

// GetMaxHits returns the max_hits value or the default.
func (c *TuningConfig) GetMaxHits() int {
	if c.MaxHits == nil {
		return 2000
	}
	return *c.MaxHits
}

// GetClusterTieBreak returns the cluster_tie_break value or the default.
func (c *TuningConfig) GetClusterTieBreak() string {
	if c.ClusterTieBreak == nil || *c.ClusterTieBreak == "" {
		return TieBreakLast
	}
	return *c.ClusterTieBreak
}

// GetMaxComboHits returns the max_combo_hits value or the default.
func (c *TuningConfig) GetMaxComboHits() int {
	if c.MaxComboHits == nil {
		return 15
	}
	return *c.MaxComboHits
}

// GetMaxCombinations returns the max_combinations value or the default.
func (c *TuningConfig) GetMaxCombinations() int64 {
	if c.MaxCombinations == nil {
		return math.MaxInt32
	}
	return *c.MaxCombinations
}

// GetWindowToleranceNs returns the window_tolerance_ns value or the default.
func (c *TuningConfig) GetWindowToleranceNs() float64 {
	if c.WindowToleranceNs == nil {
		return 0.1
	}
	return *c.WindowToleranceNs
}

// GetMaxWindowSteps returns the max_window_steps value or the default.
func (c *TuningConfig) GetMaxWindowSteps() int {
	if c.MaxWindowSteps == nil || *c.MaxWindowSteps <= 0 {
		return 100
	}
	return *c.MaxWindowSteps
}

// GetSideFraction returns the side_fraction value or the default.
func (c *TuningConfig) GetSideFraction() float64 {
	if c.SideFraction == nil {
		return 0.989
	}
	return *c.SideFraction
}

// GetCapFraction returns the cap_fraction value or the default.
func (c *TuningConfig) GetCapFraction() float64 {
	if c.CapFraction == nil {
		return 0.9882
	}
	return *c.CapFraction
}

// GetMinPointSeparation2 returns the min_point_separation2 value or the default.
func (c *TuningConfig) GetMinPointSeparation2() float64 {
	if c.MinPointSeparation2 == nil {
		return 900
	}
	return *c.MinPointSeparation2
}
