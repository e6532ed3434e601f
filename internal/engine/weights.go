package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// QualityWeights defines the blend of the quality score's components.
type QualityWeights struct {
	Wilson float64 `json:"wilson"` // Weight for the Wilson lower bound (default: 0.4)
	Bayes  float64 `json:"bayes"`  // Weight for the normalized Bayesian average (default: 0.4)
	Volume float64 `json:"volume"` // Weight for the vote-volume saturation term (default: 0.2)
}

// RankWeights holds the calibrated weight configuration for the final
// rank blend and its quality sub-components.
type RankWeights struct {
	Hot     float64        `json:"hot"`     // Weight for the hot score (default: 0.6)
	Quality float64        `json:"quality"` // Weight for the quality score (default: 0.4)
	Sub     QualityWeights `json:"quality_components"`
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string      `json:"version"` // Config version for future compatibility
	Weights RankWeights `json:"weights"` // Weight configurations
}

// DefaultRankWeights returns the default ranking weight configuration.
//
// Final rank formula: final_rank = (hot * 0.6) + (quality * 0.4)
// Quality formula: quality = (wilson * 0.4) + (bayes/5 * 0.4) + (min(1, votes/10) * 0.2)
//   - Hot dominates so fresh, popular deals surface first
//   - Wilson and Bayesian terms keep small-sample deals honest
//   - The volume term rewards deals that have accumulated a real sample
func DefaultRankWeights() *RankWeights {
	return &RankWeights{
		Hot:     0.6,
		Quality: 0.4,
		Sub: QualityWeights{
			Wilson: 0.4,
			Bayes:  0.4,
			Volume: 0.2,
		},
	}
}

// LoadCalibration loads rank weights from a JSON calibration file.
// If the file doesn't exist or can't be parsed, returns default weights
// with an error so callers degrade gracefully. Partial configurations
// are merged with defaults.
func LoadCalibration(filePath string) (*RankWeights, error) {
	if filePath == "" {
		return DefaultRankWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultRankWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultRankWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultRankWeights()
	merged := MergeCalibration(defaults, &config.Weights)
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration merges override weights with base weights. Only
// non-zero values from the override are applied, allowing partial
// overrides in the calibration file.
func MergeCalibration(base *RankWeights, override *RankWeights) *RankWeights {
	// Guard against nil base to avoid panics; fall back to defaults.
	if base == nil {
		return DefaultRankWeights()
	}

	if override == nil {
		result := *base
		return &result
	}

	result := *base // Copy base

	if override.Hot != 0 {
		result.Hot = override.Hot
	}
	if override.Quality != 0 {
		result.Quality = override.Quality
	}
	if override.Sub.Wilson != 0 {
		result.Sub.Wilson = override.Sub.Wilson
	}
	if override.Sub.Bayes != 0 {
		result.Sub.Bayes = override.Sub.Bayes
	}
	if override.Sub.Volume != 0 {
		result.Sub.Volume = override.Sub.Volume
	}

	return &result
}

// logCalibrationOverrides logs which weights were overridden from defaults.
func logCalibrationOverrides(defaults *RankWeights, loaded *RankWeights) {
	var overrides []string

	if loaded.Hot != defaults.Hot {
		overrides = append(overrides, fmt.Sprintf("hot: %.2f -> %.2f", defaults.Hot, loaded.Hot))
	}
	if loaded.Quality != defaults.Quality {
		overrides = append(overrides, fmt.Sprintf("quality: %.2f -> %.2f", defaults.Quality, loaded.Quality))
	}
	if loaded.Sub.Wilson != defaults.Sub.Wilson {
		overrides = append(overrides, fmt.Sprintf("quality_components.wilson: %.2f -> %.2f",
			defaults.Sub.Wilson, loaded.Sub.Wilson))
	}
	if loaded.Sub.Bayes != defaults.Sub.Bayes {
		overrides = append(overrides, fmt.Sprintf("quality_components.bayes: %.2f -> %.2f",
			defaults.Sub.Bayes, loaded.Sub.Bayes))
	}
	if loaded.Sub.Volume != defaults.Sub.Volume {
		overrides = append(overrides, fmt.Sprintf("quality_components.volume: %.2f -> %.2f",
			defaults.Sub.Volume, loaded.Sub.Volume))
	}

	if len(overrides) > 0 {
		slog.Info("loaded rank calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded rank calibration (using all defaults)")
	}
}
