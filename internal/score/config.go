package score

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Weights holds the calibratable scoring parameters. The boost multipliers
// preserve the observed production behavior: friend 1.5, interest 1.2, never
// combined; trending topic boost 1.5 inside the rolling window.
type Weights struct {
	FriendBoost         float64 `json:"friend_boost"`          // Multiplier for accepted-friend authors (default: 1.5)
	InterestBoost       float64 `json:"interest_boost"`        // Multiplier for interest-tag overlap (default: 1.2)
	TopicBoost          float64 `json:"topic_boost"`           // Multiplier for trending-topic mentions (default: 1.5)
	TrendingWindowHours int     `json:"trending_window_hours"` // Rolling trending window (default: 24, alternative: 168)
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Weight configurations
}

// DefaultWeights returns the default scoring weight configuration.
func DefaultWeights() *Weights {
	return &Weights{
		FriendBoost:         1.5,
		InterestBoost:       1.2,
		TopicBoost:          1.5,
		TrendingWindowHours: 24,
	}
}

// LoadCalibration loads scoring weights from a JSON calibration file.
// Partial configurations are merged with defaults so a file may override a
// single value. On any error the defaults are returned alongside the error
// for graceful degradation.
func LoadCalibration(filePath string) (*Weights, error) {
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultWeights()
	merged := MergeCalibration(defaults, &config.Weights)
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration merges override weights with base weights. Only non-zero
// values from the override are applied, which allows partial overrides in
// the calibration file.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	if base == nil {
		return DefaultWeights()
	}
	if override == nil {
		result := *base
		return &result
	}

	result := *base

	if override.FriendBoost != 0 {
		result.FriendBoost = override.FriendBoost
	}
	if override.InterestBoost != 0 {
		result.InterestBoost = override.InterestBoost
	}
	if override.TopicBoost != 0 {
		result.TopicBoost = override.TopicBoost
	}
	if override.TrendingWindowHours != 0 {
		result.TrendingWindowHours = override.TrendingWindowHours
	}

	return &result
}

// logCalibrationOverrides logs which weights were overridden from defaults.
func logCalibrationOverrides(defaults *Weights, loaded *Weights) {
	var overrides []string

	if loaded.FriendBoost != defaults.FriendBoost {
		overrides = append(overrides, fmt.Sprintf("friend_boost: %.2f -> %.2f",
			defaults.FriendBoost, loaded.FriendBoost))
	}
	if loaded.InterestBoost != defaults.InterestBoost {
		overrides = append(overrides, fmt.Sprintf("interest_boost: %.2f -> %.2f",
			defaults.InterestBoost, loaded.InterestBoost))
	}
	if loaded.TopicBoost != defaults.TopicBoost {
		overrides = append(overrides, fmt.Sprintf("topic_boost: %.2f -> %.2f",
			defaults.TopicBoost, loaded.TopicBoost))
	}
	if loaded.TrendingWindowHours != defaults.TrendingWindowHours {
		overrides = append(overrides, fmt.Sprintf("trending_window_hours: %d -> %d",
			defaults.TrendingWindowHours, loaded.TrendingWindowHours))
	}

	if len(overrides) > 0 {
		slog.Info("loaded scoring calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded scoring calibration (using all defaults)")
	}
}
