package services

import (
	"testing"

	"mechaniai-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestExtractMileage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"comma separated", "it has 45,000 miles on it", "45000"},
		{"plain number", "about 9000 km so far", "9000"},
		{"k shorthand", "roughly 45k miles", "45000"},
		{"thousand spelled out", "45 thousand miles", "45000"},
		{"abbreviated unit", "120000 mi on the odometer", "120000"},
		{"no mileage", "the engine is rattling", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractMileage(tt.text))
		})
	}
}

func TestFallbackVehicleExtractionConfidenceGrowsWithFields(t *testing.T) {
	partial := fallbackVehicleExtraction("I drive a Honda")
	full := fallbackVehicleExtraction("I drive a 2018 Honda Civic with 45,000 miles")

	assert.Equal(t, "Honda", partial.Make)
	assert.Empty(t, partial.Model)
	assert.Greater(t, full.Confidence, partial.Confidence)
}

func TestFallbackVehicleExtractionNothingFound(t *testing.T) {
	info := fallbackVehicleExtraction("what a nice day")
	assert.Empty(t, info.Make)
	assert.Zero(t, info.Confidence)
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Santa Fe", titleCase("santa fe"))
	assert.Equal(t, "Cr-V", titleCase("cr-v"))
	assert.Equal(t, "Corolla", titleCase("corolla"))
}

func TestAssessSafetySevereEngineSymptoms(t *testing.T) {
	tests := []struct {
		name    string
		symptom string
		level   string
	}{
		{"knock", "engine knock", models.SafetyLevelHigh},
		{"fire", "fire under the hood", models.SafetyLevelHigh},
		{"overheating", "Engine Overheating on the highway", models.SafetyLevelHigh},
		{"rough idle stays low", "rough idle", models.SafetyLevelLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assessment := assessSafety(&models.SymptomSet{Engine: []string{tt.symptom}})
			assert.Equal(t, tt.level, assessment.Level)
		})
	}
}
