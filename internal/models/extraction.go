package models

import "time"

// Safety levels, in strict precedence order.
const (
	SafetyLevelCritical = "critical"
	SafetyLevelHigh     = "high"
	SafetyLevelLow      = "low"
)

// Maintenance schedule statuses.
const (
	ScheduleStatusOverdue = "overdue"
	ScheduleStatusCurrent = "current"
	ScheduleStatusDueSoon = "due_soon"
)

// VehicleInfo holds structured vehicle identity extracted from a
// conversation. Fields that could not be determined are empty and are
// omitted from JSON output; they are never emitted as empty strings.
type VehicleInfo struct {
	Make         string  `json:"make,omitempty"`
	Model        string  `json:"model,omitempty"`
	Year         string  `json:"year,omitempty"`
	Mileage      string  `json:"mileage,omitempty"`
	VehicleType  string  `json:"vehicle_type,omitempty"`
	Transmission string  `json:"transmission,omitempty"`
	Engine       string  `json:"engine,omitempty"`
	Color        string  `json:"color,omitempty"`
	Confidence   float64 `json:"confidence,omitempty"`
}

// SymptomSet categorizes customer-reported symptoms by vehicle subsystem.
// Empty subsystem lists are dropped rather than serialized as [].
type SymptomSet struct {
	Engine             []string `json:"engine_symptoms,omitempty"`
	Brake              []string `json:"brake_symptoms,omitempty"`
	Steering           []string `json:"steering_symptoms,omitempty"`
	Transmission       []string `json:"transmission_symptoms,omitempty"`
	Suspension         []string `json:"suspension_symptoms,omitempty"`
	Electrical         []string `json:"electrical_symptoms,omitempty"`
	Cooling            []string `json:"cooling_symptoms,omitempty"`
	Exhaust            []string `json:"exhaust_symptoms,omitempty"`
	Fuel               []string `json:"fuel_symptoms,omitempty"`
	Other              []string `json:"other_symptoms,omitempty"`
	SeverityIndicators []string `json:"severity_indicators,omitempty"`
	Confidence         float64  `json:"confidence,omitempty"`
}

// IsEmpty reports whether no symptoms were found in any subsystem.
func (s *SymptomSet) IsEmpty() bool {
	return len(s.Engine) == 0 && len(s.Brake) == 0 && len(s.Steering) == 0 &&
		len(s.Transmission) == 0 && len(s.Suspension) == 0 && len(s.Electrical) == 0 &&
		len(s.Cooling) == 0 && len(s.Exhaust) == 0 && len(s.Fuel) == 0 && len(s.Other) == 0
}

// TechnicalInfo holds deterministically extracted diagnostic data:
// OBD-II trouble codes, numeric measurements with units, and matches
// against the fixed technical-term lexicon.
type TechnicalInfo struct {
	DiagnosticCodes []string  `json:"diagnostic_codes"`
	Measurements    []string  `json:"measurements"`
	TechnicalTerms  []string  `json:"technical_terms"`
	ExtractedAt     time.Time `json:"extracted_at"`
}

// MaintenanceHistory holds maintenance events and per-category schedule
// status derived from conversation history.
type MaintenanceHistory struct {
	Events            []string          `json:"maintenance_events"`
	ScheduleStatus    map[string]string `json:"maintenance_schedule_status"`
	QualityIndicators []string          `json:"maintenance_quality_indicators"`
}

// RelatedComponents maps reported symptoms to the components most likely
// involved, via a fixed subsystem lookup table.
type RelatedComponents struct {
	PrimarySystems  []string  `json:"primary_systems"`
	Components      []string  `json:"related_components"`
	PotentialCauses []string  `json:"potential_causes"`
	AnalyzedAt      time.Time `json:"analysis_timestamp"`
}

// SafetyAssessment holds the safety level derived from a SymptomSet.
// The level follows a strict precedence order, not a weighted score.
type SafetyAssessment struct {
	Level           string   `json:"safety_level"`
	UrgentIssues    []string `json:"urgent_issues"`
	Recommendations []string `json:"safety_recommendations"`
}

// QuestionPredictions holds heuristic predictions for the user's likely
// next questions and the diagnostics worth suggesting.
type QuestionPredictions struct {
	LikelyQuestions      []string           `json:"likely_questions"`
	SuggestedDiagnostics []string           `json:"suggested_diagnostics"`
	ConfidenceScores     map[string]float64 `json:"confidence_scores"`
}

// MaintenancePredictions holds heuristic predictions of upcoming and
// overdue maintenance items.
type MaintenancePredictions struct {
	Upcoming       []string          `json:"upcoming_maintenance"`
	OverdueItems   []string          `json:"overdue_items"`
	PriorityLevels map[string]string `json:"priority_levels"`
}

// ComprehensiveContext batches all extraction results for a conversation.
type ComprehensiveContext struct {
	Vehicle     VehicleInfo       `json:"vehicle_information"`
	Symptoms    SymptomSet        `json:"symptoms_and_problems"`
	Technical   TechnicalInfo     `json:"diagnostic_technical_info"`
	Components  RelatedComponents `json:"related_components"`
	Safety      SafetyAssessment  `json:"safety_analysis"`
	ExtractedAt time.Time         `json:"extraction_timestamp"`
}
