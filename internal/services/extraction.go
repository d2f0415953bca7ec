package services

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"mechaniai-backend/internal/models"
)

// Pattern-based extraction used when the model is unavailable or
// returns unusable output. Everything in this file is deterministic
// and operates on the raw conversation transcript.

var (
	// OBD-II diagnostic trouble codes: P0301, B1342, C0561, U0100.
	diagnosticCodeRegex = regexp.MustCompile(`\b[PBCU]\d{4}\b`)

	// Model years 1950-2039.
	yearRegex = regexp.MustCompile(`\b(19[5-9][0-9]|20[0-3][0-9])\b`)

	mileagePlainRegex    = regexp.MustCompile(`(?i)\b(\d{1,3}(?:,\d{3})+|\d+)\s*(?:miles|mi\b|km\b)`)
	mileageShortKRegex   = regexp.MustCompile(`(?i)\b(\d+)k\s*(?:miles|mi\b|km\b)?`)
	mileageThousandRegex = regexp.MustCompile(`(?i)\b(\d+)\s*thousand\s*(?:miles|km)?`)
)

// vehicleMakeModels pairs each make with the models recognized after it.
var vehicleMakeModels = map[string][]string{
	"toyota":    {"corolla", "camry", "prius", "rav4", "highlander", "land cruiser", "hilux", "yaris"},
	"honda":     {"civic", "accord", "cr-v", "crv", "pilot", "fit", "odyssey"},
	"bmw":       {"x5", "x3", "320i", "328i", "330i", "m3", "m5", "530i"},
	"mercedes":  {"c-class", "e-class", "s-class", "glc", "gle", "c300", "e350"},
	"audi":      {"a3", "a4", "a6", "q5", "q7", "s4"},
	"ford":      {"focus", "fusion", "f-150", "f150", "escape", "explorer", "mustang"},
	"chevrolet": {"malibu", "cruze", "silverado", "equinox", "tahoe", "camaro"},
	"nissan":    {"altima", "sentra", "rogue", "pathfinder", "qashqai", "x-trail"},
	"hyundai":   {"elantra", "sonata", "tucson", "santa fe", "accent"},
	"kia":       {"optima", "sorento", "sportage", "rio", "forte"},
}

// displayMakes maps lowercase make names to their canonical spelling.
var displayMakes = map[string]string{
	"toyota": "Toyota", "honda": "Honda", "bmw": "BMW", "mercedes": "Mercedes",
	"audi": "Audi", "ford": "Ford", "chevrolet": "Chevrolet", "nissan": "Nissan",
	"hyundai": "Hyundai", "kia": "Kia",
}

// fallbackVehicleExtraction finds make, model, year and mileage with
// pattern matching. Confidence grows with each field identified.
func fallbackVehicleExtraction(transcript string) *models.VehicleInfo {
	lower := strings.ToLower(transcript)
	info := &models.VehicleInfo{}
	found := 0

	for mk, modelList := range vehicleMakeModels {
		if !strings.Contains(lower, mk) {
			continue
		}
		info.Make = displayMakes[mk]
		found++
		for _, model := range modelList {
			if strings.Contains(lower, model) {
				info.Model = titleCase(model)
				found++
				break
			}
		}
		break
	}

	if m := yearRegex.FindString(transcript); m != "" {
		info.Year = m
		found++
	}

	if mileage := extractMileage(transcript); mileage != "" {
		info.Mileage = mileage
		found++
	}

	if found > 0 {
		info.Confidence = 0.4 + 0.1*float64(found)
		if info.Confidence > 0.8 {
			info.Confidence = 0.8
		}
	}

	return info
}

// titleCase uppercases the first letter of each space- or
// hyphen-separated word, for display-friendly model names.
func titleCase(s string) string {
	out := []rune(s)
	upperNext := true
	for i, r := range out {
		if upperNext && r >= 'a' && r <= 'z' {
			out[i] = r - 'a' + 'A'
		}
		upperNext = r == ' ' || r == '-'
	}
	return string(out)
}

func extractMileage(text string) string {
	if m := mileagePlainRegex.FindStringSubmatch(text); m != nil {
		return strings.ReplaceAll(m[1], ",", "")
	}
	if m := mileageShortKRegex.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return strconv.Itoa(n * 1000)
		}
	}
	if m := mileageThousandRegex.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return strconv.Itoa(n * 1000)
		}
	}
	return ""
}

// symptomPatterns maps each subsystem to phrases that signal trouble
// in it.
var symptomPatterns = map[string][]string{
	"engine": {
		"engine light", "check engine", "misfire", "misfiring", "stalling",
		"stalls", "rough idle", "won't start", "wont start", "hard start",
		"knocking", "engine noise", "loss of power", "hesitation", "overheating",
		"overheat", "smoke from", "burning smell",
	},
	"brakes": {
		"brake", "squealing when", "grinding when stopping", "soft pedal",
		"spongy pedal", "pulling when braking", "vibration when braking",
	},
	"transmission": {
		"transmission", "slipping", "hard shift", "won't shift", "wont shift",
		"grinding gears", "delayed engagement", "clutch",
	},
	"electrical": {
		"battery", "won't crank", "wont crank", "dead battery", "alternator",
		"electrical", "lights flicker", "fuse", "dashboard lights",
	},
	"suspension": {
		"suspension", "bouncing", "clunking over bumps", "uneven tire wear",
		"shock", "strut", "rattling noise",
	},
	"exhaust": {
		"exhaust", "muffler", "loud exhaust", "smell of exhaust",
		"catalytic converter",
	},
	"cooling": {
		"coolant", "radiator", "running hot", "temperature gauge",
		"coolant leak", "steam from",
	},
	"steering": {
		"steering", "pulls to", "hard to turn", "steering wheel shakes",
		"power steering", "wandering",
	},
	"fuel": {
		"fuel smell", "gas smell", "smell of gas", "poor fuel economy",
		"fuel gauge", "fuel pump", "runs lean", "runs rich",
	},
}

var severityPhrases = []string{
	"getting worse", "every time", "all the time", "suddenly", "loud",
	"constantly", "immediately", "dangerous", "scary", "won't stop",
}

// fallbackSymptomExtraction classifies reported problems by subsystem
// using phrase matching.
func fallbackSymptomExtraction(transcript string) *models.SymptomSet {
	lower := strings.ToLower(transcript)
	symptoms := &models.SymptomSet{}

	buckets := map[string]*[]string{
		"engine":       &symptoms.Engine,
		"brakes":       &symptoms.Brake,
		"transmission": &symptoms.Transmission,
		"electrical":   &symptoms.Electrical,
		"suspension":   &symptoms.Suspension,
		"exhaust":      &symptoms.Exhaust,
		"cooling":      &symptoms.Cooling,
		"steering":     &symptoms.Steering,
		"fuel":         &symptoms.Fuel,
	}

	for subsystem, phrases := range symptomPatterns {
		bucket := buckets[subsystem]
		seen := map[string]bool{}
		for _, phrase := range phrases {
			if strings.Contains(lower, phrase) && !seen[phrase] {
				seen[phrase] = true
				*bucket = append(*bucket, phrase)
			}
		}
		sort.Strings(*bucket)
	}

	for _, phrase := range severityPhrases {
		if strings.Contains(lower, phrase) {
			symptoms.SeverityIndicators = append(symptoms.SeverityIndicators, phrase)
		}
	}

	if !symptoms.IsEmpty() {
		symptoms.Confidence = 0.5
	}

	return symptoms
}

var measurementRegexes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*psi\b`),
	regexp.MustCompile(`(?i)\b\d+(?:,\d{3})*\s*rpm\b`),
	regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*mph\b`),
	regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:liters?|litres?)\b`),
	regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:volts?|v)\b`),
	regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*amps?\b`),
	regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*°?\s*[fc]\b`),
	regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*degrees\b`),
}

var technicalTerms = []string{
	"catalytic converter", "oxygen sensor", "mass airflow sensor",
	"spark plug", "ignition coil", "fuel injector", "timing belt",
	"timing chain", "serpentine belt", "alternator", "starter motor",
	"brake pad", "brake rotor", "brake caliper", "transmission fluid",
	"coolant", "thermostat", "water pump", "head gasket", "radiator",
}

// extractTechnicalInfo pulls diagnostic codes, measurements and
// component names from the transcript.
func extractTechnicalInfo(transcript string) *models.TechnicalInfo {
	info := &models.TechnicalInfo{ExtractedAt: time.Now().UTC()}

	seen := map[string]bool{}
	for _, code := range diagnosticCodeRegex.FindAllString(strings.ToUpper(transcript), -1) {
		if !seen[code] {
			seen[code] = true
			info.DiagnosticCodes = append(info.DiagnosticCodes, code)
		}
	}

	seenMeasurements := map[string]bool{}
	for _, re := range measurementRegexes {
		for _, m := range re.FindAllString(transcript, -1) {
			normalized := strings.ToLower(strings.Join(strings.Fields(m), " "))
			if !seenMeasurements[normalized] {
				seenMeasurements[normalized] = true
				info.Measurements = append(info.Measurements, normalized)
			}
		}
	}

	lower := strings.ToLower(transcript)
	for _, term := range technicalTerms {
		if strings.Contains(lower, term) {
			info.TechnicalTerms = append(info.TechnicalTerms, term)
		}
	}

	return info
}

var maintenanceEventPhrases = []string{
	"oil change", "changed the oil", "oil changed", "new tires",
	"replaced the brakes", "brake pads replaced", "new battery",
	"replaced the battery", "tune-up", "tune up", "serviced",
	"timing belt replaced", "coolant flush", "transmission service",
	"tire rotation", "new spark plugs", "replaced spark plugs",
	"air filter replaced", "wheel alignment",
}

var maintenanceQualityPhrases = []string{
	"regular", "regularly", "every 5000", "every 5,000", "on schedule",
	"dealer", "dealership", "recently", "last month", "last week",
	"full service history",
}

// analyzeMaintenanceHistory collects reported service events and rough
// schedule status for the oil change interval.
func analyzeMaintenanceHistory(transcript string) *models.MaintenanceHistory {
	lower := strings.ToLower(transcript)
	history := &models.MaintenanceHistory{ScheduleStatus: map[string]string{}}

	for _, phrase := range maintenanceEventPhrases {
		if strings.Contains(lower, phrase) {
			history.Events = append(history.Events, phrase)
		}
	}
	for _, phrase := range maintenanceQualityPhrases {
		if strings.Contains(lower, phrase) {
			history.QualityIndicators = append(history.QualityIndicators, phrase)
		}
	}

	hasOilEvent := false
	for _, event := range history.Events {
		if strings.Contains(event, "oil") {
			hasOilEvent = true
			break
		}
	}

	switch {
	case hasOilEvent:
		history.ScheduleStatus["oil_change"] = models.ScheduleStatusCurrent
	case oilChangeOverdue(transcript):
		history.ScheduleStatus["oil_change"] = models.ScheduleStatusOverdue
	}

	return history
}

// oilChangeOverdue applies the mileage heuristic: past 48,000 with no
// reported oil service means the interval has almost certainly lapsed.
func oilChangeOverdue(transcript string) bool {
	mileage, ok := parseMileage(transcript)
	return ok && mileage >= 48000
}

func parseMileage(transcript string) (int, bool) {
	raw := extractMileage(transcript)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// subsystemComponents maps a symptomatic subsystem to the components a
// mechanic inspects first.
var subsystemComponents = map[string][]string{
	"engine":       {"spark plugs", "ignition coils", "fuel injectors", "air filter", "timing belt"},
	"brakes":       {"brake pads", "brake rotors", "brake calipers", "brake fluid", "brake lines"},
	"transmission": {"transmission fluid", "clutch", "torque converter", "shift solenoids"},
	"electrical":   {"battery", "alternator", "starter motor", "fuses", "wiring harness"},
	"suspension":   {"shock absorbers", "struts", "control arms", "bushings", "ball joints"},
	"exhaust":      {"catalytic converter", "muffler", "oxygen sensors", "exhaust manifold"},
	"cooling":      {"radiator", "thermostat", "water pump", "coolant hoses", "cooling fan"},
	"steering":     {"power steering pump", "tie rod ends", "steering rack", "power steering fluid"},
	"fuel":         {"fuel pump", "fuel filter", "fuel injectors", "fuel lines", "fuel pressure regulator"},
}

var subsystemCauses = map[string][]string{
	"engine":       {"worn spark plugs", "clogged fuel injectors", "vacuum leak", "low compression", "failing ignition coil"},
	"brakes":       {"worn brake pads", "warped rotors", "air in brake lines", "leaking brake fluid", "seized caliper"},
	"transmission": {"low transmission fluid", "worn clutch", "failing solenoid", "worn synchros"},
	"electrical":   {"weak battery", "failing alternator", "corroded terminals", "blown fuse", "parasitic drain"},
	"suspension":   {"worn shocks or struts", "worn bushings", "failing ball joint", "broken spring"},
	"exhaust":      {"clogged catalytic converter", "exhaust leak", "failed oxygen sensor", "rusted muffler"},
	"cooling":      {"low coolant", "stuck thermostat", "failing water pump", "clogged radiator", "leaking hose"},
	"steering":     {"low power steering fluid", "worn tie rods", "failing steering pump", "misalignment"},
	"fuel":         {"clogged fuel filter", "weak fuel pump", "leaking fuel line", "dirty injectors"},
}

// identifyRelatedComponents maps the symptomatic subsystems to the
// components and root causes worth inspecting.
func identifyRelatedComponents(symptoms *models.SymptomSet) *models.RelatedComponents {
	related := &models.RelatedComponents{AnalyzedAt: time.Now().UTC()}

	for _, subsystem := range symptomaticSubsystems(symptoms) {
		related.PrimarySystems = append(related.PrimarySystems, subsystem)
		related.Components = append(related.Components, subsystemComponents[subsystem]...)
		related.PotentialCauses = append(related.PotentialCauses, subsystemCauses[subsystem]...)
	}

	return related
}

// subsystemOrder fixes the iteration order for symptom-driven tables.
var subsystemOrder = []string{"engine", "brakes", "transmission", "electrical", "suspension", "exhaust", "cooling", "steering", "fuel"}

func symptomaticSubsystems(symptoms *models.SymptomSet) []string {
	bySubsystem := map[string][]string{
		"engine":       symptoms.Engine,
		"brakes":       symptoms.Brake,
		"transmission": symptoms.Transmission,
		"electrical":   symptoms.Electrical,
		"suspension":   symptoms.Suspension,
		"exhaust":      symptoms.Exhaust,
		"cooling":      symptoms.Cooling,
		"steering":     symptoms.Steering,
		"fuel":         symptoms.Fuel,
	}

	var result []string
	for _, subsystem := range subsystemOrder {
		if len(bySubsystem[subsystem]) > 0 {
			result = append(result, subsystem)
		}
	}
	return result
}

// safetyRule describes one condition worth a safety callout. Rules are
// evaluated in order; the first match sets the level, and every
// matching rule contributes its recommendation.
type safetyRule struct {
	level          string
	matches        func(*models.SymptomSet) bool
	urgentIssue    string
	recommendation string
}

func engineSymptomContains(symptoms *models.SymptomSet, substrings ...string) bool {
	for _, symptom := range symptoms.Engine {
		lowered := strings.ToLower(symptom)
		for _, sub := range substrings {
			if strings.Contains(lowered, sub) {
				return true
			}
		}
	}
	return false
}

var safetyRules = []safetyRule{
	{
		level:          models.SafetyLevelCritical,
		matches:        func(s *models.SymptomSet) bool { return len(s.Brake) > 0 },
		urgentIssue:    "brake system problems reported",
		recommendation: "Stop driving and have the brake system inspected immediately.",
	},
	{
		level:          models.SafetyLevelHigh,
		matches:        func(s *models.SymptomSet) bool { return len(s.Steering) > 0 },
		urgentIssue:    "steering problems reported",
		recommendation: "Have the steering system checked before any long drive.",
	},
	{
		level: models.SafetyLevelHigh,
		matches: func(s *models.SymptomSet) bool {
			return engineSymptomContains(s, "overheat", "knock", "fire", "smoke", "burning")
		},
		urgentIssue:    "severe engine symptoms reported",
		recommendation: "Do not drive with an overheating or knocking engine; arrange a tow if needed.",
	},
}

// assessSafety rates how urgently the reported symptoms need
// attention. The first matching rule decides the level; all matching
// rules contribute recommendations.
func assessSafety(symptoms *models.SymptomSet) *models.SafetyAssessment {
	assessment := &models.SafetyAssessment{Level: models.SafetyLevelLow}

	matched := false
	for _, rule := range safetyRules {
		if !rule.matches(symptoms) {
			continue
		}
		if !matched {
			assessment.Level = rule.level
			matched = true
		}
		assessment.UrgentIssues = append(assessment.UrgentIssues, rule.urgentIssue)
		assessment.Recommendations = append(assessment.Recommendations, rule.recommendation)
	}

	if !matched {
		assessment.Recommendations = append(assessment.Recommendations, "Continue monitoring the symptoms and schedule a routine inspection.")
	}

	return assessment
}

// subsystemQuestions predicts what a customer asks next about each
// troubled subsystem.
var subsystemQuestions = map[string][]string{
	"engine":       {"How much does an engine diagnostic cost?", "Is it safe to keep driving with this engine problem?", "Could this be related to the fuel I use?"},
	"brakes":       {"How much does a brake job cost?", "How long can I drive before fixing the brakes?", "Do I need new rotors or just pads?"},
	"transmission": {"Is a transmission repair worth it for my car?", "How much does transmission service cost?", "Can a fluid change fix the shifting?"},
	"electrical":   {"How do I know if it's the battery or the alternator?", "How much does an alternator replacement cost?"},
	"suspension":   {"How much do new shocks cost?", "Is it safe to drive with worn suspension?"},
	"exhaust":      {"Will a bad catalytic converter fail inspection?", "How much does exhaust repair cost?"},
	"cooling":      {"Can I just top up the coolant?", "How far can I drive with a coolant leak?"},
	"steering":     {"Is it safe to drive with loose steering?", "How much does an alignment cost?"},
	"fuel":         {"Could bad fuel cause this?", "How much does a fuel pump replacement cost?"},
}

var subsystemDiagnostics = map[string][]string{
	"engine":       {"OBD-II code scan", "compression test", "fuel pressure test"},
	"brakes":       {"brake pad thickness measurement", "rotor runout check", "brake fluid moisture test"},
	"transmission": {"transmission fluid level and condition check", "shift pressure test"},
	"electrical":   {"battery load test", "alternator output test", "parasitic draw test"},
	"suspension":   {"bounce test", "visual inspection of bushings and joints"},
	"exhaust":      {"exhaust back-pressure test", "oxygen sensor readings"},
	"cooling":      {"cooling system pressure test", "thermostat operation check"},
	"steering":     {"wheel alignment check", "power steering pressure test"},
	"fuel":         {"fuel pressure test", "fuel trim readings"},
}

// generateQuestionPredictions guesses the customer's likely follow-up
// questions and the diagnostics a mechanic would run next.
func generateQuestionPredictions(symptoms *models.SymptomSet) *models.QuestionPredictions {
	predictions := &models.QuestionPredictions{ConfidenceScores: map[string]float64{}}

	subsystems := symptomaticSubsystems(symptoms)
	for _, subsystem := range subsystems {
		predictions.LikelyQuestions = append(predictions.LikelyQuestions, subsystemQuestions[subsystem]...)
		predictions.SuggestedDiagnostics = append(predictions.SuggestedDiagnostics, subsystemDiagnostics[subsystem]...)
	}

	if len(predictions.LikelyQuestions) > 5 {
		predictions.LikelyQuestions = predictions.LikelyQuestions[:5]
	}
	if len(predictions.SuggestedDiagnostics) > 3 {
		predictions.SuggestedDiagnostics = predictions.SuggestedDiagnostics[:3]
	}

	confidence := 0.7 + 0.1*float64(len(subsystems))
	if confidence > 0.95 {
		confidence = 0.95
	}
	for _, q := range predictions.LikelyQuestions {
		predictions.ConfidenceScores[q] = confidence
	}

	return predictions
}

// generateMaintenancePredictions derives upcoming and overdue service
// items from reported mileage and maintenance history.
func generateMaintenancePredictions(transcript string) *models.MaintenancePredictions {
	predictions := &models.MaintenancePredictions{PriorityLevels: map[string]string{}}

	history := analyzeMaintenanceHistory(transcript)
	mileage, hasMileage := parseMileage(transcript)
	if !hasMileage {
		return predictions
	}

	if history.ScheduleStatus["oil_change"] == models.ScheduleStatusOverdue {
		predictions.OverdueItems = append(predictions.OverdueItems, "oil change")
		predictions.PriorityLevels["oil change"] = models.SafetyLevelHigh
	} else if mileage%5000 < 1000 {
		predictions.Upcoming = append(predictions.Upcoming, "oil change")
		predictions.PriorityLevels["oil change"] = models.SafetyLevelLow
	}

	if mileage >= 30000 {
		predictions.Upcoming = append(predictions.Upcoming, "brake inspection")
		predictions.PriorityLevels["brake inspection"] = models.SafetyLevelLow
	}
	if mileage >= 60000 {
		predictions.Upcoming = append(predictions.Upcoming, fmt.Sprintf("timing belt inspection (at %d miles)", mileage))
		predictions.PriorityLevels["timing belt inspection"] = models.SafetyLevelLow
	}

	return predictions
}
