package llm

import "strings"

// automotiveKeywords drives the relevance fallback when the model
// returns unparseable output. Covers English and Georgian terms.
var automotiveKeywords = []string{
	"car", "vehicle", "engine", "brake", "tire", "tyre", "transmission",
	"oil", "battery", "starter", "alternator", "radiator", "exhaust",
	"clutch", "suspension", "steering", "mechanic", "repair", "garage",
	"mileage", "dashboard", "warning light", "check engine", "coolant",
	"spark plug", "fuel", "diesel", "gasoline", "motor", "wheel",
	"windshield", "headlight", "muffler", "axle", "driveshaft",
	// Georgian
	"მანქანა", "ავტომობილი", "ძრავა", "მუხრუჭი", "საბურავი",
	"ტრანსმისია", "ზეთი", "აკუმულატორი", "რადიატორი", "სამუხრუჭე",
	"ხელოსანი", "შეკეთება", "გადაცემათა კოლოფი",
}

// fallbackRelevance scores a message by keyword hits: 0.2 per hit,
// capped at 0.8 so keyword matching never claims model-grade
// confidence. Relevant when at least one keyword matches.
func fallbackRelevance(content string) *RelevanceResult {
	lower := strings.ToLower(content)

	hits := 0
	for _, kw := range automotiveKeywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}

	confidence := 0.2 * float64(hits)
	if confidence > 0.8 {
		confidence = 0.8
	}

	return &RelevanceResult{
		IsAutomotive: hits > 0,
		Confidence:   confidence,
		Reasoning:    "keyword-based fallback classification",
	}
}

var safetyPhrases = []string{
	"do not drive", "don't drive", "stop driving", "dangerous",
	"brake failure", "unsafe", "immediately", "tow", "fire hazard",
}

var vehicleHintWords = []string{
	"toyota", "honda", "bmw", "mercedes", "audi", "ford", "chevrolet",
	"nissan", "hyundai", "kia", "model", "year", "miles", "km",
}

// buildPreservedInformation scans a transcript for the topics, vehicle
// hints and safety flags a summary must not lose.
func buildPreservedInformation(messages []Message) PreservedInformation {
	preserved := PreservedInformation{}
	seenTopics := map[string]bool{}
	seenVehicle := map[string]bool{}
	seenSafety := map[string]bool{}

	for _, msg := range messages {
		lower := strings.ToLower(msg.Content)

		for _, kw := range automotiveKeywords {
			if strings.Contains(lower, kw) && !seenTopics[kw] {
				seenTopics[kw] = true
				preserved.Topics = append(preserved.Topics, kw)
			}
		}
		for _, hint := range vehicleHintWords {
			if strings.Contains(lower, hint) && !seenVehicle[hint] {
				seenVehicle[hint] = true
				preserved.VehicleInfo = append(preserved.VehicleInfo, hint)
			}
		}
		for _, phrase := range safetyPhrases {
			if strings.Contains(lower, phrase) && !seenSafety[phrase] {
				seenSafety[phrase] = true
				preserved.SafetyFlags = append(preserved.SafetyFlags, phrase)
			}
		}
	}

	return preserved
}
