package llm

import "mechaniai-backend/internal/models"

// DetectLanguage classifies text as English, Georgian or mixed by
// script. The Mkhedruli block (U+10A0 through U+10FF) marks Georgian;
// ASCII letters mark English. Text with neither defaults to English.
func DetectLanguage(text string) LanguageDetection {
	hasGeorgian := false
	hasLatin := false

	for _, r := range text {
		switch {
		case r >= 0x10A0 && r <= 0x10FF:
			hasGeorgian = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLatin = true
		}
		if hasGeorgian && hasLatin {
			break
		}
	}

	switch {
	case hasGeorgian && hasLatin:
		return LanguageDetection{Language: models.LanguageMixed, Confidence: 0.9, Reasoning: "contains both Georgian and Latin script"}
	case hasGeorgian:
		return LanguageDetection{Language: models.LanguageGeorgian, Confidence: 0.95, Reasoning: "Georgian script"}
	case hasLatin:
		return LanguageDetection{Language: models.LanguageEnglish, Confidence: 0.95, Reasoning: "Latin script"}
	default:
		return LanguageDetection{Language: models.LanguageEnglish, Confidence: 0.5, Reasoning: "no recognizable script, defaulting to English"}
	}
}
