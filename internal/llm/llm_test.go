package llm

import (
	"context"
	"testing"

	"mechaniai-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"english", "My car makes a grinding noise when braking", models.LanguageEnglish},
		{"georgian", "ჩემი მანქანის ძრავა ხმაურობს", models.LanguageGeorgian},
		{"mixed", "ჩემი Toyota Corolla ხმაურობს", models.LanguageMixed},
		{"numbers only", "12345 !!!", models.LanguageEnglish},
		{"empty", "", models.LanguageEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectLanguage(tt.text)
			assert.Equal(t, tt.want, got.Language)
		})
	}
}

func TestFallbackRelevance(t *testing.T) {
	t.Run("automotive message scores by keyword hits", func(t *testing.T) {
		result := fallbackRelevance("My car engine is leaking oil near the radiator")
		assert.True(t, result.IsAutomotive)
		// car, engine, oil, radiator
		assert.InDelta(t, 0.8, result.Confidence, 0.001)
	})

	t.Run("confidence capped at 0.8", func(t *testing.T) {
		result := fallbackRelevance("car engine brake tire transmission oil battery")
		assert.True(t, result.IsAutomotive)
		assert.LessOrEqual(t, result.Confidence, 0.8)
	})

	t.Run("non-automotive message", func(t *testing.T) {
		result := fallbackRelevance("what is the weather like today")
		assert.False(t, result.IsAutomotive)
		assert.Zero(t, result.Confidence)
	})

	t.Run("georgian keywords match", func(t *testing.T) {
		result := fallbackRelevance("ჩემი მანქანა არ ქოქავს")
		assert.True(t, result.IsAutomotive)
	})
}

func TestModerateContentWhitespaceShortCircuits(t *testing.T) {
	// No API key configured, so any gateway call would fail. Blank
	// input must be reported safe without one.
	c := NewOpenAIClient("", "")

	result, err := c.ModerateContent(context.Background(), "   \n\t ")
	require.NoError(t, err)
	assert.True(t, result.Safe)
	assert.False(t, result.Flagged)
}

func TestCompressConversationBypassesShortTranscripts(t *testing.T) {
	c := NewOpenAIClient("", "")

	t.Run("empty transcript", func(t *testing.T) {
		result, err := c.CompressConversation(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "", result.Summary)
		assert.Equal(t, 1.0, result.Ratio)
	})

	t.Run("two substantive messages returned verbatim", func(t *testing.T) {
		messages := []Message{
			{Role: RoleUser, Content: "My brakes are squealing"},
			{Role: RoleAssistant, Content: "Worn pads are the usual cause. How many miles on them?"},
		}
		result, err := c.CompressConversation(context.Background(), messages)
		require.NoError(t, err)
		assert.Equal(t, 1.0, result.Ratio)
		assert.Contains(t, result.Summary, "Customer: My brakes are squealing")
		assert.Contains(t, result.Summary, "Mechanic: Worn pads")
	})

	t.Run("blank messages do not count", func(t *testing.T) {
		messages := []Message{
			{Role: RoleUser, Content: "   "},
			{Role: RoleUser, Content: "My brakes are squealing"},
			{Role: RoleAssistant, Content: "\n"},
		}
		result, err := c.CompressConversation(context.Background(), messages)
		require.NoError(t, err)
		assert.Equal(t, 1.0, result.Ratio)
	})
}

func TestBuildPreservedInformation(t *testing.T) {
	messages := []Message{
		{Role: RoleUser, Content: "My 2018 Toyota Corolla brake pedal feels soft"},
		{Role: RoleAssistant, Content: "That could be brake failure. Do not drive the car."},
	}

	preserved := buildPreservedInformation(messages)
	assert.Contains(t, preserved.Topics, "brake")
	assert.Contains(t, preserved.VehicleInfo, "toyota")
	assert.Contains(t, preserved.SafetyFlags, "do not drive")
	assert.Contains(t, preserved.SafetyFlags, "brake failure")
}

func TestAutoTranslateSkipsMatchingLanguage(t *testing.T) {
	c := NewOpenAIClient("", "")

	t.Run("english response for english query", func(t *testing.T) {
		result, err := c.AutoTranslateResponse(context.Background(), "What causes engine knock?", "Check your brake pads.")
		require.NoError(t, err)
		assert.False(t, result.NeedsTranslation)
		assert.Equal(t, models.LanguageEnglish, result.UserLanguage)
		assert.Equal(t, models.LanguageEnglish, result.ResponseLanguage)
		assert.Equal(t, "Check your brake pads.", result.TranslatedResponse)
	})

	t.Run("mixed-language query gets response as generated", func(t *testing.T) {
		result, err := c.AutoTranslateResponse(context.Background(), "ჩემი Corolla overheats", "Check your brake pads.")
		require.NoError(t, err)
		assert.False(t, result.NeedsTranslation)
		assert.Equal(t, models.LanguageMixed, result.UserLanguage)
		assert.Equal(t, "Check your brake pads.", result.TranslatedResponse)
	})

	t.Run("georgian response for georgian query", func(t *testing.T) {
		result, err := c.AutoTranslateResponse(context.Background(), "მუხრუჭები ჭრიალებს", "შეამოწმეთ სამუხრუჭე ხუნდები.")
		require.NoError(t, err)
		assert.False(t, result.NeedsTranslation)
		assert.Equal(t, models.LanguageGeorgian, result.UserLanguage)
		assert.Equal(t, models.LanguageGeorgian, result.ResponseLanguage)
		assert.Equal(t, "შეამოწმეთ სამუხრუჭე ხუნდები.", result.TranslatedResponse)
	})
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare object", `{"is_automotive": true}`, `{"is_automotive": true}`},
		{"fenced", "```json\n{\"is_automotive\": true}\n```", `{"is_automotive": true}`},
		{"surrounded by prose", `Sure! {"is_automotive": false} Hope that helps.`, `{"is_automotive": false}`},
		{"no object", "not json at all", "not json at all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(ExtractJSONObject(tt.input)))
		})
	}
}
