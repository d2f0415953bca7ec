package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"mechaniai-backend/internal/models"

	openai "github.com/sashabaranov/go-openai"
)

// Compile-time check to ensure OpenAIClient implements Client
var _ Client = (*OpenAIClient)(nil)

const (
	defaultModel     = "gpt-4o-mini"
	maxAllowedTokens = 4000
)

type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = defaultModel
	}
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (c *OpenAIClient) CreateCompletion(ctx context.Context, messages []Message, opts CompletionOptions) (*Completion, error) {
	model := opts.Model
	if model == "" {
		model = c.model
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 || maxTokens > maxAllowedTokens {
		maxTokens = maxAllowedTokens
	}

	reqMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		reqMessages = append(reqMessages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    reqMessages,
		Temperature: opts.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("%w: empty completion", ErrUpstream)
	}

	return &Completion{
		Content: resp.Choices[0].Message.Content,
		Usage: TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func (c *OpenAIClient) ModerateContent(ctx context.Context, content string) (*ModerationResult, error) {
	if strings.TrimSpace(content) == "" {
		return &ModerationResult{Flagged: false, Safe: true}, nil
	}

	resp, err := c.client.Moderations(ctx, openai.ModerationRequest{
		Input: content,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("%w: empty moderation result", ErrUpstream)
	}

	result := resp.Results[0]
	scores := result.CategoryScores
	return &ModerationResult{
		Flagged: result.Flagged,
		Safe:    !result.Flagged,
		CategoryScores: map[string]float64{
			"hate":             float64(scores.Hate),
			"harassment":       float64(scores.Harassment),
			"self-harm":        float64(scores.SelfHarm),
			"sexual":           float64(scores.Sexual),
			"sexual/minors":    float64(scores.SexualMinors),
			"violence":         float64(scores.Violence),
			"violence/graphic": float64(scores.ViolenceGraphic),
		},
	}, nil
}

func (c *OpenAIClient) CheckAutomotiveRelevance(ctx context.Context, content string) (*RelevanceResult, error) {
	completion, err := c.CreateCompletion(ctx, []Message{
		{Role: RoleSystem, Content: relevancePrompt},
		{Role: RoleUser, Content: content},
	}, CompletionOptions{Temperature: 0, MaxTokens: 200})
	if err != nil {
		return nil, err
	}

	var result RelevanceResult
	if err := json.Unmarshal(ExtractJSONObject(completion.Content), &result); err != nil {
		log.Printf("[OpenAIClient] CheckAutomotiveRelevance: unparseable classifier output, using keyword fallback: %v", err)
		return fallbackRelevance(content), nil
	}

	return &result, nil
}

func (c *OpenAIClient) GenerateExpertResponse(ctx context.Context, query string, history []Message, language string) (*ExpertResponse, error) {
	reqMessages := make([]Message, 0, len(history)+2)
	reqMessages = append(reqMessages, Message{Role: RoleSystem, Content: expertPromptFor(language)})
	reqMessages = append(reqMessages, history...)
	reqMessages = append(reqMessages, Message{Role: RoleUser, Content: query})

	completion, err := c.CreateCompletion(ctx, reqMessages, CompletionOptions{Temperature: 0.7})
	if err != nil {
		return nil, err
	}

	return &ExpertResponse{
		Response: completion.Content,
		Language: language,
		Usage:    completion.Usage,
	}, nil
}

func (c *OpenAIClient) CompressConversation(ctx context.Context, messages []Message) (*CompressionResult, error) {
	valid := make([]Message, 0, len(messages))
	for _, msg := range messages {
		if strings.TrimSpace(msg.Content) != "" {
			valid = append(valid, msg)
		}
	}

	if len(valid) == 0 {
		return &CompressionResult{Summary: "", Ratio: 1.0}, nil
	}

	transcript := formatTranscript(valid)

	// Compressing two messages is not worth a gateway round trip.
	if len(valid) <= 2 {
		return &CompressionResult{
			Summary:   transcript,
			Ratio:     1.0,
			Preserved: buildPreservedInformation(valid),
		}, nil
	}

	completion, err := c.CreateCompletion(ctx, []Message{
		{Role: RoleSystem, Content: compressionPrompt},
		{Role: RoleUser, Content: transcript},
	}, CompletionOptions{Temperature: 0.3, MaxTokens: 1000})
	if err != nil {
		return nil, err
	}

	ratio := 1.0
	if len(transcript) > 0 {
		ratio = float64(len(completion.Content)) / float64(len(transcript))
	}

	return &CompressionResult{
		Summary:   completion.Content,
		Ratio:     ratio,
		Preserved: buildPreservedInformation(valid),
	}, nil
}

func (c *OpenAIClient) TranslateToGeorgian(ctx context.Context, text string) (*TranslationResult, error) {
	return c.translate(ctx, translateToGeorgianPrompt, text, models.LanguageEnglish)
}

func (c *OpenAIClient) TranslateToEnglish(ctx context.Context, text string) (*TranslationResult, error) {
	return c.translate(ctx, translateToEnglishPrompt, text, models.LanguageGeorgian)
}

func (c *OpenAIClient) translate(ctx context.Context, prompt, text, originalLanguage string) (*TranslationResult, error) {
	completion, err := c.CreateCompletion(ctx, []Message{
		{Role: RoleSystem, Content: prompt},
		{Role: RoleUser, Content: text},
	}, CompletionOptions{Temperature: 0.3})
	if err != nil {
		return nil, err
	}

	return &TranslationResult{
		TranslatedText:   completion.Content,
		Confidence:       0.9,
		OriginalLanguage: originalLanguage,
	}, nil
}

func (c *OpenAIClient) AutoTranslateResponse(ctx context.Context, userQuery, response string) (*AutoTranslateResult, error) {
	userDetected := DetectLanguage(userQuery)
	responseDetected := DetectLanguage(response)

	result := &AutoTranslateResult{
		UserLanguage:     userDetected.Language,
		ResponseLanguage: responseDetected.Language,
		Confidence:       responseDetected.Confidence,
	}

	// Mixed-language queries get the response as generated.
	if userDetected.Language == models.LanguageMixed || responseDetected.Language == userDetected.Language {
		result.TranslatedResponse = response
		return result, nil
	}

	var translated *TranslationResult
	var err error
	switch userDetected.Language {
	case models.LanguageGeorgian:
		translated, err = c.TranslateToGeorgian(ctx, response)
	case models.LanguageEnglish:
		translated, err = c.TranslateToEnglish(ctx, response)
	default:
		result.TranslatedResponse = response
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	result.NeedsTranslation = true
	result.TranslatedResponse = translated.TranslatedText
	result.Confidence = translated.Confidence
	return result, nil
}

// formatTranscript renders turns as "Customer:"/"Mechanic:" lines for
// compression and extraction prompts.
func formatTranscript(messages []Message) string {
	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteString("\n")
		}
		switch msg.Role {
		case RoleAssistant:
			b.WriteString("Mechanic: ")
		default:
			b.WriteString("Customer: ")
		}
		b.WriteString(msg.Content)
	}
	return b.String()
}

// ExtractJSONObject pulls the first top-level JSON object out of
// model output, tolerating code fences and prose around it.
func ExtractJSONObject(s string) []byte {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return []byte(s)
	}
	return []byte(s[start : end+1])
}
