package services

import (
	"context"

	"mechaniai-backend/internal/llm"
)

// stubClient is a controllable llm.Client that counts calls per
// operation.
type stubClient struct {
	completionContent string
	completionErr     error
	flagged           bool
	moderationErr     error
	isAutomotive      bool
	relevanceErr      error
	expertResponse    string
	expertErr         error
	compressionErr    error
	translateErr      error

	completionCalls  int
	moderationCalls  int
	relevanceCalls   int
	expertCalls      int
	compressionCalls int
	translateCalls   int
}

var _ llm.Client = (*stubClient)(nil)

func newStubClient() *stubClient {
	return &stubClient{
		isAutomotive:   true,
		expertResponse: "Check the brake pads first.",
	}
}

func (c *stubClient) CreateCompletion(_ context.Context, _ []llm.Message, _ llm.CompletionOptions) (*llm.Completion, error) {
	c.completionCalls++
	if c.completionErr != nil {
		return nil, c.completionErr
	}
	return &llm.Completion{Content: c.completionContent}, nil
}

func (c *stubClient) ModerateContent(_ context.Context, _ string) (*llm.ModerationResult, error) {
	c.moderationCalls++
	if c.moderationErr != nil {
		return nil, c.moderationErr
	}
	return &llm.ModerationResult{Flagged: c.flagged, Safe: !c.flagged}, nil
}

func (c *stubClient) CheckAutomotiveRelevance(_ context.Context, _ string) (*llm.RelevanceResult, error) {
	c.relevanceCalls++
	if c.relevanceErr != nil {
		return nil, c.relevanceErr
	}
	return &llm.RelevanceResult{IsAutomotive: c.isAutomotive, Confidence: 0.9}, nil
}

func (c *stubClient) GenerateExpertResponse(_ context.Context, _ string, _ []llm.Message, language string) (*llm.ExpertResponse, error) {
	c.expertCalls++
	if c.expertErr != nil {
		return nil, c.expertErr
	}
	return &llm.ExpertResponse{Response: c.expertResponse, Language: language}, nil
}

func (c *stubClient) CompressConversation(_ context.Context, messages []llm.Message) (*llm.CompressionResult, error) {
	c.compressionCalls++
	if c.compressionErr != nil {
		return nil, c.compressionErr
	}
	return &llm.CompressionResult{Summary: "compressed summary", Ratio: 0.3}, nil
}

func (c *stubClient) TranslateToGeorgian(_ context.Context, text string) (*llm.TranslationResult, error) {
	c.translateCalls++
	if c.translateErr != nil {
		return nil, c.translateErr
	}
	return &llm.TranslationResult{TranslatedText: "[ka] " + text, Confidence: 0.9, OriginalLanguage: "en"}, nil
}

func (c *stubClient) TranslateToEnglish(_ context.Context, text string) (*llm.TranslationResult, error) {
	c.translateCalls++
	if c.translateErr != nil {
		return nil, c.translateErr
	}
	return &llm.TranslationResult{TranslatedText: "[en] " + text, Confidence: 0.9, OriginalLanguage: "ka"}, nil
}

func (c *stubClient) AutoTranslateResponse(ctx context.Context, userQuery, response string) (*llm.AutoTranslateResult, error) {
	userDetected := llm.DetectLanguage(userQuery)
	responseDetected := llm.DetectLanguage(response)
	result := &llm.AutoTranslateResult{
		UserLanguage:     userDetected.Language,
		ResponseLanguage: responseDetected.Language,
		Confidence:       responseDetected.Confidence,
	}
	if userDetected.Language == "mixed" || responseDetected.Language == userDetected.Language {
		result.TranslatedResponse = response
		return result, nil
	}
	var translated *llm.TranslationResult
	var err error
	if userDetected.Language == "ka" {
		translated, err = c.TranslateToGeorgian(ctx, response)
	} else {
		translated, err = c.TranslateToEnglish(ctx, response)
	}
	if err != nil {
		return nil, err
	}
	result.NeedsTranslation = true
	result.TranslatedResponse = translated.TranslatedText
	return result, nil
}
