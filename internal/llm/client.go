// Package llm wraps the inference gateway behind a narrow interface:
// chat completions plus the moderation, relevance, expert response,
// compression and translation operations built on top of them.
package llm

import (
	"context"
	"errors"
)

// ErrUpstream marks failures of the inference gateway itself (network,
// auth, empty replies). Callers decide per operation whether the
// failure is fatal or degrades to a local fallback.
var ErrUpstream = errors.New("inference gateway failure")

// Client is the conversational AI surface used by the services layer.
type Client interface {
	// CreateCompletion performs a raw chat completion.
	CreateCompletion(ctx context.Context, messages []Message, opts CompletionOptions) (*Completion, error)

	// ModerateContent checks a message for policy violations. Empty or
	// whitespace-only content is reported safe without a gateway call.
	ModerateContent(ctx context.Context, content string) (*ModerationResult, error)

	// CheckAutomotiveRelevance classifies whether a message is about
	// vehicles. Malformed model output degrades to keyword matching.
	CheckAutomotiveRelevance(ctx context.Context, content string) (*RelevanceResult, error)

	// GenerateExpertResponse produces the mechanic reply for the query
	// given prior conversation turns.
	GenerateExpertResponse(ctx context.Context, query string, history []Message, language string) (*ExpertResponse, error)

	// CompressConversation summarizes a transcript. Transcripts with
	// two or fewer substantive messages are returned uncompressed.
	CompressConversation(ctx context.Context, messages []Message) (*CompressionResult, error)

	TranslateToGeorgian(ctx context.Context, text string) (*TranslationResult, error)
	TranslateToEnglish(ctx context.Context, text string) (*TranslationResult, error)

	// AutoTranslateResponse detects the languages of the user's query
	// and the generated response independently and translates the
	// response into the query's language when they differ.
	// Mixed-language queries get the response as generated.
	AutoTranslateResponse(ctx context.Context, userQuery, response string) (*AutoTranslateResult, error)
}
