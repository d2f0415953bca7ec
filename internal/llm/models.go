package llm

// Chat roles used on the inference gateway wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn handed to the chat completion endpoint.
type Message struct {
	Role    string
	Content string
}

// CompletionOptions tune a single completion call. Zero values fall
// back to the client defaults.
type CompletionOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Completion struct {
	Content string
	Usage   TokenUsage
}

// ModerationResult reports the content safety verdict for a message.
type ModerationResult struct {
	Flagged        bool               `json:"flagged"`
	Safe           bool               `json:"safe"`
	CategoryScores map[string]float64 `json:"category_scores,omitempty"`
}

// RelevanceResult classifies whether a message belongs to the
// automotive domain.
type RelevanceResult struct {
	IsAutomotive bool    `json:"is_automotive"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning,omitempty"`
}

type ExpertResponse struct {
	Response string
	Language string
	Usage    TokenUsage
}

// PreservedInformation lists what a compression pass kept out of the
// discarded transcript.
type PreservedInformation struct {
	Topics      []string `json:"topics,omitempty"`
	VehicleInfo []string `json:"vehicle_info,omitempty"`
	SafetyFlags []string `json:"safety_flags,omitempty"`
}

type CompressionResult struct {
	Summary   string
	Ratio     float64
	Preserved PreservedInformation
}

type LanguageDetection struct {
	Language   string
	Confidence float64
	Reasoning  string
}

type TranslationResult struct {
	TranslatedText   string
	Confidence       float64
	OriginalLanguage string
}

// AutoTranslateResult reports whether a response needed translation to
// match the user's language, and the translated text when it did.
type AutoTranslateResult struct {
	NeedsTranslation   bool
	UserLanguage       string
	ResponseLanguage   string
	TranslatedResponse string
	Confidence         float64
}
