package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"mechaniai-backend/internal/cache"
	"mechaniai-backend/internal/llm"
	"mechaniai-backend/internal/models"
	"mechaniai-backend/internal/store"

	"github.com/google/uuid"
)

// Cache kinds, one per extraction result type.
const (
	kindVehicleInfo     = "vehicle_info"
	kindSymptoms        = "symptoms"
	kindTechnical       = "technical_info"
	kindMaintenance     = "maintenance_history"
	kindComponents      = "related_components"
	kindSafety          = "safety_assessment"
	kindQuestions       = "question_predictions"
	kindMaintenancePred = "maintenance_predictions"
	kindComprehensive   = "comprehensive"
)

// ContextService extracts structured automotive context from
// conversation transcripts. Model-backed extractions degrade to
// pattern matching when the gateway fails; results are cached per
// conversation with a TTL.
type ContextService struct {
	store store.Store
	llm   llm.Client
	cache *cache.Cache
}

func NewContextService(s store.Store, client llm.Client, c *cache.Cache) *ContextService {
	return &ContextService{store: s, llm: client, cache: c}
}

// conversationMessages loads a conversation's message log, treating a
// missing or empty conversation the same way.
func (s *ContextService) conversationMessages(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	if _, err := s.store.GetConversation(ctx, conversationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
		}
		return nil, fmt.Errorf("loading conversation: %w", err)
	}

	messages, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("loading messages: %w", err)
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: conversation %s has no messages", ErrConversationNotFound, conversationID)
	}
	return messages, nil
}

// transcript loads a conversation's messages rendered as
// "Customer:"/"Mechanic:" lines.
func (s *ContextService) transcript(ctx context.Context, conversationID uuid.UUID) (string, error) {
	messages, err := s.conversationMessages(ctx, conversationID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteString("\n")
		}
		if msg.Role == models.RoleAssistant {
			b.WriteString("Mechanic: ")
		} else {
			b.WriteString("Customer: ")
		}
		b.WriteString(msg.Content)
	}

	return b.String(), nil
}

// userTranscript renders only the customer's side of the
// conversation. Symptom extraction reads this, so a mechanic question
// like "any brake problems?" never counts as a reported symptom.
func (s *ContextService) userTranscript(ctx context.Context, conversationID uuid.UUID) (string, error) {
	messages, err := s.conversationMessages(ctx, conversationID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, msg := range messages {
		if msg.Role != models.RoleUser {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Customer: ")
		b.WriteString(msg.Content)
	}

	return b.String(), nil
}

// ExtractVehicleInfo identifies the vehicle under discussion. The
// model is asked first; pattern matching covers gateway failures and
// unusable output.
func (s *ContextService) ExtractVehicleInfo(ctx context.Context, conversationID uuid.UUID) (*models.VehicleInfo, error) {
	key := cache.Key{ConversationID: conversationID, Kind: kindVehicleInfo}
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*models.VehicleInfo), nil
	}

	transcript, err := s.transcript(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	info := s.modelVehicleExtraction(ctx, transcript)
	if info == nil {
		info = fallbackVehicleExtraction(transcript)
	}

	s.cache.Put(key, info)
	return info, nil
}

// modelVehicleExtraction asks the model for a structured vehicle
// description. Returns nil when the gateway fails or the output is
// unparseable, so the caller falls back.
func (s *ContextService) modelVehicleExtraction(ctx context.Context, transcript string) *models.VehicleInfo {
	if strings.TrimSpace(transcript) == "" {
		return nil
	}

	completion, err := s.llm.CreateCompletion(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: llm.VehicleExtractionPrompt},
		{Role: llm.RoleUser, Content: transcript},
	}, llm.CompletionOptions{Temperature: 0, MaxTokens: 300})
	if err != nil {
		log.Printf("[ContextService] vehicle extraction via model failed, using pattern fallback: %v", err)
		return nil
	}

	var info models.VehicleInfo
	if err := json.Unmarshal(llm.ExtractJSONObject(completion.Content), &info); err != nil {
		log.Printf("[ContextService] unparseable vehicle extraction output, using pattern fallback: %v", err)
		return nil
	}
	cleanVehicleInfo(&info)

	return &info
}

// cleanVehicleInfo drops field values the model uses as "unknown"
// markers: whitespace and the literal string "null".
func cleanVehicleInfo(info *models.VehicleInfo) {
	for _, field := range []*string{
		&info.Make, &info.Model, &info.Year, &info.Mileage,
		&info.VehicleType, &info.Transmission, &info.Engine, &info.Color,
	} {
		trimmed := strings.TrimSpace(*field)
		if strings.EqualFold(trimmed, "null") {
			trimmed = ""
		}
		*field = trimmed
	}
}

// ExtractSymptoms groups the reported problems by vehicle subsystem.
func (s *ContextService) ExtractSymptoms(ctx context.Context, conversationID uuid.UUID) (*models.SymptomSet, error) {
	key := cache.Key{ConversationID: conversationID, Kind: kindSymptoms}
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*models.SymptomSet), nil
	}

	transcript, err := s.userTranscript(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	symptoms := s.modelSymptomExtraction(ctx, transcript)
	if symptoms == nil {
		symptoms = fallbackSymptomExtraction(transcript)
	}

	s.cache.Put(key, symptoms)
	return symptoms, nil
}

func (s *ContextService) modelSymptomExtraction(ctx context.Context, transcript string) *models.SymptomSet {
	if strings.TrimSpace(transcript) == "" {
		return nil
	}

	completion, err := s.llm.CreateCompletion(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: llm.SymptomExtractionPrompt},
		{Role: llm.RoleUser, Content: transcript},
	}, llm.CompletionOptions{Temperature: 0, MaxTokens: 500})
	if err != nil {
		log.Printf("[ContextService] symptom extraction via model failed, using pattern fallback: %v", err)
		return nil
	}

	var symptoms models.SymptomSet
	if err := json.Unmarshal(llm.ExtractJSONObject(completion.Content), &symptoms); err != nil {
		log.Printf("[ContextService] unparseable symptom extraction output, using pattern fallback: %v", err)
		return nil
	}

	return &symptoms
}

// ExtractTechnicalInfo pulls diagnostic codes, measurements and
// component names. Deterministic; no model call.
func (s *ContextService) ExtractTechnicalInfo(ctx context.Context, conversationID uuid.UUID) (*models.TechnicalInfo, error) {
	key := cache.Key{ConversationID: conversationID, Kind: kindTechnical}
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*models.TechnicalInfo), nil
	}

	transcript, err := s.transcript(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	info := extractTechnicalInfo(transcript)
	s.cache.Put(key, info)
	return info, nil
}

// AnalyzeMaintenanceHistory collects reported service events and the
// oil change schedule status.
func (s *ContextService) AnalyzeMaintenanceHistory(ctx context.Context, conversationID uuid.UUID) (*models.MaintenanceHistory, error) {
	key := cache.Key{ConversationID: conversationID, Kind: kindMaintenance}
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*models.MaintenanceHistory), nil
	}

	transcript, err := s.transcript(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	history := s.modelMaintenanceExtraction(ctx, transcript)
	if history == nil {
		history = analyzeMaintenanceHistory(transcript)
	}

	s.cache.Put(key, history)
	return history, nil
}

func (s *ContextService) modelMaintenanceExtraction(ctx context.Context, transcript string) *models.MaintenanceHistory {
	if strings.TrimSpace(transcript) == "" {
		return nil
	}

	completion, err := s.llm.CreateCompletion(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: llm.MaintenanceExtractionPrompt},
		{Role: llm.RoleUser, Content: transcript},
	}, llm.CompletionOptions{Temperature: 0.3, MaxTokens: 400})
	if err != nil {
		log.Printf("[ContextService] maintenance analysis via model failed, using pattern fallback: %v", err)
		return nil
	}

	var history models.MaintenanceHistory
	if err := json.Unmarshal(llm.ExtractJSONObject(completion.Content), &history); err != nil {
		log.Printf("[ContextService] unparseable maintenance analysis output, using pattern fallback: %v", err)
		return nil
	}
	if history.ScheduleStatus == nil {
		history.ScheduleStatus = map[string]string{}
	}

	return &history
}

// IdentifyRelatedComponents maps the symptomatic subsystems to the
// components and causes worth inspecting.
func (s *ContextService) IdentifyRelatedComponents(ctx context.Context, conversationID uuid.UUID) (*models.RelatedComponents, error) {
	key := cache.Key{ConversationID: conversationID, Kind: kindComponents}
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*models.RelatedComponents), nil
	}

	symptoms, err := s.ExtractSymptoms(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	related := identifyRelatedComponents(symptoms)
	s.cache.Put(key, related)
	return related, nil
}

// AssessSafety rates how urgently the reported symptoms need
// attention.
func (s *ContextService) AssessSafety(ctx context.Context, conversationID uuid.UUID) (*models.SafetyAssessment, error) {
	key := cache.Key{ConversationID: conversationID, Kind: kindSafety}
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*models.SafetyAssessment), nil
	}

	symptoms, err := s.ExtractSymptoms(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	assessment := assessSafety(symptoms)
	s.cache.Put(key, assessment)
	return assessment, nil
}

// PredictQuestions guesses the customer's likely follow-up questions
// and useful next diagnostics.
func (s *ContextService) PredictQuestions(ctx context.Context, conversationID uuid.UUID) (*models.QuestionPredictions, error) {
	key := cache.Key{ConversationID: conversationID, Kind: kindQuestions}
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*models.QuestionPredictions), nil
	}

	symptoms, err := s.ExtractSymptoms(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	predictions := generateQuestionPredictions(symptoms)
	s.cache.Put(key, predictions)
	return predictions, nil
}

// PredictMaintenance derives upcoming and overdue service items from
// mileage and maintenance history.
func (s *ContextService) PredictMaintenance(ctx context.Context, conversationID uuid.UUID) (*models.MaintenancePredictions, error) {
	key := cache.Key{ConversationID: conversationID, Kind: kindMaintenancePred}
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*models.MaintenancePredictions), nil
	}

	transcript, err := s.transcript(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	predictions := generateMaintenancePredictions(transcript)
	s.cache.Put(key, predictions)
	return predictions, nil
}

// ExtractComprehensive bundles vehicle, symptoms, technical info,
// related components and safety into one snapshot.
func (s *ContextService) ExtractComprehensive(ctx context.Context, conversationID uuid.UUID) (*models.ComprehensiveContext, error) {
	key := cache.Key{ConversationID: conversationID, Kind: kindComprehensive}
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*models.ComprehensiveContext), nil
	}

	vehicle, err := s.ExtractVehicleInfo(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	symptoms, err := s.ExtractSymptoms(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	technical, err := s.ExtractTechnicalInfo(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	components, err := s.IdentifyRelatedComponents(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	safety, err := s.AssessSafety(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	comprehensive := &models.ComprehensiveContext{
		Vehicle:     *vehicle,
		Symptoms:    *symptoms,
		Technical:   *technical,
		Components:  *components,
		Safety:      *safety,
		ExtractedAt: time.Now().UTC(),
	}

	s.cache.Put(key, comprehensive)
	return comprehensive, nil
}

// InvalidateContext drops cached extractions after new messages land.
func (s *ContextService) InvalidateContext(conversationID uuid.UUID) {
	s.cache.Invalidate(conversationID)
}
