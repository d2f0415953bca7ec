package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"mechaniai-backend/internal/llm"
	"mechaniai-backend/internal/models"
	"mechaniai-backend/internal/services"
	"mechaniai-backend/pkg/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const gatewayUnavailableMessage = "The assistant is temporarily unavailable. Please try again."

// ChatHandlers handles the chat and conversation HTTP endpoints.
type ChatHandlers struct {
	chatService    *services.ChatService
	contextService *services.ContextService
}

func NewChatHandlers(chatService *services.ChatService, contextService *services.ContextService) *ChatHandlers {
	return &ChatHandlers{
		chatService:    chatService,
		contextService: contextService,
	}
}

// HandleChat processes one chat turn. A request without conversation_id
// starts a new conversation; with one, it continues it.
func (h *ChatHandlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validateUserID(req.UserID); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	message, err := sanitizeMessage(req.Message)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Omitted language means English.
	if req.Language == "" {
		req.Language = models.LanguageEnglish
	}

	var resp *models.ChatResponse
	if req.ConversationID == nil || *req.ConversationID == "" {
		resp, err = h.chatService.StartConversation(r.Context(), req.UserID, message, req.Language)
	} else {
		conversationID, parseErr := uuid.Parse(*req.ConversationID)
		if parseErr != nil {
			httputil.RespondError(w, http.StatusBadRequest, "Invalid conversation ID")
			return
		}
		resp, err = h.chatService.ProcessMessage(r.Context(), conversationID, req.UserID, message, req.Language)
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// New messages obsolete previously extracted context.
	h.contextService.InvalidateContext(resp.ConversationID)

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleListConversations returns the conversations of the user given
// by the user_id query parameter, newest first.
func (h *ChatHandlers) HandleListConversations(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if err := validateUserID(userID); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	conversations, err := h.chatService.GetUserConversations(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := models.ListConversationsResponse{Conversations: []models.ConversationResponse{}}
	for _, conv := range conversations {
		resp.Conversations = append(resp.Conversations, models.ConversationResponse{
			ID:        conv.ID,
			UserID:    conv.UserID,
			Language:  conv.Language,
			Status:    conv.Status,
			Title:     conv.Title,
			CreatedAt: conv.CreatedAt,
			UpdatedAt: conv.UpdatedAt,
		})
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleGetHistory returns a conversation's full message log.
func (h *ChatHandlers) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	conversationID, userID, ok := h.conversationRequest(w, r)
	if !ok {
		return
	}

	messages, err := h.chatService.GetConversationHistory(r.Context(), conversationID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := models.HistoryResponse{ConversationID: conversationID, Messages: []models.MessageResponse{}}
	for _, msg := range messages {
		resp.Messages = append(resp.Messages, models.MessageResponse{
			ID:           msg.ID,
			Role:         msg.Role,
			Content:      msg.Content,
			Language:     msg.Language,
			IsAutomotive: msg.IsAutomotive,
			CreatedAt:    msg.CreatedAt,
		})
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleGetContext returns the comprehensive extracted context for a
// conversation: vehicle, symptoms, technical details, related
// components and the safety assessment.
func (h *ChatHandlers) HandleGetContext(w http.ResponseWriter, r *http.Request) {
	conversationID, userID, ok := h.conversationRequest(w, r)
	if !ok {
		return
	}

	// Ownership is enforced the same way as for history.
	if _, err := h.chatService.GetConversationHistory(r.Context(), conversationID, userID); err != nil {
		respondServiceError(w, err)
		return
	}

	contextResult, err := h.contextService.ExtractComprehensive(r.Context(), conversationID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, contextResult)
}

// conversationRequest parses the conversation ID path parameter and
// the user_id query parameter shared by the read endpoints.
func (h *ChatHandlers) conversationRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, string, bool) {
	conversationID, err := uuid.Parse(chi.URLParam(r, "conversationID"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid conversation ID")
		return uuid.Nil, "", false
	}

	userID := r.URL.Query().Get("user_id")
	if err := validateUserID(userID); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return uuid.Nil, "", false
	}

	return conversationID, userID, true
}

// respondServiceError maps service errors to HTTP statuses. Gateway
// failures surface as 502 with a generic retry message.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrConversationNotFound):
		httputil.RespondError(w, http.StatusNotFound, "Conversation not found")
	case errors.Is(err, llm.ErrUpstream):
		httputil.RespondError(w, http.StatusBadGateway, gatewayUnavailableMessage)
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
