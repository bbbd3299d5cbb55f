// Chat HTTP handlers.
//
// This file exposes the text turn:
//   - POST   /chat   (complete, translate, persist, log)
//
// and holds the service contracts and wiring shared by every handler in the
// package. Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses.
package handlers

import (
	"context"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-voice-chat/internal/domain"
	"github.com/tbourn/go-voice-chat/internal/http/middleware"
	"github.com/tbourn/go-voice-chat/internal/services"
)

//
// Service contracts (context-aware)
//

// ChatService runs text turns.
type ChatService interface {
	// Send completes message, translates the reply into lang, persists the
	// turn and appends it to the session log.
	Send(ctx context.Context, message, lang, idemKey string) (*services.ChatResult, error)
}

// VoiceService runs voice turns.
type VoiceService interface {
	// Ask captures one utterance, completes it and appends the pair to the
	// session log.
	Ask(ctx context.Context) (*domain.LogEntry, error)
}

// HistoryService serves the read-only views.
type HistoryService interface {
	Recent(ctx context.Context, limit int) ([]domain.ChatTurn, error)
	HistoryETag(ctx context.Context) (string, error)
	SessionLog() ([]domain.LogEntry, string)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints. It depends on abstract service
// interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	chatSvc  ChatService
	voiceSvc VoiceService
	histSvc  HistoryService
	page     *template.Template
}

// New constructs a Handlers bound to the given services. page must define
// the "index.html" template.
func New(chatSvc ChatService, voiceSvc VoiceService, histSvc HistoryService, page *template.Template) *Handlers {
	return &Handlers{chatSvc: chatSvc, voiceSvc: voiceSvc, histSvc: histSvc, page: page}
}

//
// DTOs
//

// ChatRequest is the JSON payload for a text turn.
type ChatRequest struct {
	// Message is the user's question.
	Message string `json:"message" example:"Hello"`
	// Language is the BCP 47 tag the reply is translated into (default "en").
	Language string `json:"language" example:"es"`
}

// ChatResponse carries the translated reply, prefixed for display.
type ChatResponse struct {
	Response string `json:"response" example:"<strong>AI Response:</strong> Hola"`
}

// responsePrefix precedes the reply in POST /chat responses.
const responsePrefix = "<strong>AI Response:</strong> "

// headerReplayed marks a response served from an earlier request with the
// same Idempotency-Key.
const headerReplayed = "Idempotency-Replayed"

//
// Handlers
//

// Chat godoc
// @ID          chat
// @Summary     Send a text message
// @Description Completes the message, translates the reply into the requested language,
// @Description stores the turn and appends it to the session log. Supports Idempotency-Key.
// @Tags        Chat
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Makes the request safe to retry"  example(2f1d6c1e-chat-1)
// @Param       body             body    handlers.ChatRequest  true  "Chat payload"
//
// @Success     200  {object}  handlers.ChatResponse
// @Header      200  {string}  Idempotency-Replayed  "true when served from a stored turn"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Storage failure"
// @Failure     502  {object}  handlers.ErrorResponse  "Provider failure"
// @Failure     504  {object}  handlers.ErrorResponse  "Provider timeout"
// @Router      /chat [post]
func (h *Handlers) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)

	res, err := h.chatSvc.Send(c.Request.Context(), req.Message, req.Language, key)
	if err != nil {
		failErr(c, err)
		return
	}
	if res.Replayed {
		c.Header(headerReplayed, "true")
	}
	ok(c, http.StatusOK, ChatResponse{Response: responsePrefix + res.Turn.AIResponse})
}
