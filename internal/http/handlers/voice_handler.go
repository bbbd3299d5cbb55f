package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// VoiceResponse carries the completion for a spoken question.
type VoiceResponse struct {
	Response string `json:"response" example:"It is 3 PM."`
}

// Voice godoc
// @ID          voice
// @Summary     Ask by voice
// @Description Captures one utterance from the server microphone, completes it and appends
// @Description the pair to the session log. Voice turns are not stored.
// @Tags        Voice
// @Produce     json
//
// @Success     200  {object}  handlers.VoiceResponse
// @Failure     409  {object}  handlers.ErrorResponse  "Microphone busy"
// @Failure     422  {object}  handlers.ErrorResponse  "Speech not understood"
// @Failure     502  {object}  handlers.ErrorResponse  "Provider failure"
// @Failure     503  {object}  handlers.ErrorResponse  "Capture failure"
// @Failure     504  {object}  handlers.ErrorResponse  "Provider timeout"
// @Router      /voice [post]
func (h *Handlers) Voice(c *gin.Context) {
	entry, err := h.voiceSvc.Ask(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, VoiceResponse{Response: entry.AI})
}
