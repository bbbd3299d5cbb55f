// History HTTP handlers.
//
//   - GET /history   (stored turns, newest first, ETag support)
//   - GET /log       (session log in append order, ETag support)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-voice-chat/internal/domain"
	"github.com/tbourn/go-voice-chat/internal/services"
	"github.com/tbourn/go-voice-chat/internal/utils"
)

// HistoryResponse lists stored turns as [user_message, ai_response] pairs.
type HistoryResponse struct {
	History [][2]string `json:"history"`
}

// LogResponse lists the session log.
type LogResponse struct {
	Log []domain.LogEntry `json:"log"`
}

// History godoc
// @ID          history
// @Summary     Recent stored turns
// @Description Returns up to 10 stored turns, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        History
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"history:3:3\")
// @Param       limit          query   int     false "Number of turns"             minimum(1) maximum(10) default(10)
//
// @Success     200  {object} handlers.HistoryResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Storage failure"
// @Router      /history [get]
func (h *Handlers) History(c *gin.Context) {
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if etag, err := h.histSvc.HistoryETag(ctx); err == nil && notModified(c, etag) {
		return
	}

	limit := utils.AtoiDefault(c.Query("limit"), services.MaxHistory)
	turns, err := h.histSvc.Recent(ctx, limit)
	if err != nil {
		c.Writer.Header().Del("ETag")
		failErr(c, err)
		return
	}

	pairs := make([][2]string, 0, len(turns))
	for _, t := range turns {
		pairs = append(pairs, t.Pair())
	}
	ok(c, http.StatusOK, HistoryResponse{History: pairs})
}

// Log godoc
// @ID          sessionLog
// @Summary     Session log
// @Description Returns every turn served by this process, text and voice, in append order.
// @Tags        History
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"log:4\")
//
// @Success     200  {object} handlers.LogResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Router      /log [get]
func (h *Handlers) Log(c *gin.Context) {
	entries, etag := h.histSvc.SessionLog()
	if notModified(c, etag) {
		return
	}
	if entries == nil {
		entries = []domain.LogEntry{}
	}
	ok(c, http.StatusOK, LogResponse{Log: entries})
}
