package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
)

// indexTemplate is the landing page template name.
const indexTemplate = "index.html"

// Index godoc
// @ID          index
// @Summary     Landing page
// @Description Renders the chat page.
// @Tags        Page
// @Produce     html
//
// @Success     200  {string}  string  "HTML page"
// @Failure     500  {object}  handlers.ErrorResponse  "Render failure"
// @Router      / [get]
func (h *Handlers) Index(c *gin.Context) {
	// Render into a buffer so a template error still yields a clean 500.
	var buf bytes.Buffer
	if h.page == nil {
		fail(c, http.StatusInternalServerError, ErrCodeRenderFailed, "page template not loaded")
		return
	}
	if err := h.page.ExecuteTemplate(&buf, indexTemplate, nil); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeRenderFailed, err.Error())
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
