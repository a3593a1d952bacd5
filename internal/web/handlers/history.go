package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/patternlab/internal/services"
)

type HistoryHandler struct {
	render  *Renderer
	history *services.HistoryService
}

func NewHistoryHandler(render *Renderer, history *services.HistoryService) *HistoryHandler {
	return &HistoryHandler{render: render, history: history}
}

// List renders ?page=n (zero-based). A missing or malformed page is 0.
func (h *HistoryHandler) List(c *gin.Context) {
	n, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		n = 0
	}
	p := h.render.base("My Challenges", "challenges")
	pg, err := h.history.Page(c.Request.Context(), n)
	if err != nil {
		h.render.fail(c, err, "challenges.html", p)
		return
	}
	p.History = pg
	h.render.html(c, http.StatusOK, "challenges.html", p)
}

func (h *HistoryHandler) Submission(c *gin.Context) {
	p := h.render.base("Resultado da Submissão", "challenges")
	p.BackURL = "/challenges"
	sub, err := h.history.LatestSubmission(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.render.fail(c, err, "results.html", p)
		return
	}
	p.Result = &sub
	h.render.html(c, http.StatusOK, "results.html", p)
}
