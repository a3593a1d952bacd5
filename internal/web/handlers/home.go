package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/patternlab/internal/errmsg"
	"github.com/yungbote/patternlab/internal/services"
)

type HomeHandler struct {
	render *Renderer
	home   *services.HomeService
}

func NewHomeHandler(render *Renderer, home *services.HomeService) *HomeHandler {
	return &HomeHandler{render: render, home: home}
}

// Dashboard renders the statistics. A failed lookup shows zeros under an
// alert rather than an error page.
func (h *HomeHandler) Dashboard(c *gin.Context) {
	p := h.render.base("Home", "home")
	stats, err := h.home.Statistics(c.Request.Context())
	if err != nil {
		if sessionGone(err) {
			c.Redirect(http.StatusSeeOther, LoginPath)
			return
		}
		errmsg.LogDetails(h.render.log, "statistics", err)
		p.Alert = h.render.msgs.Text("page.stats_failed") + ": " + h.render.msgs.Format(err)
		p.AlertCode = classify(err).Code
	}
	p.Stats = stats
	h.render.html(c, http.StatusOK, "home.html", p)
}
