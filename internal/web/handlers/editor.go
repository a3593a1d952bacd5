package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/patternlab/internal/catalog"
	"github.com/yungbote/patternlab/internal/domain"
	"github.com/yungbote/patternlab/internal/services"
)

// EditorFlow is a challenge page flow: practice or daily.
type EditorFlow interface {
	Open(ctx context.Context) (services.Editor, error)
	Current(ctx context.Context) (services.Editor, error)
	SelectPattern(ctx context.Context, name string) (services.Editor, error)
	SelectLanguage(ctx context.Context, lang domain.Language) (services.Editor, error)
	EditCode(ctx context.Context, code string) (services.Editor, error)
	Submit(ctx context.Context) (services.Editor, error)
	Results(ctx context.Context) (domain.Submission, error)
}

// EditorHandler serves one challenge page mounted at base. Every POST ends in
// a redirect back to the page, or to its results after a submit.
type EditorHandler struct {
	render  *Renderer
	flow    EditorFlow
	catalog *catalog.Catalog
	base    string
	title   string
	nav     string
	// canGenerate offers "new challenge" once the current one is submitted.
	canGenerate bool
}

func (h *EditorHandler) page(ed services.Editor) page {
	p := h.render.base(h.title, h.nav)
	p.Editor = ed
	p.BaseURL = h.base
	p.Languages = domain.Languages
	p.CanGenerate = h.canGenerate
	if h.catalog != nil {
		if pat, ok := h.catalog.ByName(ed.SelectedPatternName); ok {
			p.Pattern = &pat
		}
	}
	return p
}

func (h *EditorHandler) Show(c *gin.Context) {
	ed, err := h.flow.Open(c.Request.Context())
	if err != nil {
		h.render.fail(c, err, "editor.html", h.page(ed))
		return
	}
	h.render.html(c, http.StatusOK, "editor.html", h.page(ed))
}

// apply runs one state change and redirects back to the page on success.
func (h *EditorHandler) apply(c *gin.Context, next string, fn func(ctx context.Context) (services.Editor, error)) {
	ed, err := fn(c.Request.Context())
	if err != nil {
		h.render.fail(c, err, "editor.html", h.page(ed))
		return
	}
	c.Redirect(http.StatusSeeOther, next)
}

func (h *EditorHandler) SelectPattern(c *gin.Context) {
	name := c.PostForm("pattern")
	h.apply(c, h.base, func(ctx context.Context) (services.Editor, error) {
		return h.flow.SelectPattern(ctx, name)
	})
}

func (h *EditorHandler) SelectLanguage(c *gin.Context) {
	lang, ok := domain.ParseLanguage(c.PostForm("language"))
	h.apply(c, h.base, func(ctx context.Context) (services.Editor, error) {
		if !ok {
			ed, _ := h.flow.Current(ctx)
			return ed, services.ErrUnknownLanguage
		}
		return h.flow.SelectLanguage(ctx, lang)
	})
}

func (h *EditorHandler) EditCode(c *gin.Context) {
	code := c.PostForm("code")
	h.apply(c, h.base, func(ctx context.Context) (services.Editor, error) {
		return h.flow.EditCode(ctx, code)
	})
}

// Submit saves the posted code, when present, then submits it.
func (h *EditorHandler) Submit(c *gin.Context) {
	code, hasCode := c.GetPostForm("code")
	h.apply(c, h.base+"/results", func(ctx context.Context) (services.Editor, error) {
		if hasCode {
			ed, err := h.flow.Current(ctx)
			if err != nil {
				return ed, err
			}
			if ed.Challenge != nil && !ed.Submitted {
				if ed, err = h.flow.EditCode(ctx, code); err != nil {
					return ed, err
				}
			}
		}
		return h.flow.Submit(ctx)
	})
}

func (h *EditorHandler) Results(c *gin.Context) {
	sub, err := h.flow.Results(c.Request.Context())
	p := h.render.base("Resultado da Submissão", h.nav)
	p.BackURL = h.base
	if err != nil {
		h.render.fail(c, err, "results.html", p)
		return
	}
	p.Result = &sub
	h.render.html(c, http.StatusOK, "results.html", p)
}

type PracticeHandler struct {
	EditorHandler
	practice *services.PracticeService
}

func NewPracticeHandler(render *Renderer, practice *services.PracticeService, cat *catalog.Catalog) *PracticeHandler {
	return &PracticeHandler{
		EditorHandler: EditorHandler{render: render, flow: practice, catalog: cat, base: "/practice", title: "Practice", nav: "practice", canGenerate: true},
		practice:      practice,
	}
}

func (h *PracticeHandler) Generate(c *gin.Context) {
	ed, err := h.practice.Generate(c.Request.Context())
	if err != nil {
		h.render.fail(c, err, "editor.html", h.page(ed))
		return
	}
	c.Redirect(http.StatusSeeOther, h.base)
}

func NewDailyHandler(render *Renderer, daily *services.DailyService, cat *catalog.Catalog) *EditorHandler {
	return &EditorHandler{render: render, flow: daily, catalog: cat, base: "/daily-challenge", title: "Desafio Diário", nav: "daily"}
}
