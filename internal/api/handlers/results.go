package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/timeseries-dashboard/internal/logging"
	"github.com/irfndi/timeseries-dashboard/internal/middleware"
	"github.com/irfndi/timeseries-dashboard/internal/render"
	"github.com/irfndi/timeseries-dashboard/internal/services"
	"github.com/irfndi/timeseries-dashboard/internal/session"
	"github.com/irfndi/timeseries-dashboard/internal/tabs"
	"github.com/irfndi/timeseries-dashboard/internal/telemetry"
)

// ResultsHandler renders the dashboard for the session's current results.
type ResultsHandler struct {
	store         session.Store
	normalizer    *services.Normalizer
	iteration     *services.IterationService
	layouts       *render.Layouts
	defaultLayout string
	renderers     []render.Renderer
	router        *tabs.Router
	tracer        *telemetry.AnalysisTracer
	logger        logging.Logger
}

type tabView struct {
	ID     string
	Label  string
	URL    string
	Active bool
}

type panelView struct {
	render.Panel
	Active bool
}

type layoutLink struct {
	Name   string
	URL    string
	Active bool
}

// resultsPage is the per-request view of one rendered dashboard.
type resultsPage struct {
	Title        string
	HasResults   bool
	RenderError  bool
	Layouts      []layoutLink
	Tabs         []tabView
	Panels       []panelView
	SubTabs      []tabView
	SubPanels    []panelView
	CanonicalURL string
}

func NewResultsHandler(
	store session.Store,
	normalizer *services.Normalizer,
	iteration *services.IterationService,
	layouts *render.Layouts,
	defaultLayout string,
	opts render.Options,
	logger logging.Logger,
) *ResultsHandler {
	return &ResultsHandler{
		store:         store,
		normalizer:    normalizer,
		iteration:     iteration,
		layouts:       layouts,
		defaultLayout: defaultLayout,
		renderers:     render.NewRenderers(opts),
		router:        tabs.NewRouter(),
		tracer:        telemetry.NewAnalysisTracer(),
		logger:        logger,
	}
}

// layoutFor picks the requested variant, falling back to the default.
func (h *ResultsHandler) layoutFor(name string) *render.Layout {
	if layout, ok := h.layouts.Variant(name); ok {
		return layout
	}
	if layout, ok := h.layouts.Variant(h.defaultLayout); ok {
		return layout
	}
	layout, _ := h.layouts.Variant(h.layouts.Names()[0])
	return layout
}

// Show renders the dashboard. Absent or unreadable results show the empty state.
func (h *ResultsHandler) Show(c *gin.Context) {
	sid := middleware.SessionID(c)
	layout := h.layoutFor(c.Query("layout"))

	raw, ok := session.LoadRawResponse(c.Request.Context(), h.store, sid, h.logger.WithSession(sid))
	if !ok {
		c.HTML(http.StatusOK, pageResults, resultsPage{Title: layout.Title})
		return
	}

	ctx, span := middleware.StartSpan(c, telemetry.GetRenderTracer(), "results.render")
	defer span.End()
	_, sentrySpan := h.tracer.TraceRenderPass(ctx, layout.Name)
	defer sentrySpan.Finish()

	start := time.Now()
	processed := h.normalizer.Normalize(raw)
	doc := render.NewDocument(layout)
	renderErr := render.RenderAll(doc, processed, raw, h.renderers)
	duration := time.Since(start)

	path := "derived"
	if _, ok := raw.Object("processed_results"); ok {
		path = "server"
	}
	h.tracer.RecordRenderOutcome(sentrySpan, telemetry.RenderOutcome{
		Sections:         len(h.renderers),
		FilledContainers: doc.Filled(),
		Duration:         duration,
		Err:              renderErr,
	})
	middleware.AddSpanAttribute(c, "results.layout", layout.Name)
	middleware.AddSpanAttribute(c, "results.path", path)
	middleware.AddSpanAttribute(c, "results.filled_containers", doc.Filled())
	middleware.AddSpanAttribute(c, "results.tab", c.Query("tab"))
	h.logger.LogRenderPass(layout.Name, path, len(h.renderers), duration.Milliseconds())
	if renderErr != nil {
		telemetry.RecordError(span, renderErr)
		telemetry.CaptureException(ctx, renderErr)
		h.logger.WithSession(sid).Error("Failed to render results sections", "error", renderErr.Error())
	}

	page := h.buildPage(c.Request.URL, doc, c.Query("tab"))
	page.HasResults = true
	page.RenderError = renderErr != nil
	c.HTML(http.StatusOK, pageResults, page)
}

// buildPage lays out tabs and panels, applying the tab query parameter.
func (h *ResultsHandler) buildPage(current *url.URL, doc *render.Document, tabParam string) resultsPage {
	set := doc.Layout().TabSet()
	page := resultsPage{Title: doc.Title()}

	if nav, ok := h.router.Resolve(tabParam); ok {
		queue := &tabs.TickQueue{}
		if h.router.Apply(set, nav, queue) {
			queue.Drain()
			canonical := nav.Tab
			if nav.SubTab != "" {
				canonical = nav.SubTab
			}
			if canonical != tabParam {
				page.CanonicalURL = h.router.URLFor(current, canonical)
			}
		}
	}

	for _, name := range h.layouts.Names() {
		page.Layouts = append(page.Layouts, layoutLink{
			Name:   name,
			URL:    withQuery(current, "layout", name),
			Active: name == doc.Variant(),
		})
	}

	for _, t := range set.Top() {
		page.Tabs = append(page.Tabs, tabView{ID: t.ID, Label: t.Label, URL: h.router.URLFor(current, t.ID), Active: t.Active})
	}
	for _, p := range doc.Panels() {
		page.Panels = append(page.Panels, panelView{Panel: p, Active: set.IsActive(p.TabID)})
	}
	for _, t := range set.Children(tabs.DataLineage) {
		page.SubTabs = append(page.SubTabs, tabView{ID: t.ID, Label: t.Label, URL: h.router.URLFor(current, t.ID), Active: t.Active})
	}
	for _, p := range doc.SubPanels() {
		sub := set.Get(p.TabID)
		page.SubPanels = append(page.SubPanels, panelView{Panel: p, Active: sub != nil && sub.Active})
	}
	return page
}

// Iterate hands the current run's configuration to the analysis form.
func (h *ResultsHandler) Iterate(c *gin.Context) {
	sid := middleware.SessionID(c)
	if err := h.iteration.Capture(c.Request.Context(), sid); err != nil {
		if errors.Is(err, services.ErrNoExecutionConfiguration) {
			abortJSON(c, http.StatusNotFound, err.Error(), nil)
			return
		}
		abortJSON(c, http.StatusInternalServerError, "failed to store iteration config", err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/analysis/")
}

func withQuery(current *url.URL, key, value string) string {
	u := *current
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	u.Fragment = ""
	if u.Host == "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.String()
}
