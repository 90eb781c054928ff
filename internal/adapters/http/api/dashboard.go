// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/winequality/internal/classifier"
	"github.com/okian/winequality/internal/domain/features"
	"github.com/okian/winequality/internal/presenter"
	"github.com/okian/winequality/pkg/logger"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const dashboardTemplate = "dashboard.html.tmpl"

// Chart geometry, in SVG user units.
const (
	chartWidth     = 480
	chartHeight    = 300
	chartPadLeft   = 48
	chartPadRight  = 16
	chartPadTop    = 24
	chartPadBottom = 36
	chartBarWidth  = 120
)

// dashboardHandler renders the single page: form, results and sidebar.
type dashboardHandler struct {
	server *Server
	tmpl   *template.Template
}

func newDashboardHandler(s *Server) (*dashboardHandler, error) {
	tmpl, err := template.New(dashboardTemplate).ParseFS(templateFS, "templates/"+dashboardTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse dashboard template: %w", err)
	}
	return &dashboardHandler{server: s, tmpl: tmpl}, nil
}

type formField struct {
	Name  string
	Label string
	Help  string
	Min   string
	Max   string
	Step  string
	Value string
}

type fieldGroup struct {
	Title  string
	Fields []formField
}

type chartTick struct {
	Y     string
	Label string
}

type chartBar struct {
	X, Y, Width, Height string
	CenterX, LabelY     string
	Color               string
	Category            string
	Percent             string
}

type chartView struct {
	Width, Height       int
	PlotLeft, PlotRight int
	Baseline            int
	CategoryY           int
	Ticks               []chartTick
	Bars                []chartBar
}

type pageData struct {
	Groups     []fieldGroup
	Report     *presenter.Report
	Chart      *chartView
	InputError string
	Model      *classifier.Info
	Lang       string
}

// HandleDashboard handles GET / with the default form.
func (h *dashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
		http.NotFound(w, r)
		return
	}
	tag := h.server.negotiate("", r)
	h.render(w, r, http.StatusOK, h.page(formValues(features.Defaults().Values()), tag.String()))
}

// HandleAnalyzeForm handles POST /analyze. Refused input re-renders the form
// with what the user typed; a result replaces any previous one.
func (h *dashboardHandler) HandleAnalyzeForm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()
	tag := h.server.negotiate("", r)

	r.Body = http.MaxBytesReader(w, r.Body, h.server.maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		status, msg := http.StatusBadRequest, err.Error()
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			status, msg = http.StatusRequestEntityTooLarge, ErrPayloadTooLarge.Error()
		}
		data := h.page(formValues(features.Defaults().Values()), tag.String())
		data.InputError = msg
		h.render(w, r, status, data)
		return
	}

	typed := rawFormValues(r.PostForm)
	values, err := features.ParseForm(r.PostForm)
	if err == nil {
		var (
			report presenter.Report
			v      features.Vector
		)
		if report, v, err = h.server.analyze(ctx, values, tag); err == nil {
			data := h.page(formValues(v.Values()), tag.String())
			data.Report = &report
			if report.OK() {
				data.Chart = buildChart(report.Chart)
			}
			h.render(w, r, http.StatusOK, data)
			return
		}
	}
	data := h.page(typed, tag.String())
	data.InputError = err.Error()
	h.render(w, r, http.StatusBadRequest, data)
}

func (h *dashboardHandler) page(values map[string]string, lang string) pageData {
	data := pageData{Groups: fieldGroups(values), Lang: lang}
	if info, ok := h.server.deps.ModelInfo(); ok {
		data.Model = &info
	}
	return data
}

func (h *dashboardHandler) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, data); err != nil {
		h.server.logger.Error(r.Context(), "failed to render dashboard", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		_, _ = w.Write(buf.Bytes())
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formValues(values features.Values) map[string]string {
	out := make(map[string]string, len(values))
	for f, v := range values {
		out[f.String()] = formatNumber(v)
	}
	return out
}

func rawFormValues(form url.Values) map[string]string {
	out := make(map[string]string, features.Count)
	for _, s := range features.Specs() {
		out[s.Name] = strings.TrimSpace(form.Get(s.Name))
	}
	return out
}

func fieldGroups(values map[string]string) []fieldGroup {
	basic := fieldGroup{Title: "Basic Properties"}
	advanced := fieldGroup{Title: "Advanced Properties"}
	for _, s := range features.Specs() {
		ff := formField{
			Name:  s.Name,
			Label: s.DisplayLabel(),
			Help:  s.Help,
			Min:   formatNumber(s.Min),
			Max:   formatNumber(s.Max),
			Step:  formatNumber(s.Step),
			Value: values[s.Name],
		}
		if s.Group == "basic" {
			basic.Fields = append(basic.Fields, ff)
		} else {
			advanced.Fields = append(advanced.Fields, ff)
		}
	}
	return []fieldGroup{basic, advanced}
}

// buildChart lays out one vertical bar per category on a 0..1 axis.
func buildChart(bars []presenter.Bar) *chartView {
	plotH := float64(chartHeight - chartPadTop - chartPadBottom)
	baseline := chartHeight - chartPadBottom
	c := &chartView{
		Width:     chartWidth,
		Height:    chartHeight,
		PlotLeft:  chartPadLeft,
		PlotRight: chartWidth - chartPadRight,
		Baseline:  baseline,
		CategoryY: baseline + 20,
	}
	for _, t := range []float64{0, 0.25, 0.5, 0.75, 1} {
		c.Ticks = append(c.Ticks, chartTick{
			Y:     svgNum(float64(baseline) - t*plotH),
			Label: strconv.FormatFloat(t, 'f', 2, 64),
		})
	}
	if len(bars) == 0 {
		return c
	}
	slot := float64(chartWidth-chartPadLeft-chartPadRight) / float64(len(bars))
	for i, b := range bars {
		p := min(max(b.Probability, 0), 1)
		x := float64(chartPadLeft) + float64(i)*slot + (slot-chartBarWidth)/2
		h := p * plotH
		y := float64(baseline) - h
		c.Bars = append(c.Bars, chartBar{
			X:        svgNum(x),
			Y:        svgNum(y),
			Width:    svgNum(chartBarWidth),
			Height:   svgNum(h),
			CenterX:  svgNum(x + chartBarWidth/2),
			LabelY:   svgNum(y - 6),
			Color:    b.Color,
			Category: b.Category,
			Percent:  b.Percent,
		})
	}
	return c
}

func svgNum(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
