package server

import (
	"context"
	"sort"

	"overworld-server/internal/engine"
	"overworld-server/internal/version"
	"overworld-server/pkg/api"
	"overworld-server/pkg/logger"

	"github.com/cloudwego/hertz/pkg/app"
	hzserver "github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// Debug предоставляет доступ к внутреннему состоянию мира.
// Отдельный порт: только чтение, наружу не публикуется.
type Debug struct {
	Service *engine.Service

	h *hzserver.Hertz
}

func NewDebug(svc *engine.Service, port string) *Debug {
	d := &Debug{Service: svc}
	d.h = hzserver.Default(hzserver.WithHostPorts(":" + port))
	d.RegisterRoutes(d.h)
	return d
}

// RegisterRoutes регистрирует debug-эндпоинты
func (d *Debug) RegisterRoutes(h *hzserver.Hertz) {
	h.GET("/health", d.health)
	h.GET("/version", d.version)

	g := h.Group("/debug")
	g.GET("/maps", d.maps)
	g.GET("/sprites", d.sprites)
	g.GET("/doors", d.doors)
	g.GET("/report", d.report)
}

// Run блокируется до Shutdown
func (d *Debug) Run() error {
	logger.For("debug").Info("Debug API starting")
	return d.h.Run()
}

func (d *Debug) Shutdown(ctx context.Context) error {
	return d.h.Shutdown(ctx)
}

type mapSummary struct {
	Name    string `json:"name"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Sprites int    `json:"sprites"`
	Doors   int    `json:"doors"`
}

type doorView struct {
	ID          string  `json:"id"`
	Map         string  `json:"map"`
	Orientation string  `json:"orientation"`
	Side        string  `json:"side"`
	Pos         int     `json:"pos"`
	Size        int     `json:"size"`
	Line        float64 `json:"line"`
	Destination string  `json:"destination"`
}

type reportView struct {
	engine.Report
	Errors map[string]string `json:"errors,omitempty"`
}

func (d *Debug) health(_ context.Context, ctx *app.RequestContext) {
	ctx.String(consts.StatusOK, "ok")
}

func (d *Debug) version(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, version.Info())
}

// /debug/maps - карты и сколько на них спрайтов и дверей
func (d *Debug) maps(_ context.Context, ctx *app.RequestContext) {
	w := d.Service.World

	doors := make(map[string]int)
	for _, dr := range w.Linkage.All() {
		if m, ok := w.Registry.Map(dr.Map); ok {
			doors[m.Name]++
		}
	}

	out := make([]mapSummary, 0)
	for _, h := range w.Registry.MapHandles() {
		m, ok := w.Registry.Map(h)
		if !ok {
			continue
		}
		out = append(out, mapSummary{
			Name:    m.Name,
			Width:   m.Width,
			Height:  m.Height,
			Sprites: len(w.OnMap(h)),
			Doors:   doors[m.Name],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	ctx.JSON(consts.StatusOK, out)
}

// /debug/sprites?map=town - спрайты карты (без параметра - все)
func (d *Debug) sprites(_ context.Context, ctx *app.RequestContext) {
	w := d.Service.World
	out := make([]api.SpriteView, 0)

	name := string(ctx.Query("map"))
	if name == "" {
		for _, sp := range w.Sprites() {
			out = append(out, d.Service.SpriteView(sp))
		}
		ctx.JSON(consts.StatusOK, out)
		return
	}

	h, _, ok := w.MapByName(name)
	if !ok {
		ctx.JSON(consts.StatusNotFound, map[string]string{"error": "map " + name + " not found"})
		return
	}
	for _, sp := range w.OnMap(h) {
		out = append(out, d.Service.SpriteView(sp))
	}
	ctx.JSON(consts.StatusOK, out)
}

// /debug/doors - вся арена дверей с именами карт
func (d *Debug) doors(_ context.Context, ctx *app.RequestContext) {
	w := d.Service.World
	out := make([]doorView, 0)

	for _, dr := range w.Linkage.All() {
		v := doorView{
			ID:          dr.ID.String(),
			Orientation: dr.Orientation.String(),
			Side:        dr.Side.String(),
			Pos:         dr.Pos,
			Size:        dr.Size,
			Line:        dr.Line,
			Destination: dr.Destination.String(),
		}
		if m, ok := w.Registry.Map(dr.Map); ok {
			v.Map = m.Name
		}
		out = append(out, v)
	}
	ctx.JSON(consts.StatusOK, out)
}

// /debug/report - итог последнего тика
func (d *Debug) report(_ context.Context, ctx *app.RequestContext) {
	r := d.Service.LastReport()
	v := reportView{Report: r}
	if len(r.Errors) > 0 {
		v.Errors = make(map[string]string, len(r.Errors))
		for name, err := range r.Errors {
			v.Errors[name] = err.Error()
		}
	}
	ctx.JSON(consts.StatusOK, v)
}
