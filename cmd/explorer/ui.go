package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/hazyhaar/votemap/pkg/atlas"
	"github.com/hazyhaar/votemap/pkg/render"
	"github.com/hazyhaar/votemap/pkg/tally"
)

var resultColumns = []string{"Canton", "Yes", "No", "Total", "Yes %"}

// view is a built result together with its rendered map.
type view struct {
	result *atlas.Result
	img    image.Image
}

// uiState is only touched on the UI thread; background work reports back
// through fyne.Do.
type uiState struct {
	cfg     atlas.Config
	logger  *slog.Logger
	session *atlas.Session

	w          fyne.Window
	search     *widget.Entry
	list       *widget.List
	mapImg     *canvas.Image
	resTbl     *widget.Table
	statusBind binding.String

	exportBtn  *widget.Button
	refreshBtn *widget.Button

	titles []string
	sel    selection
}

func buildUI(a fyne.App, cfg atlas.Config, logger *slog.Logger) *uiState {
	u := &uiState{cfg: cfg, logger: logger}
	u.w = a.NewWindow("Swiss referendums by canton")

	u.statusBind = binding.NewString()
	_ = u.statusBind.Set("Loading data...")
	status := widget.NewLabelWithData(u.statusBind)
	status.Truncation = fyne.TextTruncateEllipsis

	u.search = widget.NewEntry()
	u.search.SetPlaceHolder("Search referendums")
	u.search.OnChanged = func(q string) { u.filter(q) }

	u.list = widget.NewList(
		func() int { return len(u.titles) },
		func() fyne.CanvasObject {
			lbl := widget.NewLabel("")
			lbl.Truncation = fyne.TextTruncateEllipsis
			return lbl
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < len(u.titles) {
				obj.(*widget.Label).SetText(u.titles[id])
			}
		},
	)
	u.list.OnSelected = func(id widget.ListItemID) {
		if id < len(u.titles) {
			u.show(buildRequest{title: u.titles[id]})
		}
	}

	u.mapImg = canvas.NewImageFromImage(nil)
	u.mapImg.FillMode = canvas.ImageFillContain
	u.mapImg.SetMinSize(fyne.NewSize(480, 320))

	u.resTbl = widget.NewTable(
		func() (int, int) { return u.rowCount() + 1, len(resultColumns) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			lbl := obj.(*widget.Label)
			if id.Row == 0 {
				lbl.TextStyle = fyne.TextStyle{Bold: true}
				lbl.SetText(resultColumns[id.Col])
				return
			}
			lbl.TextStyle = fyne.TextStyle{}
			lbl.SetText(u.cell(id.Row-1, id.Col))
		},
	)
	u.resTbl.SetColumnWidth(0, 180)
	for c := 1; c < len(resultColumns); c++ {
		u.resTbl.SetColumnWidth(c, 90)
	}

	u.exportBtn = widget.NewButtonWithIcon("Export GeoJSON", theme.DocumentSaveIcon(), func() { u.onExport() })
	u.refreshBtn = widget.NewButtonWithIcon("Refresh", theme.ViewRefreshIcon(), func() { u.onRefresh() })
	u.updateButtons()

	left := container.NewBorder(u.search, nil, nil, nil, u.list)
	right := container.NewVSplit(u.mapImg, u.resTbl)
	right.Offset = 0.65
	split := container.NewHSplit(left, right)
	split.Offset = 0.32

	toolbar := container.NewHBox(u.exportBtn, u.refreshBtn)
	u.w.SetContent(container.NewBorder(toolbar, status, nil, nil, split))
	u.w.Resize(fyne.NewSize(1100, 750))
	return u
}

func (u *uiState) setStatus(text string) {
	_ = u.statusBind.Set(text)
}

// updateButtons enables the actions once data is loaded and no job runs.
func (u *uiState) updateButtons() {
	if u.sel.busy || u.session == nil {
		u.exportBtn.Disable()
		u.refreshBtn.Disable()
		return
	}
	u.exportBtn.Enable()
	u.refreshBtn.Enable()
}

// load provisions and parses the inputs off the UI thread.
func (u *uiState) load() {
	cfg, logger := u.cfg, u.logger
	atlas.Go(func() (*atlas.Session, error) {
		d, err := atlas.Load(context.Background(), cfg, logger)
		if err != nil {
			return nil, err
		}
		return atlas.NewSession(d, logger), nil
	}).Then(fyne.Do, func(s *atlas.Session, err error) {
		if err != nil {
			u.logger.Error("load failed", "error", err)
			u.setStatus("Load failed: " + err.Error())
			dialog.ShowError(err, u.w)
			return
		}
		u.session = s
		u.titles = s.Titles()
		u.list.Refresh()
		u.updateButtons()
		u.setStatus(fmt.Sprintf("Loaded %d referendums", len(u.titles)))
	})
}

func (u *uiState) filter(q string) {
	if u.session == nil {
		return
	}
	u.titles = u.session.Search(q)
	u.list.UnselectAll()
	u.list.Refresh()
}

// show selects r.title and builds it in the background. While another job
// runs the request is queued and started when that job ends.
func (u *uiState) show(r buildRequest) {
	if u.session == nil {
		return
	}
	if !u.sel.request(r) {
		u.setStatus("Busy, " + r.title + " will be built next")
		return
	}
	u.run(r)
}

func (u *uiState) run(r buildRequest) {
	u.updateButtons()
	u.setStatus("Building " + r.title + "...")
	s := u.session
	atlas.Go(func() (view, error) {
		return renderView(s, r.title, r.refresh)
	}).Then(fyne.Do, func(v view, err error) {
		next, queued := u.sel.built(r.title, v.result, err)
		u.present(v.img)
		switch {
		case err != nil:
			u.logger.Warn("build failed", "title", r.title, "error", err)
			u.setStatus("Error: " + err.Error())
		case u.sel.current != nil:
			u.setStatus(renderedStatus(u.sel.current))
		}
		u.resume(next, queued)
	})
}

// present shows img when the selection has a result and clears the map
// otherwise.
func (u *uiState) present(img image.Image) {
	if u.sel.current == nil {
		img = nil
	}
	u.mapImg.Image = img
	u.mapImg.Refresh()
	u.resTbl.Refresh()
}

func (u *uiState) resume(next buildRequest, queued bool) {
	if queued {
		u.run(next)
		return
	}
	u.updateButtons()
}

func renderView(s *atlas.Session, title string, refresh bool) (view, error) {
	var (
		r   *atlas.Result
		err error
	)
	if refresh {
		r, err = s.Refresh(title)
	} else {
		r, err = s.Result(title)
	}
	if err != nil {
		return view{}, err
	}
	var buf bytes.Buffer
	if err := s.RenderPNG(&buf, title, render.Options{}); err != nil {
		return view{}, err
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return view{}, fmt.Errorf("decode map: %w", err)
	}
	return view{result: r, img: img}, nil
}

func (u *uiState) onRefresh() {
	r, err := u.sel.refresh()
	if err != nil {
		u.setStatus(err.Error())
		return
	}
	u.show(r)
}

func (u *uiState) onExport() {
	res, err := u.sel.exportable()
	if err != nil {
		u.setStatus(err.Error())
		return
	}
	u.updateButtons()
	path := u.cfg.GeoJSONPath
	if _, err := os.Stat(path); err == nil {
		dialog.ShowConfirm("Overwrite file?", path+" already exists. Replace it?", func(ok bool) {
			if ok {
				u.export(res.Title, path)
				return
			}
			u.resume(u.sel.release())
		}, u.w)
		return
	}
	u.export(res.Title, path)
}

func (u *uiState) export(title, path string) {
	s := u.session
	atlas.Go(func() (string, error) {
		return s.ExportGeoJSON(title, path)
	}).Then(fyne.Do, func(written string, err error) {
		if err != nil {
			u.logger.Error("export failed", "path", path, "error", err)
			dialog.ShowError(err, u.w)
		} else {
			u.logger.Info("exported", "title", title, "path", written)
			u.setStatus("Exported to " + written)
		}
		u.resume(u.sel.release())
	})
}

func (u *uiState) rowCount() int {
	if u.sel.current == nil {
		return 0
	}
	return len(u.sel.current.Rows)
}

func (u *uiState) cell(row, col int) string {
	cur := u.sel.current
	if cur == nil || row >= len(cur.Rows) {
		return ""
	}
	return cellText(cur.Rows[row], col)
}

func cellText(m tally.RegionMetrics, col int) string {
	switch col {
	case 0:
		if m.Recovered {
			return m.RegionKey + " *"
		}
		return m.RegionKey
	case 1:
		return dash(m.Yes)
	case 2:
		return dash(m.No)
	case 3:
		return dash(m.Total)
	case 4:
		if !m.YesPct.Valid {
			return "-"
		}
		return fmt.Sprintf("%.1f", m.YesPct.Float)
	}
	return ""
}

func dash(v tally.Value) string {
	if !v.Valid {
		return "-"
	}
	return v.String()
}

// yesRange is the lowest and highest yes share among rows that have one.
func yesRange(rows []tally.RegionMetrics) (lo, hi float64, err error) {
	found := false
	for _, r := range rows {
		if !r.YesPct.Valid {
			continue
		}
		if !found || r.YesPct.Float < lo {
			lo = r.YesPct.Float
		}
		if !found || r.YesPct.Float > hi {
			hi = r.YesPct.Float
		}
		found = true
	}
	if !found {
		return 0, 0, errors.New("no yes share")
	}
	return lo, hi, nil
}

func renderedStatus(r *atlas.Result) string {
	lo, hi, err := yesRange(r.Rows)
	if err != nil {
		return "Rendered: " + r.Title + " (no yes share)"
	}
	msg := fmt.Sprintf("Rendered: %s (YES range %.1f-%.1f%%)", r.Title, lo, hi)
	if len(r.Gaps) > 0 {
		msg += fmt.Sprintf(", no data for %d cantons", len(r.Gaps))
	}
	return msg
}
