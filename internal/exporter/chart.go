package exporter

import (
	"bytes"
	"html/template"
	"image/color"
	"io"
	"log/slog"
	"os"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgsvg"

	"bandicli/internal/config"
	apperrors "bandicli/internal/errors"
	"bandicli/internal/validation"
	"bandicli/pkg/contracts/domain"
)

// Trace colors
var (
	historyColor  = color.RGBA{R: 65, G: 105, B: 225, A: 255} // royalblue
	forecastColor = color.RGBA{R: 0, G: 0, B: 139, A: 255}    // darkblue
	intervalColor = color.NRGBA{R: 135, G: 206, B: 250, A: 77}
)

// ChartOptions configures the chart page
type ChartOptions struct {
	Title  string
	Width  int
	Height int
}

// ChartRenderer draws the forecast chart and writes it as a standalone HTML page
type ChartRenderer struct {
	opts      ChartOptions
	validator *validation.FileValidator
	logger    *slog.Logger
}

// NewChartRenderer creates a renderer. Zero options fall back to the standard title and canvas size.
func NewChartRenderer(opts ChartOptions, logger *slog.Logger) *ChartRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Title == "" {
		opts.Title = config.ChartTitle
	}
	if opts.Width <= 0 {
		opts.Width = config.ChartWidth
	}
	if opts.Height <= 0 {
		opts.Height = config.ChartHeight
	}
	return &ChartRenderer{
		opts:      opts,
		validator: validation.NewFileValidator(logger),
		logger:    logger,
	}
}

// Render writes the chart for history and the full forecast to path, replacing any existing file
func (r *ChartRenderer) Render(path string, history []domain.TimeSeriesPoint, forecast []domain.ForecastPoint) error {
	if err := r.validator.ValidateOutputFile(path); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := r.WriteHTML(&buf, history, forecast); err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return apperrors.NewStorageError("failed to write chart "+path, err)
	}

	r.logger.Info("Chart written",
		slog.String("path", path),
		slog.Int("history_points", len(history)),
		slog.Int("forecast_points", len(forecast)),
		slog.Int("bytes", buf.Len()))
	return nil
}

// WriteHTML renders the chart page to w
func (r *ChartRenderer) WriteHTML(w io.Writer, history []domain.TimeSeriesPoint, forecast []domain.ForecastPoint) error {
	if len(forecast) == 0 {
		return apperrors.NewRenderError("nothing to plot: forecast is empty", nil)
	}

	p, err := r.buildPlot(history, forecast)
	if err != nil {
		return err
	}

	svg, area, err := r.drawSVG(p)
	if err != nil {
		return err
	}

	page := chartPage{
		Title:         r.opts.Title,
		Width:         r.opts.Width,
		Height:        r.opts.Height,
		HistoryLabel:  config.HistoryLabel,
		ForecastLabel: config.ForecastLabel,
		IntervalLabel: config.IntervalLabel,
		SVG:           template.HTML(svg),
		Data:          hoverData(history, forecast, p, area),
	}

	if err := chartTemplate.Execute(w, page); err != nil {
		return apperrors.NewRenderError("failed to render chart page", err)
	}
	return nil
}

// buildPlot stacks the interval band, the historical trace and the forecast line, bottom to top
func (r *ChartRenderer) buildPlot(history []domain.TimeSeriesPoint, forecast []domain.ForecastPoint) (*plot.Plot, error) {
	p := plot.New()
	p.BackgroundColor = color.White
	p.X.Label.Text = config.XAxisTitle
	p.Y.Label.Text = config.YAxisTitle
	p.X.Label.TextStyle.Font.Size = vg.Points(13)
	p.Y.Label.TextStyle.Font.Size = vg.Points(13)
	p.X.Tick.Label.Font.Size = vg.Points(11)
	p.Y.Tick.Label.Font.Size = vg.Points(11)
	p.X.Tick.Marker = yearTicks{}
	p.X.Padding = 0
	p.Y.Padding = 0

	grid := plotter.NewGrid()
	grid.Vertical.Color = color.Gray{Y: 230}
	grid.Horizontal.Color = color.Gray{Y: 230}
	p.Add(grid)

	band := make(plotter.XYs, 0, 2*len(forecast))
	for _, f := range forecast {
		band = append(band, plotter.XY{X: unixSeconds(f.Date), Y: f.Upper})
	}
	for i := len(forecast) - 1; i >= 0; i-- {
		band = append(band, plotter.XY{X: unixSeconds(forecast[i].Date), Y: forecast[i].Lower})
	}
	interval, err := plotter.NewPolygon(band)
	if err != nil {
		return nil, apperrors.NewRenderError("failed to build confidence band", err)
	}
	interval.Color = intervalColor
	interval.LineStyle.Width = 0
	interval.LineStyle.Color = color.Transparent
	p.Add(interval)

	if len(history) > 0 {
		observed := make(plotter.XYs, len(history))
		for i, h := range history {
			observed[i] = plotter.XY{X: unixSeconds(h.Date), Y: float64(h.Value)}
		}
		line, points, err := plotter.NewLinePoints(observed)
		if err != nil {
			return nil, apperrors.NewRenderError("failed to build historical trace", err)
		}
		line.Color = historyColor
		line.Width = vg.Points(1.5)
		points.Shape = draw.CircleGlyph{}
		points.Color = historyColor
		points.Radius = vg.Points(3)
		p.Add(line, points)
	}

	estimate := make(plotter.XYs, len(forecast))
	for i, f := range forecast {
		estimate[i] = plotter.XY{X: unixSeconds(f.Date), Y: f.Estimate}
	}
	line, err := plotter.NewLine(estimate)
	if err != nil {
		return nil, apperrors.NewRenderError("failed to build forecast line", err)
	}
	line.Color = forecastColor
	line.Width = vg.Points(2)
	p.Add(line)

	return p, nil
}

// plotArea is the data rectangle as fractions of the canvas, measured from the top-left corner
type plotArea struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// drawSVG renders p and returns the <svg> element with the position of its data area
func (r *ChartRenderer) drawSVG(p *plot.Plot) (string, plotArea, error) {
	w := vg.Length(r.opts.Width)
	h := vg.Length(r.opts.Height)

	canvas := vgsvg.New(w, h)
	dc := draw.New(canvas)
	p.Draw(dc)

	da := p.DataCanvas(dc)
	area := plotArea{
		Left:   float64(da.Min.X / w),
		Top:    float64((h - da.Max.Y) / h),
		Right:  float64(da.Max.X / w),
		Bottom: float64((h - da.Min.Y) / h),
	}

	var buf bytes.Buffer
	if _, err := canvas.WriteTo(&buf); err != nil {
		return "", area, apperrors.NewRenderError("failed to encode chart", err)
	}

	svg := buf.Bytes()
	if i := bytes.Index(svg, []byte("<svg")); i > 0 {
		svg = svg[i:]
	}
	return string(svg), area, nil
}

// hoverPoint is one x position of the unified hover readout
type hoverPoint struct {
	X        float64  `json:"x"`
	Year     int      `json:"year"`
	Observed *float64 `json:"observed,omitempty"`
	Estimate float64  `json:"yhat"`
	Lower    float64  `json:"lower"`
	Upper    float64  `json:"upper"`
}

type hoverPayload struct {
	Area   plotArea     `json:"area"`
	XMin   float64      `json:"xmin"`
	XMax   float64      `json:"xmax"`
	YMin   float64      `json:"ymin"`
	YMax   float64      `json:"ymax"`
	Points []hoverPoint `json:"points"`
}

func hoverData(history []domain.TimeSeriesPoint, forecast []domain.ForecastPoint, p *plot.Plot, area plotArea) hoverPayload {
	observed := make(map[int64]float64, len(history))
	for _, h := range history {
		observed[h.Date.Unix()] = float64(h.Value)
	}

	points := make([]hoverPoint, len(forecast))
	for i, f := range forecast {
		hp := hoverPoint{
			X:        unixSeconds(f.Date),
			Year:     f.Date.Year(),
			Estimate: f.Estimate,
			Lower:    f.Lower,
			Upper:    f.Upper,
		}
		if v, ok := observed[f.Date.Unix()]; ok {
			hp.Observed = &v
		}
		points[i] = hp
	}

	return hoverPayload{
		Area:   area,
		XMin:   p.X.Min,
		XMax:   p.X.Max,
		YMin:   p.Y.Min,
		YMax:   p.Y.Max,
		Points: points,
	}
}

func unixSeconds(t time.Time) float64 {
	return float64(t.Unix())
}

// yearTicks places labelled ticks on Jan 1, thinning them out on long ranges
type yearTicks struct{}

func (yearTicks) Ticks(min, max float64) []plot.Tick {
	first := time.Unix(int64(min), 0).UTC().Year()
	if unixSeconds(domain.YearStart(first)) < min {
		first++
	}
	last := time.Unix(int64(max), 0).UTC().Year()
	if last < first {
		return nil
	}

	step := 1
	for _, s := range []int{1, 2, 5, 10, 20, 50, 100} {
		step = s
		if (last-first)/s <= 12 {
			break
		}
	}

	var ticks []plot.Tick
	for year := first; year <= last; year++ {
		tick := plot.Tick{Value: unixSeconds(domain.YearStart(year))}
		if year%step == 0 {
			tick.Label = formatYear(year)
		}
		ticks = append(ticks, tick)
	}
	return ticks
}

type chartPage struct {
	Title         string
	Width         int
	Height        int
	HistoryLabel  string
	ForecastLabel string
	IntervalLabel string
	SVG           template.HTML
	Data          hoverPayload
}

var chartTemplate = template.Must(template.New("chart").Parse(chartHTML))

const chartHTML = `<!DOCTYPE html>
<html lang="it">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { margin: 0; background: #ffffff; font-family: "Open Sans", Verdana, Arial, sans-serif; color: #2a3f5f; }
  .figure { position: relative; width: {{.Width}}px; margin: 24px auto; }
  .title { text-align: center; font-size: 22px; margin: 0 0 8px; }
  .legend { display: flex; justify-content: flex-end; gap: 18px; font-size: 13px; margin: 0 50px 6px; }
  .legend span { display: inline-flex; align-items: center; gap: 6px; }
  .swatch { display: inline-block; width: 28px; height: 10px; }
  .swatch.band { background: rgba(135, 206, 250, 0.3); }
  .swatch.history { height: 2px; background: royalblue; position: relative; }
  .swatch.history::after { content: ""; position: absolute; left: 10px; top: -3px; width: 8px; height: 8px; border-radius: 50%; background: royalblue; }
  .swatch.forecast { height: 3px; background: darkblue; }
  .plot { position: relative; width: {{.Width}}px; height: {{.Height}}px; }
  .plot svg { display: block; width: {{.Width}}px; height: {{.Height}}px; }
  .spike { position: absolute; display: none; pointer-events: none; border-color: grey; border-style: dashed; border-width: 0; }
  .spike.x { border-left-width: 1px; }
  .spike.y { border-top-width: 1px; }
  .hover { position: absolute; display: none; pointer-events: none; background: rgba(255, 255, 255, 0.95); border: 1px solid #c8d4e3; padding: 6px 8px; font-size: 12px; white-space: nowrap; }
  .hover b { display: block; margin-bottom: 2px; }
</style>
</head>
<body>
<div class="figure">
  <h1 class="title">{{.Title}}</h1>
  <div class="legend">
    <span><i class="swatch band"></i>{{.IntervalLabel}}</span>
    <span><i class="swatch history"></i>{{.HistoryLabel}}</span>
    <span><i class="swatch forecast"></i>{{.ForecastLabel}}</span>
  </div>
  <div class="plot" id="plot">
    {{.SVG}}
    <div class="spike x" id="spike-x"></div>
    <div class="spike y" id="spike-y"></div>
    <div class="hover" id="hover"></div>
  </div>
</div>
<script>
(function () {
  var data = {{.Data}};
  var labels = { history: {{.HistoryLabel}}, forecast: {{.ForecastLabel}}, interval: {{.IntervalLabel}} };
  var plotEl = document.getElementById("plot");
  var spikeX = document.getElementById("spike-x");
  var spikeY = document.getElementById("spike-y");
  var hover = document.getElementById("hover");

  function fmt(v) { return v.toFixed(2); }

  function hide() {
    spikeX.style.display = "none";
    spikeY.style.display = "none";
    hover.style.display = "none";
  }

  plotEl.addEventListener("mouseleave", hide);
  plotEl.addEventListener("mousemove", function (ev) {
    var box = plotEl.getBoundingClientRect();
    var left = data.area.left * box.width, right = data.area.right * box.width;
    var top = data.area.top * box.height, bottom = data.area.bottom * box.height;
    var mx = ev.clientX - box.left, my = ev.clientY - box.top;
    if (mx < left || mx > right || my < top || my > bottom || data.points.length === 0) { hide(); return; }

    var x = data.xmin + (mx - left) / (right - left) * (data.xmax - data.xmin);
    var best = data.points[0];
    data.points.forEach(function (p) { if (Math.abs(p.x - x) < Math.abs(best.x - x)) { best = p; } });

    var px = left + (best.x - data.xmin) / (data.xmax - data.xmin) * (right - left);
    var y = best.observed !== undefined ? best.observed : best.yhat;
    var py = bottom - (y - data.ymin) / (data.ymax - data.ymin) * (bottom - top);

    spikeX.style.left = px + "px"; spikeX.style.top = top + "px"; spikeX.style.height = (bottom - top) + "px";
    spikeY.style.top = py + "px"; spikeY.style.left = left + "px"; spikeY.style.width = (right - left) + "px";
    spikeX.style.display = "block";
    spikeY.style.display = "block";

    var html = "<b>" + best.year + "</b>";
    if (best.observed !== undefined) { html += labels.history + ": " + best.observed + "<br>"; }
    html += labels.forecast + ": " + fmt(best.yhat) + "<br>";
    html += labels.interval + ": " + fmt(best.lower) + " – " + fmt(best.upper);
    hover.innerHTML = html;
    hover.style.display = "block";
    var hx = px + 12;
    if (hx + hover.offsetWidth > box.width) { hx = px - 12 - hover.offsetWidth; }
    hover.style.left = hx + "px";
    hover.style.top = (top + 8) + "px";
  });
})();
</script>
</body>
</html>
`
