package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	tickMarkLength = 5
	pixelsPerLabel = 100

	// Default plot area sizing
	targetPlotWidth  = 640
	targetPlotHeight = 400
	maxCellWidth     = 16
	maxRowHeight     = 8

	// At most this many subcarrier lines are overlaid in the time
	// series view.
	maxSeriesLines = 50

	// Default border sizes in pixels
	defaultTopBorder    = 40
	defaultLeftBorder   = 80
	defaultBottomBorder = 40
	defaultRightBorder  = 40

	defaultTimeFormat     = "15:04:05"
	defaultDatetimeFormat = time.DateTime
)

// View selects which rendering of a capture to produce.
type View string

const (
	ViewTimeSeries View = "time_series" // Amplitude over time, one line per subcarrier
	ViewHeatmap    View = "heatmap"     // Subcarrier x time grid colored by amplitude
	ViewStats      View = "stats"       // Per-subcarrier mean and deviation band
)

// ParseView validates a view name.
func ParseView(s string) (View, error) {
	switch View(s) {
	case ViewTimeSeries, ViewHeatmap, ViewStats:
		return View(s), nil
	}
	return "", fmt.Errorf("invalid view: %s", s)
}

// AllViews returns every view in cycle order.
func AllViews() []View {
	return []View{ViewTimeSeries, ViewHeatmap, ViewStats}
}

// Next returns the view following v in cycle order.
func (v View) Next() View {
	views := AllViews()
	for i, view := range views {
		if view == v {
			return views[(i+1)%len(views)]
		}
	}
	return views[0]
}

// BorderConfig defines the sizes of white space around the plot area
type BorderConfig struct {
	Top    int // Space for the subcarrier scale
	Left   int // Space for the time or amplitude scale
	Bottom int // Space for the information bar
	Right  int // Right padding
}

// RenderConfig holds all configuration options for capture visualization
type RenderConfig struct {
	// Time display configuration
	TimeFormat     string         // Format string for time display (e.g. "15:04:05")
	DatetimeFormat string         // Format string for date/time display
	Location       *time.Location // Timezone for time display

	// Visual configuration
	FontPath     string     // Path to a TTF font, empty for the built-in face
	ColorTheme   ColorTheme // Color scheme for amplitude values
	ColorMapSize int        // Number of colors in gradient (0 for default)

	// Border configuration
	Borders BorderConfig
}

// Renderer turns accumulated capture data into annotated images.
type Renderer struct {
	colorMap *ColorMapper
	drawer   textDrawer
	config   RenderConfig
}

// NewRenderer creates a new renderer with the given configuration
func NewRenderer(config RenderConfig) (*Renderer, error) {
	// Set defaults for zero values
	if config.TimeFormat == "" {
		config.TimeFormat = defaultTimeFormat
	}
	if config.DatetimeFormat == "" {
		config.DatetimeFormat = defaultDatetimeFormat
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.Borders.Top == 0 {
		config.Borders.Top = defaultTopBorder
	}
	if config.Borders.Left == 0 {
		config.Borders.Left = defaultLeftBorder
	}
	if config.Borders.Bottom == 0 {
		config.Borders.Bottom = defaultBottomBorder
	}
	if config.Borders.Right == 0 {
		config.Borders.Right = defaultRightBorder
	}

	drawer, err := newTextDrawer(config.FontPath)
	if err != nil {
		return nil, fmt.Errorf("creating text drawer: %w", err)
	}

	return &Renderer{config: config, drawer: drawer}, nil
}

func (r *Renderer) Close() error {
	return r.drawer.Close()
}

// Render creates an image of the capture data with annotations
func (r *Renderer) Render(view View, data *PlotData, bounds AmplitudeBounds) (*image.RGBA, error) {
	if data.Subcarriers == 0 || len(data.Frames) == 0 {
		return nil, fmt.Errorf("no frames to render")
	}

	if r.colorMap == nil {
		r.colorMap = NewColorMapperWithSize(r.config.ColorTheme, bounds, r.config.ColorMapSize)
	} else {
		r.colorMap.UpdateBounds(bounds)
	}

	area := r.plotArea(view, data)

	fullWidth := area.Dx() + r.config.Borders.Left + r.config.Borders.Right
	fullHeight := area.Dy() + r.config.Borders.Top + r.config.Borders.Bottom
	img := image.NewRGBA(image.Rect(0, 0, fullWidth, fullHeight))

	// Fill with white background
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	var err error
	switch view {
	case ViewHeatmap:
		if err = r.drawSubcarrierScale(img, area, data.Subcarriers); err == nil {
			if err = r.drawTimeScale(img, area, data); err == nil {
				r.renderHeatmap(img, area, data, bounds)
			}
		}

	case ViewTimeSeries:
		if err = r.drawTimeScaleTop(img, area, data); err == nil {
			if err = r.drawAmplitudeScale(img, area, bounds); err == nil {
				r.renderTimeSeries(img, area, data, bounds)
			}
		}

	case ViewStats:
		if err = r.drawSubcarrierScale(img, area, data.Subcarriers); err == nil {
			if err = r.drawAmplitudeScale(img, area, bounds); err == nil {
				r.renderStats(img, area, data, bounds)
			}
		}

	default:
		err = fmt.Errorf("invalid view: %s", view)
	}
	if err != nil {
		return nil, err
	}

	if err := r.drawInfoBar(img, view, data, bounds); err != nil {
		return nil, fmt.Errorf("drawing info bar: %w", err)
	}

	return img, nil
}

// plotArea computes the drawable region of the image for a view. The
// heatmap scales cells so small captures remain visible, the line views
// use a fixed canvas.
func (r *Renderer) plotArea(view View, data *PlotData) image.Rectangle {
	var width, height int
	if view == ViewHeatmap {
		cellW := clamp(targetPlotWidth/data.Subcarriers, 1, maxCellWidth)
		rowH := clamp(targetPlotHeight/len(data.Frames), 1, maxRowHeight)
		width = data.Subcarriers * cellW
		height = len(data.Frames) * rowH
	} else {
		width = targetPlotWidth
		height = targetPlotHeight
	}

	return image.Rect(
		r.config.Borders.Left,
		r.config.Borders.Top,
		r.config.Borders.Left+width,
		r.config.Borders.Top+height,
	)
}

func (r *Renderer) renderHeatmap(img *image.RGBA, area image.Rectangle, data *PlotData, bounds AmplitudeBounds) {
	for y := area.Min.Y; y < area.Max.Y; y++ {
		frame := data.Frames[(y-area.Min.Y)*len(data.Frames)/area.Dy()]
		for x := area.Min.X; x < area.Max.X; x++ {
			i := (x - area.Min.X) * data.Subcarriers / area.Dx()
			if i < len(frame) {
				img.Set(x, y, r.colorMap.GetColor(frame[i]))
			}
		}
	}
}

func (r *Renderer) renderTimeSeries(img *image.RGBA, area image.Rectangle, data *PlotData, bounds AmplitudeBounds) {
	stride := 1
	if data.Subcarriers > maxSeriesLines {
		stride = data.Subcarriers / maxSeriesLines
	}

	for sc := 0; sc < data.Subcarriers; sc += stride {
		// Low subcarriers cold, high subcarriers hot.
		c := r.colorMap.GetColor(bounds.Min + (bounds.Max-bounds.Min)*float64(sc)/float64(data.Subcarriers))

		prevX, prevY := -1, -1
		for fi, frame := range data.Frames {
			if sc >= len(frame) {
				continue
			}
			x := area.Min.X + fi*(area.Dx()-1)/max(len(data.Frames)-1, 1)
			y := amplitudeToY(frame[sc], area, bounds)
			if prevX >= 0 {
				drawLine(img, prevX, prevY, x, y, c)
			}
			prevX, prevY = x, y
		}
	}
}

func (r *Renderer) renderStats(img *image.RGBA, area image.Rectangle, data *PlotData, bounds AmplitudeBounds) {
	means, stddevs := data.SubcarrierStats()

	band := color.RGBA{R: 0xb0, G: 0xc4, B: 0xde, A: 255}
	mean := color.RGBA{R: 0x19, G: 0x19, B: 0x70, A: 255}

	// Deviation band first, mean line on top.
	for i := range means {
		x := area.Min.X + i*(area.Dx()-1)/max(data.Subcarriers-1, 1)
		yLow := amplitudeToY(means[i]-stddevs[i], area, bounds)
		yHigh := amplitudeToY(means[i]+stddevs[i], area, bounds)
		drawLine(img, x, yHigh, x, yLow, band)
	}

	prevX, prevY := -1, -1
	for i, m := range means {
		x := area.Min.X + i*(area.Dx()-1)/max(data.Subcarriers-1, 1)
		y := amplitudeToY(m, area, bounds)
		if prevX >= 0 {
			drawLine(img, prevX, prevY, x, y, mean)
		}
		prevX, prevY = x, y
	}
}

func (r *Renderer) drawSubcarrierScale(img *image.RGBA, area image.Rectangle, subcarriers int) error {
	step := calculateNiceStep(float64(subcarriers), area.Dx())

	fontHeight := r.drawer.FontHeight()
	textY := area.Min.Y - tickMarkLength - fontHeight/2

	for sc := 0.0; sc < float64(subcarriers); sc += step {
		x := area.Min.X + int(sc/float64(subcarriers)*float64(area.Dx()))

		// Draw tick mark
		for y := area.Min.Y - tickMarkLength; y < area.Min.Y; y++ {
			img.Set(x, y, color.Black)
		}

		label := fmt.Sprintf("%d", int(sc))
		width := r.drawer.MeasureString(label)
		if err := r.drawer.DrawString(img, label, x-width/2, textY); err != nil {
			return fmt.Errorf("drawing subcarrier label: %w", err)
		}
	}
	return nil
}

func (r *Renderer) drawTimeScale(img *image.RGBA, area image.Rectangle, data *PlotData) error {
	duration := data.TimestampEnd.Sub(data.TimestampStart)
	labels := max(area.Dy()/pixelsPerLabel, 1)

	fontHeight := r.drawer.FontHeight()

	for li := 0; li <= labels; li++ {
		y := area.Min.Y + li*(area.Dy()-1)/labels
		ts := data.TimestampStart.Add(time.Duration(float64(duration) * float64(li) / float64(labels)))

		// Draw tick mark
		for x := area.Min.X - tickMarkLength; x < area.Min.X; x++ {
			img.Set(x, y, color.Black)
		}

		label := ts.In(r.config.Location).Format(r.config.TimeFormat)
		if err := r.drawer.DrawString(img, label, 10, y+fontHeight/2); err != nil {
			return fmt.Errorf("drawing time label: %w", err)
		}
	}
	return nil
}

// drawTimeScaleTop labels capture time along the top edge, used when
// time runs along the horizontal axis.
func (r *Renderer) drawTimeScaleTop(img *image.RGBA, area image.Rectangle, data *PlotData) error {
	duration := data.TimestampEnd.Sub(data.TimestampStart)
	labels := max(area.Dx()/pixelsPerLabel, 1)

	fontHeight := r.drawer.FontHeight()
	textY := area.Min.Y - tickMarkLength - fontHeight/2

	for li := 0; li <= labels; li++ {
		x := area.Min.X + li*(area.Dx()-1)/labels
		ts := data.TimestampStart.Add(time.Duration(float64(duration) * float64(li) / float64(labels)))

		// Draw tick mark
		for y := area.Min.Y - tickMarkLength; y < area.Min.Y; y++ {
			img.Set(x, y, color.Black)
		}

		label := ts.In(r.config.Location).Format(r.config.TimeFormat)
		width := r.drawer.MeasureString(label)
		if err := r.drawer.DrawString(img, label, x-width/2, textY); err != nil {
			return fmt.Errorf("drawing time label: %w", err)
		}
	}
	return nil
}

func (r *Renderer) drawAmplitudeScale(img *image.RGBA, area image.Rectangle, bounds AmplitudeBounds) error {
	step := calculateNiceStep(bounds.Max-bounds.Min, area.Dy())
	start := math.Ceil(bounds.Min/step) * step

	fontHeight := r.drawer.FontHeight()

	for amp := start; amp <= bounds.Max; amp += step {
		y := amplitudeToY(amp, area, bounds)

		// Draw tick mark
		for x := area.Min.X - tickMarkLength; x < area.Min.X; x++ {
			img.Set(x, y, color.Black)
		}

		label := formatAmplitude(amp)
		if err := r.drawer.DrawString(img, label, 10, y+fontHeight/2); err != nil {
			return fmt.Errorf("drawing amplitude label: %w", err)
		}
	}
	return nil
}

func (r *Renderer) drawInfoBar(img *image.RGBA, view View, data *PlotData, bounds AmplitudeBounds) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("View: %s", view))
	sb.WriteString("; ")
	sb.WriteString(fmt.Sprintf("Frames: %d x %d subcarriers", len(data.Frames), data.Subcarriers))
	sb.WriteString("; ")
	sb.WriteString(fmt.Sprintf("Time: %s - %s",
		data.TimestampStart.In(r.config.Location).Format(r.config.DatetimeFormat),
		data.TimestampEnd.In(r.config.Location).Format(r.config.DatetimeFormat)))

	if duration := data.TimestampEnd.Sub(data.TimestampStart); duration > 0 && len(data.Frames) > 1 {
		rate := float64(len(data.Frames)-1) / duration.Seconds()
		fract, suffix := humanize.ComputeSI(rate)
		sb.WriteString("; ")
		sb.WriteString(fmt.Sprintf("Rate: %0.2f %sHz", fract, suffix))
	}

	sb.WriteString("; ")
	sb.WriteString(fmt.Sprintf("Amplitude: %s - %s", formatAmplitude(bounds.Min), formatAmplitude(bounds.Max)))

	fontHeight := r.drawer.FontHeight()
	textY := img.Bounds().Max.Y - (r.config.Borders.Bottom-fontHeight)/2

	if err := r.drawer.DrawString(img, sb.String(), r.config.Borders.Left, textY); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}
	return nil
}

// Helper functions

func amplitudeToY(amp float64, area image.Rectangle, bounds AmplitudeBounds) int {
	norm := (amp - bounds.Min) / (bounds.Max - bounds.Min)
	norm = math.Max(0, math.Min(1, norm))
	return area.Max.Y - 1 - int(norm*float64(area.Dy()-1))
}

// calculateNiceStep picks a round label step for a value range so that
// labels stay roughly pixelsPerLabel apart.
func calculateNiceStep(valueRange float64, pixels int) float64 {
	desiredSteps := math.Max(float64(pixels)/pixelsPerLabel, 1)
	targetStep := valueRange / desiredSteps

	steps := []float64{1, 2, 5}
	for magnitude := 1.0; magnitude <= 1e9; magnitude *= 10 {
		for _, s := range steps {
			step := s * magnitude
			if step >= targetStep {
				if valueRange/step >= 2 {
					return step
				}
				return valueRange / 2
			}
		}
	}
	return valueRange / 2
}

func formatAmplitude(amp float64) string {
	if math.Abs(amp) >= 1000 {
		fract, suffix := humanize.ComputeSI(amp)
		return fmt.Sprintf("%0.1f%s", fract, suffix)
	}
	return fmt.Sprintf("%0.0f", amp)
}

// drawLine draws a straight segment using integer line stepping.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
