// ABOUTME: Renders the analytical results as PNG charts with gonum/plot
// ABOUTME: One chart each for bank performance, negative themes and ratings
package report

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/harper/review-insights/internal/models"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Chart file names
const (
	SummaryChart = "summary_performance.png"
	ThemesChart  = "negative_themes.png"
	RatingsChart = "rating_distribution.png"
)

var (
	volumeColor = color.RGBA{R: 0x1f, G: 0x3a, B: 0x93, A: 0xff}
	ratingColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	themeColor  = color.RGBA{R: 0xff, G: 0x8c, B: 0x00, A: 0xff}
)

// RenderCharts writes every chart that has data into dir and returns the
// paths written
func RenderCharts(res *models.AnalyticalResults, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	var written []string
	if len(res.OverallSummary) > 0 {
		path := filepath.Join(dir, SummaryChart)
		if err := renderSummary(res.OverallSummary, path); err != nil {
			return written, fmt.Errorf("summary chart: %w", err)
		}
		written = append(written, path)
	}
	if len(res.TopNegativeThemes) > 0 {
		path := filepath.Join(dir, ThemesChart)
		if err := renderThemes(res.TopNegativeThemes, path); err != nil {
			return written, fmt.Errorf("themes chart: %w", err)
		}
		written = append(written, path)
	}
	if len(res.RatingDistribution) > 0 {
		path := filepath.Join(dir, RatingsChart)
		if err := renderRatings(res.RatingDistribution, path); err != nil {
			return written, fmt.Errorf("ratings chart: %w", err)
		}
		written = append(written, path)
	}
	return written, nil
}

// renderSummary stacks a review volume panel above an average rating panel
// sharing the same bank axis
func renderSummary(rows []models.BankSummary, path string) error {
	banks := make([]string, len(rows))
	volumes := make(plotter.Values, len(rows))
	var ratings plotter.XYs
	for i, r := range rows {
		banks[i] = r.Bank
		volumes[i] = float64(r.TotalReviews)
		if r.AverageRating != nil {
			ratings = append(ratings, plotter.XY{X: float64(i), Y: *r.AverageRating})
		}
	}

	top := plot.New()
	top.Title.Text = "Overall CX Performance: Review Volume & Average Rating"
	top.Y.Label.Text = "Total Reviews (Volume)"
	bars, err := plotter.NewBarChart(volumes, vg.Points(30))
	if err != nil {
		return err
	}
	bars.Color = volumeColor
	bars.LineStyle.Width = 0
	top.Add(bars, plotter.NewGrid())
	top.NominalX(banks...)
	top.Legend.Add("Total Reviews", bars)
	top.Legend.Top = true

	bottom := plot.New()
	bottom.X.Label.Text = "Bank"
	bottom.Y.Label.Text = "Average Rating"
	bottom.Y.Min, bottom.Y.Max = 1, 5
	bottom.Add(plotter.NewGrid())
	if len(ratings) > 0 {
		line, points, err := plotter.NewLinePoints(ratings)
		if err != nil {
			return err
		}
		line.Color = ratingColor
		line.Width = vg.Points(2)
		line.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
		points.Shape = draw.CircleGlyph{}
		points.Color = ratingColor
		bottom.Add(line, points)
		bottom.Legend.Add("Average Rating (1-5)", line, points)
		bottom.Legend.Top = true
	}
	bottom.NominalX(banks...)
	// NominalX widens the range only when plotters reach the edges
	bottom.X.Min, bottom.X.Max = -0.5, float64(len(banks))-0.5

	return saveGrid([][]*plot.Plot{{top}, {bottom}}, 10*vg.Inch, 8*vg.Inch, path)
}

func renderThemes(rows []models.ThemeCount, path string) error {
	labels := make([]string, len(rows))
	counts := make(plotter.Values, len(rows))
	for i, r := range rows {
		labels[i] = fmt.Sprintf("%s (Theme %d)", r.Bank, r.ThemeID)
		counts[i] = float64(r.NegativeReviewCount)
	}

	p := plot.New()
	p.Title.Text = "Top Themes Driving Negative Sentiment (Pain Points)"
	p.X.Label.Text = "Bank and Theme ID"
	p.Y.Label.Text = "Count of Negative Reviews (Volume)"

	bars, err := plotter.NewBarChart(counts, vg.Points(24))
	if err != nil {
		return err
	}
	bars.Color = themeColor
	bars.LineStyle.Width = 0
	p.Add(plotter.NewGrid(), bars)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter

	return p.Save(12*vg.Inch, 7*vg.Inch, path)
}

// renderRatings draws one stacked bar per bank, one segment per star rating
func renderRatings(rows []models.RatingCount, path string) error {
	var banks []string
	bankIndex := make(map[string]int)
	ratingSet := make(map[int]bool)
	for _, r := range rows {
		if _, ok := bankIndex[r.Bank]; !ok {
			bankIndex[r.Bank] = len(banks)
			banks = append(banks, r.Bank)
		}
		ratingSet[r.Rating] = true
	}
	ratings := make([]int, 0, len(ratingSet))
	for rating := range ratingSet {
		ratings = append(ratings, rating)
	}
	sort.Ints(ratings)

	// pivot to rating -> per-bank counts, absent pairs stay zero
	counts := make(map[int]plotter.Values, len(ratings))
	for _, rating := range ratings {
		counts[rating] = make(plotter.Values, len(banks))
	}
	for _, r := range rows {
		counts[r.Rating][bankIndex[r.Bank]] = float64(r.RatingCount)
	}

	p := plot.New()
	p.Title.Text = "Customer Rating Distribution by Bank"
	p.X.Label.Text = "Bank"
	p.Y.Label.Text = "Total Count of Ratings"
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Legend.Left = false

	var below *plotter.BarChart
	for i, rating := range ratings {
		bars, err := plotter.NewBarChart(counts[rating], vg.Points(40))
		if err != nil {
			return err
		}
		bars.Color = plotutil.Color(i)
		bars.LineStyle.Width = 0
		if below != nil {
			bars.StackOn(below)
		}
		p.Add(bars)
		p.Legend.Add(fmt.Sprintf("Rating %d", rating), bars)
		below = bars
	}
	p.NominalX(banks...)

	return p.Save(10*vg.Inch, 6*vg.Inch, path)
}

// saveGrid aligns plots on one canvas and encodes it as PNG
func saveGrid(plots [][]*plot.Plot, w, h vg.Length, path string) error {
	img := vgimg.New(w, h)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      len(plots[0]),
		PadTop:    vg.Points(6),
		PadBottom: vg.Points(6),
		PadLeft:   vg.Points(6),
		PadRight:  vg.Points(6),
		PadY:      vg.Points(12),
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		for j := range plots[i] {
			plots[i][j].Draw(canvases[i][j])
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
