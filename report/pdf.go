package report

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/Samartha120/Vechile-Damage-Detection/media"
	"github.com/Samartha120/Vechile-Damage-Detection/models"
)

// Filename names the exported document by today's date.
func Filename() string {
	return fmt.Sprintf("vehicle-damage-report-%s.pdf", time.Now().Format("2006-01-02"))
}

// block is one layout element of the exported document. Blocks report their
// height up front so the renderer can decide where pages break.
type block interface {
	height(pdf *gofpdf.Fpdf, width float64) float64
	draw(pdf *gofpdf.Fpdf, width float64)
}

// ExportSingle serializes one unit result to a paginated PDF.
func ExportSingle(result *models.UnitAnalysisResult) ([]byte, error) {
	blocks := []block{
		titleBlock{title: "Vehicle Damage Analysis Report", subtitle: time.Now().Format("January 2, 2006")},
		paragraphBlock{text: result.Summary},
		statTilesBlock{tiles: []statTile{
			{label: "Severity", value: string(result.OverallSeverity)},
			{label: "Confidence", value: fmt.Sprintf("%d%%", result.ConfidenceScore)},
			{label: "Observations", value: fmt.Sprintf("%d", len(result.Observations))},
			{label: "Areas Affected", value: fmt.Sprintf("%d", len(result.AffectedAreas))},
		}},
	}
	blocks = appendCostBlock(blocks, result.EstimatedCost)
	blocks = appendObservationBlocks(blocks, tagged(result.Observations))
	blocks = appendRecommendationBlocks(blocks, result.Recommendations)

	return render(blocks)
}

// ExportCombined serializes a combined report, including the trailing
// per-image gallery.
func ExportCombined(r *models.CombinedReport) ([]byte, error) {
	blocks := []block{
		titleBlock{title: "Vehicle Damage Analysis Report", subtitle: r.CreatedAt.Format("January 2, 2006")},
		paragraphBlock{text: r.Summary},
		statTilesBlock{tiles: []statTile{
			{label: "Images Analyzed", value: fmt.Sprintf("%d", r.TotalUnits)},
			{label: "With Damage", value: fmt.Sprintf("%d", r.UnitsWithDamage)},
			{label: "Avg. Confidence", value: fmt.Sprintf("%d%%", r.AverageConfidence)},
			{label: "Severity", value: string(r.OverallSeverity)},
		}},
	}
	blocks = appendCostBlock(blocks, r.EstimatedCost)
	blocks = appendObservationBlocks(blocks, r.AllObservations)
	blocks = appendRecommendationBlocks(blocks, r.Recommendations)
	blocks = appendGalleryBlocks(blocks, r.UnitContexts)

	return render(blocks)
}

// render places blocks top to bottom, starting a new page whenever the next
// block would extend past the bottom margin.
func render(blocks []block) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(false, 15)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	width := pageW - left - right
	bottom := pageH - 15

	for _, b := range blocks {
		if pdf.GetY()+b.height(pdf, width) > bottom {
			pdf.AddPage()
		}
		b.draw(pdf, width)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("build report document: %w", err)
	}
	return buf.Bytes(), nil
}

func appendCostBlock(blocks []block, cost models.CostRange) []block {
	if cost.Min <= 0 && cost.Max <= 0 {
		return blocks
	}
	return append(blocks, costBlock{cost: cost})
}

func appendObservationBlocks(blocks []block, observations []models.TaggedObservation) []block {
	if len(observations) == 0 {
		return blocks
	}
	blocks = append(blocks, headingBlock{text: "Detected Damage"})
	for i, obs := range observations {
		blocks = append(blocks, observationBlock{number: i + 1, obs: obs})
	}
	return blocks
}

func appendRecommendationBlocks(blocks []block, recommendations []string) []block {
	if len(recommendations) == 0 {
		return blocks
	}
	blocks = append(blocks, headingBlock{text: "Recommendations"})
	for i, rec := range recommendations {
		blocks = append(blocks, bulletBlock{number: i + 1, text: rec})
	}
	return blocks
}

// appendGalleryBlocks lays the analyzed images out two per row, each
// captioned with its damage count and severity.
func appendGalleryBlocks(blocks []block, units []models.UnitContext) []block {
	if len(units) == 0 {
		return blocks
	}
	blocks = append(blocks, headingBlock{text: "Analyzed Images"})
	for i := 0; i < len(units); i += 2 {
		row := galleryRowBlock{left: &units[i]}
		if i+1 < len(units) {
			row.right = &units[i+1]
		}
		blocks = append(blocks, row)
	}
	return blocks
}

func tagged(observations []models.DamageObservation) []models.TaggedObservation {
	out := make([]models.TaggedObservation, len(observations))
	for i, obs := range observations {
		out[i] = models.TaggedObservation{DamageObservation: obs, UnitIndex: -1}
	}
	return out
}

type titleBlock struct {
	title    string
	subtitle string
}

func (b titleBlock) height(*gofpdf.Fpdf, float64) float64 { return 26 }

func (b titleBlock) draw(pdf *gofpdf.Fpdf, width float64) {
	left := pdf.GetX()
	pdf.SetFillColor(30, 58, 95)
	pdf.Rect(left, pdf.GetY(), width, 20, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(width, 12, b.title, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(width, 6, b.subtitle, "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(8)
}

type headingBlock struct {
	text string
}

func (b headingBlock) height(*gofpdf.Fpdf, float64) float64 { return 12 }

func (b headingBlock) draw(pdf *gofpdf.Fpdf, width float64) {
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(width, 8, b.text, "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

type paragraphBlock struct {
	text string
}

func (b paragraphBlock) height(pdf *gofpdf.Fpdf, width float64) float64 {
	pdf.SetFont("Helvetica", "", 10)
	lines := pdf.SplitText(b.text, width)
	return float64(len(lines))*5 + 4
}

func (b paragraphBlock) draw(pdf *gofpdf.Fpdf, width float64) {
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(width, 5, b.text, "", "L", false)
	pdf.Ln(4)
}

type statTile struct {
	label string
	value string
}

type statTilesBlock struct {
	tiles []statTile
}

func (b statTilesBlock) height(*gofpdf.Fpdf, float64) float64 {
	rows := (len(b.tiles) + 3) / 4
	return float64(rows)*22 + 4
}

func (b statTilesBlock) draw(pdf *gofpdf.Fpdf, width float64) {
	const gutter = 4.0
	tileW := (width - 3*gutter) / 4
	left, _, _, _ := pdf.GetMargins()

	for i, tile := range b.tiles {
		if i > 0 && i%4 == 0 {
			pdf.Ln(22)
		}
		x := left + float64(i%4)*(tileW+gutter)
		y := pdf.GetY()

		pdf.SetFillColor(240, 243, 247)
		pdf.Rect(x, y, tileW, 18, "F")
		pdf.SetXY(x, y+3)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(tileW, 7, tile.value, "", 0, "C", false, 0, "")
		pdf.SetXY(x, y+10)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(90, 98, 110)
		pdf.CellFormat(tileW, 5, tile.label, "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.SetXY(left, y)
	}
	pdf.Ln(22 + 4)
}

type costBlock struct {
	cost models.CostRange
}

func (b costBlock) height(*gofpdf.Fpdf, float64) float64 { return 10 }

func (b costBlock) draw(pdf *gofpdf.Fpdf, width float64) {
	pdf.SetFont("Helvetica", "B", 11)
	line := fmt.Sprintf("Estimated repair cost: %s %d - %s %d",
		b.cost.Currency, b.cost.Min, b.cost.Currency, b.cost.Max)
	pdf.CellFormat(width, 7, line, "", 1, "L", false, 0, "")
	pdf.Ln(3)
}

type observationBlock struct {
	number int
	obs    models.TaggedObservation
}

func (b observationBlock) title() string {
	title := fmt.Sprintf("%d. %s - %s [%s]", b.number, b.obs.Kind, b.obs.Location, b.obs.Severity)
	if b.obs.UnitIndex >= 0 {
		title += fmt.Sprintf(" (image %d)", b.obs.UnitIndex+1)
	}
	return title
}

func (b observationBlock) height(*gofpdf.Fpdf, float64) float64 { return 12 }

func (b observationBlock) draw(pdf *gofpdf.Fpdf, width float64) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(width, 6, b.title(), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(90, 98, 110)
	pdf.CellFormat(width, 5, firstLine(b.obs.Description), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(1)
}

type bulletBlock struct {
	number int
	text   string
}

func (b bulletBlock) height(pdf *gofpdf.Fpdf, width float64) float64 {
	pdf.SetFont("Helvetica", "", 10)
	lines := pdf.SplitText(fmt.Sprintf("%d. %s", b.number, b.text), width)
	return float64(len(lines))*5 + 1
}

func (b bulletBlock) draw(pdf *gofpdf.Fpdf, width float64) {
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(width, 5, fmt.Sprintf("%d. %s", b.number, b.text), "", "L", false)
	pdf.Ln(1)
}

type galleryRowBlock struct {
	left  *models.UnitContext
	right *models.UnitContext
}

const (
	galleryImageH   = 50.0
	galleryCaptionH = 6.0
)

func (b galleryRowBlock) height(*gofpdf.Fpdf, float64) float64 {
	return galleryImageH + galleryCaptionH + 4
}

func (b galleryRowBlock) draw(pdf *gofpdf.Fpdf, width float64) {
	const gutter = 6.0
	colW := (width - gutter) / 2
	left, _, _, _ := pdf.GetMargins()
	y := pdf.GetY()

	drawGalleryCell(pdf, b.left, left, y, colW)
	if b.right != nil {
		drawGalleryCell(pdf, b.right, left+colW+gutter, y, colW)
	}

	pdf.SetXY(left, y+galleryImageH+galleryCaptionH+4)
}

func drawGalleryCell(pdf *gofpdf.Fpdf, unit *models.UnitContext, x, y, w float64) {
	mime, raw, ok := media.DecodeDataURI(unit.ImageDataURI)
	imageType := pdfImageType(mime)
	if ok {
		// A corrupt image must degrade to a placeholder, not break the
		// whole document.
		_, _, err := image.DecodeConfig(bytes.NewReader(raw))
		ok = err == nil
	}

	if ok && imageType != "" {
		name := fmt.Sprintf("gallery-%d", unit.Index)
		opts := gofpdf.ImageOptions{ImageType: imageType}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(raw))
		pdf.ImageOptions(name, x, y, w, galleryImageH, false, opts, 0, "")
	} else {
		pdf.SetDrawColor(180, 180, 180)
		pdf.Rect(x, y, w, galleryImageH, "D")
		pdf.SetXY(x, y+galleryImageH/2-3)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(w, 6, "image unavailable", "", 0, "C", false, 0, "")
	}

	caption := fmt.Sprintf("Image %d: %d damage(s), %s",
		unit.Index+1, len(unit.Result.Observations), unit.Result.OverallSeverity)
	pdf.SetXY(x, y+galleryImageH)
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(w, galleryCaptionH, caption, "", 0, "C", false, 0, "")
}

func pdfImageType(mime string) string {
	switch mime {
	case "image/jpeg", "image/jpg":
		return "JPG"
	case "image/png":
		return "PNG"
	default:
		return ""
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
