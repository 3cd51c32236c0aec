package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageMargin   = 12.0
	thumbWidth   = 58.0
	thumbGap     = 4.0
	thumbsPerRow = 3
	captionLine  = 4.5
)

// Photo is a thumbnail with its caption. JPEG may be empty when the blob could not be read.
type Photo struct {
	Caption string
	JPEG    []byte
}

// Day is one journal page section.
type Day struct {
	Heading   string
	Locations string
	Notes     string
	Photos    []Photo
}

// Journal is everything rendered for one event.
type Journal struct {
	Title     string
	DateRange string
	Summary   string
	Tags      []string
	Hero      *Photo
	Days      []Day
}

// PDFExporter renders a journal into an A4 document.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render lays out the event header, then each day with its notes and a grid of thumbnails.
func (e *PDFExporter) Render(j Journal) ([]byte, error) {
	if strings.TrimSpace(j.Title) == "" {
		return nil, fmt.Errorf("pdf requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(0, 9, tr(j.Title), "", "L", false)
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, tr(j.DateRange), "", 1, "L", false, 0, "")
	if len(j.Tags) > 0 {
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(0, 5, tr("#"+strings.Join(j.Tags, "  #")), "", 1, "L", false, 0, "")
	}
	if j.Summary != "" {
		pdf.Ln(2)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, tr(j.Summary), "", "L", false)
	}

	grid := &thumbGrid{pdf: pdf, tr: tr}
	if j.Hero != nil && len(j.Hero.JPEG) > 0 {
		pdf.Ln(4)
		grid.place(*j.Hero, 120)
		grid.newRow()
	}

	for _, day := range j.Days {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(0, 7, tr(day.Heading), "B", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		if day.Locations != "" {
			pdf.MultiCell(0, 5, tr("Locations: "+day.Locations), "", "L", false)
		}
		if day.Notes != "" {
			pdf.MultiCell(0, 5, tr(day.Notes), "", "L", false)
		}
		if len(day.Photos) == 0 {
			continue
		}
		pdf.Ln(2)
		grid.reset()
		for _, photo := range day.Photos {
			grid.place(photo, thumbWidth)
		}
		grid.newRow()
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// thumbGrid places photos left to right and wraps rows and pages.
type thumbGrid struct {
	pdf     *gofpdf.Fpdf
	tr      func(string) string
	seq     int
	col     int
	rowTop  float64
	rowBase float64
}

func (g *thumbGrid) reset() {
	g.col = 0
	g.rowTop = g.pdf.GetY()
	g.rowBase = g.rowTop
}

func (g *thumbGrid) newRow() {
	if g.rowBase > g.rowTop {
		g.pdf.SetY(g.rowBase + thumbGap)
	}
	g.col = 0
	g.rowTop = g.pdf.GetY()
	g.rowBase = g.rowTop
}

func (g *thumbGrid) place(photo Photo, width float64) {
	if g.col == 0 {
		g.rowTop = g.pdf.GetY()
		g.rowBase = g.rowTop
	}
	height := width * 0.75
	name := ""
	if len(photo.JPEG) > 0 {
		g.seq++
		name = fmt.Sprintf("photo-%d", g.seq)
		opts := gofpdf.ImageOptions{ImageType: "JPG"}
		info := g.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(photo.JPEG))
		if g.pdf.Err() || info == nil {
			g.pdf.ClearError()
			name = ""
		} else if info.Width() > 0 {
			height = width * info.Height() / info.Width()
		}
	}

	captionLines := 0
	if photo.Caption != "" {
		g.pdf.SetFont("Arial", "", 8)
		captionLines = len(g.pdf.SplitLines([]byte(g.tr(photo.Caption)), width))
	}
	cell := height + float64(captionLines)*captionLine

	_, pageH := g.pdf.GetPageSize()
	if g.rowTop+cell > pageH-pageMargin {
		g.pdf.AddPage()
		g.col = 0
		g.rowTop = g.pdf.GetY()
		g.rowBase = g.rowTop
	}

	x := pageMargin + float64(g.col)*(thumbWidth+thumbGap)
	if name != "" {
		g.pdf.ImageOptions(name, x, g.rowTop, width, height, false, gofpdf.ImageOptions{ImageType: "JPG"}, 0, "")
	} else {
		g.pdf.Rect(x, g.rowTop, width, height, "D")
	}
	if captionLines > 0 {
		g.pdf.SetXY(x, g.rowTop+height+0.5)
		g.pdf.MultiCell(width, captionLine, g.tr(photo.Caption), "", "L", false)
	}
	if base := g.rowTop + cell; base > g.rowBase {
		g.rowBase = base
	}

	g.col++
	if g.col >= thumbsPerRow || width > thumbWidth {
		g.pdf.SetY(g.rowBase + thumbGap)
		g.col = 0
		g.rowTop = g.pdf.GetY()
		g.rowBase = g.rowTop
	}
}
