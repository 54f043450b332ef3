package template

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"ms-turnos/internal/models"

	"github.com/signintech/gopdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Layout in points, measured from the top of an A4 page.
const (
	topMargin     = 50.0
	bottomMargin  = 50.0
	titleGap      = 40.0
	headerGap     = 20.0
	rowHeight     = 18.0
	titleFontSize = 14
	bodyFontSize  = 10
	maxCellRunes  = 32
)

var (
	columnX = [6]float64{40, 70, 120, 320, 390, 450}

	// Headers are the six report columns.
	Headers = [6]string{"N°", "Orden", "Nombre", "DNI", "Hora", "Estado"}
)

type Row struct {
	Cells [6]string
	Y     float64
}

// Page is one sheet of the report. Only the first page has a title; every
// page repeats the column header.
type Page struct {
	HasTitle bool
	TitleY   float64
	HeaderY  float64
	Rows     []Row
}

// Layout places one row per ticket in input order, starting a new page when
// the next row would fall into the bottom margin.
func Layout(tickets []models.Ticket) []Page {
	pageHeight := gopdf.PageSizeA4.H

	page := Page{HasTitle: true, TitleY: topMargin, HeaderY: topMargin + titleGap}
	y := page.HeaderY + headerGap
	var pages []Page

	for i, ticket := range tickets {
		page.Rows = append(page.Rows, Row{Cells: cells(i+1, ticket), Y: y})
		y += rowHeight

		if y > pageHeight-bottomMargin && i < len(tickets)-1 {
			pages = append(pages, page)
			page = Page{HeaderY: topMargin}
			y = page.HeaderY + headerGap
		}
	}
	return append(pages, page)
}

func cells(seq int, ticket models.Ticket) [6]string {
	return [6]string{
		strconv.Itoa(seq),
		strconv.Itoa(ticket.TicketNumber),
		truncate(ticket.Name),
		truncate(ticket.Identifier),
		ticket.Time,
		string(ticket.Status),
	}
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxCellRunes {
		return s
	}
	return string(runes[:maxCellRunes-1]) + "…"
}

type ReportPDFGenerator struct{}

func NewReportPDFGenerator() *ReportPDFGenerator {
	return &ReportPDFGenerator{}
}

// Generate renders the report and returns the PDF bytes.
func (g *ReportPDFGenerator) Generate(title string, tickets []models.Ticket) ([]byte, error) {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})

	if err := pdf.AddTTFFontData("regular", goregular.TTF); err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	if err := pdf.AddTTFFontData("bold", gobold.TTF); err != nil {
		return nil, fmt.Errorf("failed to load bold font: %w", err)
	}

	for _, page := range Layout(tickets) {
		pdf.AddPage()

		if page.HasTitle {
			if err := addTitle(pdf, title, page.TitleY); err != nil {
				return nil, err
			}
		}
		if err := addHeader(pdf, page.HeaderY); err != nil {
			return nil, err
		}
		if err := addRows(pdf, page.Rows); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := pdf.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders the report to path, creating its directory.
func (g *ReportPDFGenerator) WriteFile(path, title string, tickets []models.Ticket) error {
	data, err := g.Generate(title, tickets)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func addTitle(pdf *gopdf.GoPdf, title string, y float64) error {
	if err := pdf.SetFont("bold", "", titleFontSize); err != nil {
		return fmt.Errorf("failed to set font: %w", err)
	}
	width, err := pdf.MeasureTextWidth(title)
	if err != nil {
		return fmt.Errorf("failed to measure title: %w", err)
	}
	pdf.SetX((gopdf.PageSizeA4.W - width) / 2)
	pdf.SetY(y)
	return pdf.Cell(nil, title)
}

func addHeader(pdf *gopdf.GoPdf, y float64) error {
	if err := pdf.SetFont("bold", "", bodyFontSize); err != nil {
		return fmt.Errorf("failed to set font: %w", err)
	}
	return drawLine(pdf, Headers, y)
}

func addRows(pdf *gopdf.GoPdf, rows []Row) error {
	if err := pdf.SetFont("regular", "", bodyFontSize); err != nil {
		return fmt.Errorf("failed to set font: %w", err)
	}
	for _, row := range rows {
		if err := drawLine(pdf, row.Cells, row.Y); err != nil {
			return err
		}
	}
	return nil
}

func drawLine(pdf *gopdf.GoPdf, values [6]string, y float64) error {
	for i, value := range values {
		pdf.SetX(columnX[i])
		pdf.SetY(y)
		if err := pdf.Cell(nil, value); err != nil {
			return fmt.Errorf("failed to draw %q: %w", value, err)
		}
	}
	return nil
}
