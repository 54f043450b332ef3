package template_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ms-turnos/internal/models"
	"ms-turnos/internal/turnos/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTickets(n int) []models.Ticket {
	tickets := make([]models.Ticket, n)
	for i := range tickets {
		tickets[i] = models.Ticket{
			ID:           int64(i + 1),
			Name:         fmt.Sprintf("Visitante %d", i+1),
			Identifier:   fmt.Sprintf("%08d", i+1),
			TicketNumber: i + 1,
			Date:         "2024-01-01",
			Time:         "09:00:00",
			Status:       models.StatusWaiting,
		}
	}
	return tickets
}

func TestLayoutSinglePage(t *testing.T) {
	pages := template.Layout(sampleTickets(3))

	require.Len(t, pages, 1)
	assert.True(t, pages[0].HasTitle)
	require.Len(t, pages[0].Rows, 3)
	assert.Equal(t, [6]string{"1", "1", "Visitante 1", "00000001", "09:00:00", "EN ESPERA"}, pages[0].Rows[0].Cells)
	assert.Greater(t, pages[0].Rows[0].Y, pages[0].HeaderY)
	assert.Greater(t, pages[0].HeaderY, pages[0].TitleY)
}

func TestLayoutEmptyReportStillHasHeader(t *testing.T) {
	pages := template.Layout(nil)

	require.Len(t, pages, 1)
	assert.True(t, pages[0].HasTitle)
	assert.Empty(t, pages[0].Rows)
}

func TestLayoutRenderCompleteness(t *testing.T) {
	tickets := sampleTickets(100)
	pages := template.Layout(tickets)

	require.Len(t, pages, 3)
	assert.Len(t, pages[0].Rows, 38)
	assert.Len(t, pages[1].Rows, 41)
	assert.Len(t, pages[2].Rows, 21)

	total := 0
	for i, page := range pages {
		assert.Equal(t, i == 0, page.HasTitle, "title only on the first page")
		assert.Greater(t, page.HeaderY, 0.0, "header on every page")
		for _, row := range page.Rows {
			total++
			// Sequence numbers run across pages in input order
			assert.Equal(t, fmt.Sprint(total), row.Cells[0])
			assert.Less(t, row.Y, 842.0-50.0)
		}
	}
	assert.Equal(t, len(tickets), total)
}

func TestLayoutNoTrailingEmptyPage(t *testing.T) {
	pages := template.Layout(sampleTickets(38))
	assert.Len(t, pages, 1)

	pages = template.Layout(sampleTickets(39))
	require.Len(t, pages, 2)
	assert.Len(t, pages[1].Rows, 1)
}

func TestLayoutTruncatesLongNames(t *testing.T) {
	tickets := sampleTickets(1)
	tickets[0].Name = strings.Repeat("x", 80)

	pages := template.Layout(tickets)
	assert.LessOrEqual(t, len([]rune(pages[0].Rows[0].Cells[2])), 32)
}

func TestGeneratePDF(t *testing.T) {
	gen := template.NewReportPDFGenerator()

	data, err := gen.Generate("REPORTE DIARIO DE TURNOS", sampleTickets(60))

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestWriteFile(t *testing.T) {
	gen := template.NewReportPDFGenerator()
	path := filepath.Join(t.TempDir(), "reports", "reporte_turnos.pdf")

	require.NoError(t, gen.WriteFile(path, "REPORTE MENSUAL DE TURNOS", sampleTickets(2)))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
