// Package report renders a battle tower run as a printable PDF: a winding
// path of battles on parchment, followed by a table of every outcome.
package report

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/jung-kurt/gofpdf/v2"

	"monsterbattle/internal/battle"
	"monsterbattle/internal/tower"
)

const (
	pageW     = 595
	pageH     = 842
	margin    = 40
	stopSize  = 36.0
	pathStep  = 90.0
	perRow    = 5
	maxStops  = 20
	fontSize  = 8
	titleSize = 16
	labelSize = 7
	rowH      = 12.0
)

// Input is what a report shows.
type Input struct {
	Title       string
	Player      []string // species on the player's team
	PlayerLives int
	Outcomes    []tower.Outcome
	Enemies     []tower.Enemy // still queued
}

// Generate returns the PDF bytes for in.
func Generate(in Input) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	newPage := func() {
		pdf.AddPage()
		pdf.SetFillColor(245, 235, 210)
		pdf.Rect(0, 0, pageW, pageH, "F")
		drawWavyBorder(pdf)
		pdf.SetDrawColor(80, 50, 30)
		pdf.SetTextColor(80, 50, 30)
		pdf.SetLineWidth(1)
	}
	newPage()

	title := in.Title
	if title == "" {
		title = "Battle Tower"
	}
	pdf.SetFont("Helvetica", "B", titleSize)
	pdf.SetXY(margin+10, margin+10)
	pdf.CellFormat(pageW-2*margin-20, 18, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", fontSize)
	pdf.SetX(margin + 10)
	pdf.CellFormat(pageW-2*margin-20, 12,
		tr(fmt.Sprintf("Team: %s   Lives left: %d   Battles: %d", strings.Join(in.Player, ", "), in.PlayerLives, len(in.Outcomes))),
		"", 1, "L", false, 0, "")

	y := drawPath(pdf, in.Outcomes, margin+90)
	y = drawTable(pdf, tr, in.Outcomes, y+20, newPage)
	drawQueue(pdf, tr, in.Enemies, y+16, newPage)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// drawPath lays the first battles out as a snake and returns the y below it.
func drawPath(pdf *gofpdf.Fpdf, outs []tower.Outcome, top float64) float64 {
	n := min(len(outs), maxStops)
	if n == 0 {
		pdf.SetFont("Helvetica", "I", fontSize)
		pdf.SetXY(margin+10, top)
		pdf.CellFormat(200, 12, "No battles fought yet.", "", 0, "L", false, 0, "")
		return top + 12
	}
	positions := make([][2]float64, n)
	x0 := float64(margin) + stopSize + 10
	for i := range n {
		row, col := i/perRow, i%perRow
		if row%2 == 1 {
			col = perRow - 1 - col
		}
		positions[i] = [2]float64{x0 + float64(col)*pathStep, top + stopSize/2 + float64(row)*pathStep}
	}

	pdf.SetDrawColor(180, 40, 40)
	pdf.SetLineWidth(2)
	pdf.SetDashPattern([]float64{10, 6}, 0)
	for i := 0; i < n-1; i++ {
		pdf.Line(positions[i][0], positions[i][1], positions[i+1][0], positions[i+1][1])
	}
	pdf.SetDashPattern([]float64{}, 0)
	pdf.SetLineWidth(1)

	for i := range n {
		x, y := positions[i][0], positions[i][1]
		drawStop(pdf, x, y, outs[i].Result)
		pdf.SetFont("Helvetica", "B", labelSize)
		pdf.SetTextColor(40, 25, 15)
		pdf.SetXY(x-stopSize/2-10, y+stopSize/2+4)
		pdf.CellFormat(stopSize+20, 9, fmt.Sprintf("#%d VS E%d", outs[i].Battle, outs[i].EnemyID), "", 0, "C", false, 0, "")
		pdf.SetTextColor(80, 50, 30)
	}
	rows := (n + perRow - 1) / perRow
	return top + float64(rows)*pathStep
}

// drawStop draws one battle: a disc coloured by result with crossed swords.
func drawStop(pdf *gofpdf.Fpdf, x, y float64, res battle.Result) {
	r := stopSize / 2
	switch res {
	case battle.SideAWins:
		pdf.SetFillColor(120, 170, 90)
	case battle.SideBWins:
		pdf.SetFillColor(190, 80, 60)
	default:
		pdf.SetFillColor(170, 160, 140)
	}
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(1.2)
	pdf.Circle(x, y, r, "FD")
	pdf.SetLineWidth(1.5)
	pdf.Line(x-r*0.5, y-r*0.5, x+r*0.5, y+r*0.5)
	pdf.Line(x-r*0.5, y+r*0.5, x+r*0.5, y-r*0.5)
	pdf.SetLineWidth(1)
	pdf.SetDrawColor(80, 50, 30)
}

var columns = []struct {
	head string
	w    float64
}{
	{"#", 30}, {"Enemy", 45}, {"Result", 70}, {"Turns", 45}, {"Lives", 60}, {"Enemy team", 245},
}

func drawTable(pdf *gofpdf.Fpdf, tr func(string) string, outs []tower.Outcome, y float64, newPage func()) float64 {
	header := func() {
		pdf.SetFont("Helvetica", "B", fontSize)
		pdf.SetXY(margin+10, y)
		for _, c := range columns {
			pdf.CellFormat(c.w, rowH, c.head, "B", 0, "L", false, 0, "")
		}
		y += rowH + 2
		pdf.SetFont("Helvetica", "", fontSize)
	}
	header()
	for _, o := range outs {
		if y > pageH-margin-2*rowH {
			newPage()
			y = margin + 20
			header()
		}
		cells := []string{
			fmt.Sprint(o.Battle),
			fmt.Sprintf("E%d", o.EnemyID),
			resultLabel(o.Result),
			fmt.Sprint(o.Turns),
			fmt.Sprintf("%d / %d", o.PlayerLives, o.EnemyLives),
			truncate(strings.Join(o.Enemy, ", "), 60),
		}
		pdf.SetXY(margin+10, y)
		for i, c := range columns {
			pdf.CellFormat(c.w, rowH, tr(cells[i]), "", 0, "L", false, 0, "")
		}
		y += rowH
	}
	return y
}

func drawQueue(pdf *gofpdf.Fpdf, tr func(string) string, enemies []tower.Enemy, y float64, newPage func()) {
	if y > pageH-margin-3*rowH {
		newPage()
		y = margin + 20
	}
	pdf.SetFont("Helvetica", "B", fontSize)
	pdf.SetXY(margin+10, y)
	pdf.CellFormat(200, rowH, fmt.Sprintf("Still standing: %d", len(enemies)), "", 0, "L", false, 0, "")
	y += rowH
	pdf.SetFont("Helvetica", "", fontSize)
	for _, e := range enemies {
		if y > pageH-margin-2*rowH {
			newPage()
			y = margin + 20
		}
		pdf.SetXY(margin+10, y)
		line := fmt.Sprintf("E%d (%d lives): %s", e.ID, e.Lives, truncate(strings.Join(e.Species, ", "), 80))
		pdf.CellFormat(pageW-2*margin-20, rowH, tr(line), "", 0, "L", false, 0, "")
		y += rowH
	}
}

func resultLabel(r battle.Result) string {
	switch r {
	case battle.SideAWins:
		return "won"
	case battle.SideBWins:
		return "lost"
	case battle.Draw:
		return "draw"
	}
	return r.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// drawWavyBorder draws a hand-inked border around the page.
func drawWavyBorder(pdf *gofpdf.Fpdf) {
	pts := wavyRectPoints(margin, margin, pageW-2*margin, pageH-2*margin, 12, 4)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(2)
	pdf.Polygon(pts, "D")
	pdf.SetLineWidth(1)
	pdf.SetDrawColor(80, 50, 30)
}

// wavyRectPoints walks the rectangle clockwise with a sinusoidal wobble.
func wavyRectPoints(x, y, w, h float64, steps int, amp float64) []gofpdf.PointType {
	pts := make([]gofpdf.PointType, 0, steps*4+1)
	edge := func(from, to gofpdf.PointType, fx, fy float64, first int) {
		for i := first; i <= steps; i++ {
			t := float64(i) / float64(steps)
			pts = append(pts, gofpdf.PointType{
				X: from.X + t*(to.X-from.X) + amp*math.Sin(float64(i)*fx),
				Y: from.Y + t*(to.Y-from.Y) + amp*math.Cos(float64(i)*fy),
			})
		}
	}
	tl := gofpdf.PointType{X: x, Y: y}
	tr := gofpdf.PointType{X: x + w, Y: y}
	br := gofpdf.PointType{X: x + w, Y: y + h}
	bl := gofpdf.PointType{X: x, Y: y + h}
	edge(tl, tr, 0.7, 0.5, 0)
	edge(tr, br, 0.6, 0.4, 1)
	edge(br, bl, 0.8, 0.3, 1)
	edge(bl, tl, 0.5, 0.6, 1)
	return pts
}
