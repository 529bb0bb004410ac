// Package diploma renders completion diplomas as PNG images.
package diploma

import (
	"bytes"
	"fmt"
	"image/color"
	"time"

	"github.com/fogleman/gg"
)

const (
	width  = 1400
	height = 990
)

type Data struct {
	StudentName string
	CourseTitle string
	IssuedAt    time.Time
	Serial      string
}

var (
	paper = color.RGBA{R: 252, G: 249, B: 240, A: 255}
	navy  = color.RGBA{R: 24, G: 43, B: 84, A: 255}
	gold  = color.RGBA{R: 191, G: 148, B: 62, A: 255}
	muted = color.RGBA{R: 90, G: 90, B: 90, A: 255}
)

// Render draws the diploma with the built-in face, scaled per line.
func Render(d Data) ([]byte, error) {
	dc := gg.NewContext(width, height)

	dc.SetColor(paper)
	dc.Clear()

	dc.SetColor(gold)
	dc.SetLineWidth(14)
	dc.DrawRectangle(30, 30, width-60, height-60)
	dc.Stroke()
	dc.SetColor(navy)
	dc.SetLineWidth(3)
	dc.DrawRectangle(60, 60, width-120, height-120)
	dc.Stroke()

	centered(dc, "DIPLOMA", 230, 6, navy)
	centered(dc, "Se otorga el presente reconocimiento a", 380, 2.5, muted)
	centered(dc, d.StudentName, 480, 5, navy)
	centered(dc, "por haber completado satisfactoriamente el curso", 580, 2.5, muted)
	centered(dc, d.CourseTitle, 670, 4, gold)
	centered(dc, "Fecha de emision: "+d.IssuedAt.Format("02/01/2006"), 810, 2, muted)
	if d.Serial != "" {
		centered(dc, "Folio "+d.Serial, 870, 1.5, muted)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func centered(dc *gg.Context, text string, y, scale float64, c color.Color) {
	dc.Push()
	dc.SetColor(c)
	dc.Scale(scale, scale)
	dc.DrawStringAnchored(text, width/2/scale, y/scale, 0.5, 0.5)
	dc.Pop()
}
