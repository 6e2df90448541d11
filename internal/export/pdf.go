/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export renders a projeto canvas to printable and raster formats.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"gat2way/internal/canvas"
	"gat2way/internal/domain"
)

// PDFOptions controls PDF export behavior.
// Units are points (pt). Built-in Helvetica keeps text vector without embedding.
type PDFOptions struct {
	Author    string
	ShowGrid  bool // draw the 10x10 cell hairlines under the widgets
	FontSize  float64
	GridColor [3]int
}

const (
	pageW     = 842.0 // A4 landscape
	pageH     = 595.0
	margin    = 28.0
	titleH    = 40.0
	lineRatio = 1.25
)

// CanvasPDF writes a single landscape page with the canvas grid, each widget's
// label and its content.
func CanvasPDF(w io.Writer, p domain.Projeto, doc canvas.Document, opt PDFOptions) error {
	if len(doc) == 0 {
		return fmt.Errorf("canvas is empty")
	}
	fs := opt.FontSize
	if fs <= 0 {
		fs = 8
	}
	gridCol := opt.GridColor
	if gridCol == [3]int{} {
		gridCol = [3]int{220, 220, 220}
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: pageW, Ht: pageH},
	})
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Canvas - "+p.Nome), false)
	if opt.Author != "" {
		pdf.SetAuthor(tr(opt.Author), false)
	}
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(margin, margin+14, tr(p.Nome))
	pdf.SetFont("Helvetica", "", 9)
	var meta []string
	if p.Gerente != "" {
		meta = append(meta, "Gerente: "+p.Gerente)
	}
	if p.Inicio != "" || p.Fim != "" {
		meta = append(meta, fmt.Sprintf("Período: %s a %s", p.Inicio, p.Fim))
	}
	if len(meta) > 0 {
		pdf.Text(margin, margin+28, tr(strings.Join(meta, "   ")))
	}

	top := margin + titleH
	cellW := (pageW - 2*margin) / canvas.Columns
	cellH := (pageH - top - margin) / canvas.RowCeiling

	if opt.ShowGrid {
		pdf.SetDrawColor(gridCol[0], gridCol[1], gridCol[2])
		pdf.SetLineWidth(0.2)
		for c := 0; c <= canvas.Columns; c++ {
			x := margin + float64(c)*cellW
			pdf.Line(x, top, x, top+canvas.RowCeiling*cellH)
		}
		for r := 0; r <= canvas.RowCeiling; r++ {
			y := top + float64(r)*cellH
			pdf.Line(margin, y, margin+canvas.Columns*cellW, y)
		}
	}

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.8)
	for i, wd := range doc.Widgets() {
		x := margin + float64(wd.X)*cellW
		y := top + float64(wd.Y)*cellH
		ww := float64(wd.W) * cellW
		hh := float64(wd.H) * cellH
		c := palette[i%len(palette)]
		pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
		pdf.Rect(x, y, ww, hh, "FD")

		label := wd.ID
		if s, ok := canvas.Lookup(wd.ID); ok {
			label = s.Label
		}
		pdf.SetFont("Helvetica", "B", fs+1)
		pdf.Text(x+4, y+fs+4, tr(label))

		if wd.Content == "" {
			continue
		}
		pdf.SetFont("Helvetica", "", fs)
		lh := fs * lineRatio
		maxLines := int((hh - fs - 10) / lh)
		ty := y + fs + 6
		n := 0
		for _, para := range strings.Split(wd.Content, "\n") {
			for _, line := range pdf.SplitLines([]byte(tr(para)), ww-8) {
				if n >= maxLines {
					break
				}
				ty += lh
				pdf.Text(x+4, ty, string(line))
				n++
			}
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
