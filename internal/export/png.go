/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"gat2way/internal/canvas"
)

// PNGOptions controls PNG export behavior.
// - Cell: pixel size of one grid cell (default 64)
// - Labels: draw slot labels and the first content line with basicfont
type PNGOptions struct {
	Cell   int
	Labels bool
}

// palette holds one pastel fill per catalog slot, in catalog order.
var palette = []color.RGBA{
	{255, 236, 179, 255}, {255, 224, 178, 255}, {255, 205, 210, 255},
	{225, 190, 231, 255}, {209, 196, 233, 255}, {197, 202, 233, 255},
	{187, 222, 251, 255}, {179, 229, 252, 255}, {178, 235, 242, 255},
	{178, 223, 219, 255}, {200, 230, 201, 255}, {220, 237, 200, 255},
	{240, 244, 195, 255},
}

var (
	white  = color.RGBA{255, 255, 255, 255}
	black  = color.RGBA{0, 0, 0, 255}
	ink    = color.RGBA{33, 33, 33, 255}
	gridLn = color.RGBA{230, 230, 230, 255}
)

// CanvasPNG draws the canvas as a raster preview of Columns x RowCeiling cells.
func CanvasPNG(w io.Writer, doc canvas.Document, opt PNGOptions) error {
	if len(doc) == 0 {
		return fmt.Errorf("canvas is empty")
	}
	cell := opt.Cell
	if cell <= 0 {
		cell = 64
	}
	pixW := canvas.Columns*cell + 1
	pixH := canvas.RowCeiling*cell + 1

	img := image.NewRGBA(image.Rect(0, 0, pixW, pixH))
	// Background white
	draw.Draw(img, img.Bounds(), &image.Uniform{C: white}, image.Point{}, draw.Src)
	for c := 0; c <= canvas.Columns; c++ {
		strokeRect(img, c*cell, 0, c*cell, pixH-1, gridLn)
	}
	for r := 0; r <= canvas.RowCeiling; r++ {
		strokeRect(img, 0, r*cell, pixW-1, r*cell, gridLn)
	}

	for i, wd := range doc.Widgets() {
		x0, y0 := wd.X*cell, wd.Y*cell
		x1, y1 := (wd.X+wd.W)*cell, (wd.Y+wd.H)*cell
		fillRect(img, x0, y0, x1, y1, palette[i%len(palette)])
		strokeRect(img, x0, y0, x1, y1, black)
		if !opt.Labels {
			continue
		}
		label := wd.ID
		if s, ok := canvas.Lookup(wd.ID); ok {
			label = s.Label
		}
		maxW := x1 - x0 - 6
		drawText(img, x0+4, y0+14, fit(label, maxW), black)
		if first, _, _ := strings.Cut(wd.Content, "\n"); first != "" {
			drawText(img, x0+4, y0+30, fit(first, maxW), ink)
		}
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// fit truncates s to what basicfont can draw in maxW pixels.
func fit(s string, maxW int) string {
	d := &font.Drawer{Face: basicfont.Face7x13}
	if d.MeasureString(s).Ceil() <= maxW {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && d.MeasureString(string(r)+"…").Ceil() > maxW {
		r = r[:len(r)-1]
	}
	if len(r) == 0 {
		return ""
	}
	return string(r) + "…"
}

func drawText(img *image.RGBA, x, y int, s string, col color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	// top and bottom
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	// left and right
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}
