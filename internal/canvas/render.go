/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"fmt"
	"io"
	"strings"
)

// Render writes a plain-text view of doc: a Columns x RowCeiling map where each
// slot is drawn with its catalog letter, followed by a legend with the content.
func Render(w io.Writer, doc Document) error {
	g := NewGrid(Columns, RowCeiling)
	letters := map[string]byte{}
	for i, s := range catalog {
		letters[s.ID] = byte('A' + i)
		if wd, ok := doc[s.ID]; ok {
			g.place(s.ID, Rect{X: wd.X, Y: wd.Y, W: wd.W, H: wd.H})
		}
	}
	var b strings.Builder
	b.WriteString("   ")
	for x := 0; x < Columns; x++ {
		fmt.Fprintf(&b, "%d", x)
	}
	b.WriteString("\n")
	for y, row := range g.Cells() {
		fmt.Fprintf(&b, "%2d ", y)
		for _, id := range row {
			if id == "" {
				b.WriteByte('.')
				continue
			}
			b.WriteByte(letters[id])
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	for _, wd := range doc.Widgets() {
		s, _ := Lookup(wd.ID)
		fmt.Fprintf(&b, "%c %-18s (%d,%d %dx%d)", letters[wd.ID], s.Label, wd.X, wd.Y, wd.W, wd.H)
		if c := strings.TrimSpace(wd.Content); c != "" {
			b.WriteString("  ")
			b.WriteString(strings.ReplaceAll(c, "\n", " / "))
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
