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

import "sort"

// Rect is a widget's cell geometry.
type Rect struct {
	X, Y int
	W, H int
}

// Grid is the addressable widget set a rendering layer draws. It knows nothing
// about the slot catalog; any id may be placed or removed.
type Grid struct {
	cols, rows int
	items      map[string]Rect
}

// NewGrid returns an empty grid of cols columns and rows rows.
func NewGrid(cols, rows int) *Grid {
	return &Grid{cols: cols, rows: rows, items: map[string]Rect{}}
}

// Fits reports whether r lies entirely inside the grid.
func (g *Grid) Fits(r Rect) bool {
	return r.X >= 0 && r.Y >= 0 && r.W > 0 && r.H > 0 && r.X+r.W <= g.cols && r.Y+r.H <= g.rows
}

// Put places an item. Out-of-grid geometry is refused.
func (g *Grid) Put(id string, r Rect) bool {
	if !g.Fits(r) {
		return false
	}
	g.place(id, r)
	return true
}

func (g *Grid) place(id string, r Rect) { g.items[id] = r }

// Remove drops an item from the grid.
func (g *Grid) Remove(id string) { delete(g.items, id) }

// Rect returns the geometry of an item.
func (g *Grid) Rect(id string) (Rect, bool) {
	r, ok := g.items[id]
	return r, ok
}

// IDs returns the ids currently on the grid, sorted.
func (g *Grid) IDs() []string {
	ids := make([]string, 0, len(g.items))
	for id := range g.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Cells returns, for each row and column, the id occupying that cell ("" when
// free). When items overlap the one whose id sorts last wins.
func (g *Grid) Cells() [][]string {
	cells := make([][]string, g.rows)
	for y := range cells {
		cells[y] = make([]string, g.cols)
	}
	for _, id := range g.IDs() {
		r := g.items[id]
		for y := r.Y; y < r.Y+r.H && y < g.rows; y++ {
			for x := r.X; x < r.X+r.W && x < g.cols; x++ {
				if x >= 0 && y >= 0 {
					cells[y][x] = id
				}
			}
		}
	}
	return cells
}
