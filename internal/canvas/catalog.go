/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package canvas implements the project canvas: a fixed catalog of 13 annotation
// slots laid out on a 10x10 grid, the merge of a persisted layout over the
// catalog defaults, and the store that keeps the working document in sync with
// user edits.
package canvas

// Grid bounds. Every widget satisfies x+w <= Columns and y+h <= RowCeiling.
const (
	Columns    = 10
	RowCeiling = 10
)

// Slot is a static catalog entry with its default placement.
type Slot struct {
	ID    string
	Label string
	X, Y  int
	W, H  int
}

// catalog is the source of truth for what a canvas can contain. Order is the
// rendering order.
var catalog = [...]Slot{
	{ID: "justificativas", Label: "Justificativas", X: 0, Y: 0, W: 2, H: 4},
	{ID: "objsmart", Label: "Objetivo SMART", X: 0, Y: 4, W: 2, H: 3},
	{ID: "beneficios", Label: "Benefícios", X: 0, Y: 7, W: 2, H: 3},
	{ID: "produto", Label: "Produto", X: 2, Y: 0, W: 2, H: 5},
	{ID: "requisitos", Label: "Requisitos", X: 2, Y: 5, W: 2, H: 5},
	{ID: "stakeholders", Label: "Stakeholders", X: 4, Y: 0, W: 2, H: 4},
	{ID: "equipe", Label: "Equipe", X: 4, Y: 4, W: 2, H: 3},
	{ID: "premissas", Label: "Premissas", X: 6, Y: 0, W: 2, H: 4},
	{ID: "grupoentregas", Label: "Grupo de entregas", X: 6, Y: 4, W: 2, H: 6},
	{ID: "restricoes", Label: "Restrições", X: 8, Y: 0, W: 2, H: 3},
	{ID: "riscos", Label: "Riscos", X: 8, Y: 3, W: 2, H: 3},
	{ID: "linhatempo", Label: "Linha do tempo", X: 8, Y: 6, W: 2, H: 2},
	{ID: "custos", Label: "Custos", X: 8, Y: 8, W: 2, H: 2},
}

var slotIndex = func() map[string]int {
	m := make(map[string]int, len(catalog))
	for i, s := range catalog {
		m[s.ID] = i
	}
	return m
}()

// Catalog returns a copy of the slot catalog in rendering order.
func Catalog() []Slot {
	out := make([]Slot, len(catalog))
	copy(out, catalog[:])
	return out
}

// SlotCount is the number of slots every document carries.
func SlotCount() int { return len(catalog) }

// Lookup returns the catalog slot with the given id.
func Lookup(id string) (Slot, bool) {
	i, ok := slotIndex[id]
	if !ok {
		return Slot{}, false
	}
	return catalog[i], true
}

// Default returns the widget record a slot has when nothing was saved for it.
func (s Slot) Default() Widget {
	return Widget{ID: s.ID, X: s.X, Y: s.Y, W: s.W, H: s.H}
}
