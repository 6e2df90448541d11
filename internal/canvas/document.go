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
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Widget is the concrete geometry and content of one slot in one document.
type Widget struct {
	ID      string `json:"-"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	W       int    `json:"w"`
	H       int    `json:"h"`
	Content string `json:"content"`
}

// Document maps slot id to widget record. It is the unit exchanged with the API.
type Document map[string]Widget

// PartialWidget is a persisted record in which any field may be missing.
type PartialWidget struct {
	X       *int    `json:"x,omitempty"`
	Y       *int    `json:"y,omitempty"`
	W       *int    `json:"w,omitempty"`
	H       *int    `json:"h,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Partial is a previously saved layout as read from the API. A nil Partial means
// the caller has not finished loading; an empty one means nothing was saved.
type Partial map[string]PartialWidget

// Decode parses a persisted layout blob. An empty blob or JSON null yields an
// empty, non-nil Partial. Entries whose value is not a widget object are
// skipped, and within a widget each field is read on its own: a field of the
// wrong type is left unset so only that field falls back to its default.
func Decode(raw []byte) (Partial, error) {
	out := Partial{}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out, nil
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode canvas: %w", err)
	}
	for id, v := range entries {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(v, &fields); err != nil || fields == nil {
			continue
		}
		out[id] = PartialWidget{
			X:       field[int](fields, "x"),
			Y:       field[int](fields, "y"),
			W:       field[int](fields, "w"),
			H:       field[int](fields, "h"),
			Content: field[string](fields, "content"),
		}
	}
	return out, nil
}

// field returns the named value, or nil when it is absent, null or not a T.
func field[T any](fields map[string]json.RawMessage, name string) *T {
	raw, ok := fields[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

// Resolve merges saved over the catalog defaults and returns a full document.
// Each geometry field falls back to the slot default independently, content
// falls back to "", unknown ids are dropped and geometry is clamped into the grid.
func Resolve(saved Partial) Document {
	doc := make(Document, len(catalog))
	for _, s := range catalog {
		w := s.Default()
		if p, ok := saved[s.ID]; ok {
			w = p.over(w)
		}
		doc[s.ID] = clamp(w, s)
	}
	return doc
}

func (p PartialWidget) over(w Widget) Widget {
	if p.X != nil {
		w.X = *p.X
	}
	if p.Y != nil {
		w.Y = *p.Y
	}
	if p.W != nil {
		w.W = *p.W
	}
	if p.H != nil {
		w.H = *p.H
	}
	if p.Content != nil {
		w.Content = *p.Content
	}
	return w
}

// clamp pulls a widget back inside the grid by moving it, never by shrinking it.
// Sizes that could not fit at all fall back to the slot default or the grid
// bound: a height above the row ceiling is the one case where h is reduced.
func clamp(w Widget, s Slot) Widget {
	if w.W <= 0 {
		w.W = s.W
	}
	if w.H <= 0 {
		w.H = s.H
	}
	if w.W > Columns {
		w.W = Columns
	}
	if w.H > RowCeiling {
		w.H = RowCeiling
	}
	if w.X < 0 {
		w.X = 0
	}
	if w.Y < 0 {
		w.Y = 0
	}
	if w.X+w.W > Columns {
		w.X = Columns - w.W
	}
	if w.Y+w.H > RowCeiling {
		w.Y = RowCeiling - w.H
	}
	return w
}

// Partial converts a full document back into the loadable form.
func (d Document) Partial() Partial {
	out := make(Partial, len(d))
	for id, w := range d {
		x, y, wd, h, c := w.X, w.Y, w.W, w.H, w.Content
		out[id] = PartialWidget{X: &x, Y: &y, W: &wd, H: &h, Content: &c}
	}
	return out
}

// Widgets returns the document's records in catalog order.
func (d Document) Widgets() []Widget {
	out := make([]Widget, 0, len(d))
	for _, s := range catalog {
		if w, ok := d[s.ID]; ok {
			w.ID = s.ID
			out = append(out, w)
		}
	}
	return out
}

// IDs returns the document keys sorted.
func (d Document) IDs() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for id, w := range d {
		out[id] = w
	}
	return out
}

// Encode serializes the document in the persisted layout shape.
func (d Document) Encode() ([]byte, error) {
	return json.Marshal(map[string]Widget(d))
}

// UnmarshalJSON fills Widget.ID from the map key, which the wire format omits.
func (d *Document) UnmarshalJSON(b []byte) error {
	var m map[string]Widget
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	out := make(Document, len(m))
	for id, w := range m {
		w.ID = id
		out[id] = w
	}
	*d = out
	return nil
}
