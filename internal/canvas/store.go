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
	"errors"
	"fmt"
)

var (
	ErrNotPlaced   = errors.New("canvas: widgets not placed yet")
	ErrUnknownSlot = errors.New("canvas: unknown slot")
	ErrReadOnly    = errors.New("canvas: operation not allowed in this mode")
	ErrOutOfBounds = errors.New("canvas: geometry outside the grid")
)

// Mode selects which interactions a store accepts.
type Mode int

const (
	// ModeCreate allows content edits and drag/resize.
	ModeCreate Mode = iota
	// ModeEdit allows content edits only.
	ModeEdit
	// ModeReadOnly rejects every change.
	ModeReadOnly
)

func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeEdit:
		return "edit"
	case ModeReadOnly:
		return "readonly"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// State is the lifecycle position of a store.
type State int

const (
	Unloaded State = iota
	Placed
	Editing
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Placed:
		return "placed"
	case Editing:
		return "editing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ChangeFunc receives the full, freshly serialized document after every change.
type ChangeFunc func(Document)

type eventKind int

const (
	evLoad eventKind = iota
	evChange
)

// Store owns the working canvas for one page view. It is not safe for
// concurrent use; the owner drives it from a single goroutine.
type Store struct {
	mode     Mode
	state    State
	onChange ChangeFunc

	grid    *Grid
	content map[string]string
	last    Document
}

// NewStore creates an unloaded store. onChange may be nil.
func NewStore(mode Mode, onChange ChangeFunc) *Store {
	return &Store{mode: mode, onChange: onChange, grid: NewGrid(Columns, RowCeiling), content: map[string]string{}}
}

func (s *Store) Mode() Mode   { return s.mode }
func (s *Store) State() State { return s.state }

// Grid exposes the on-grid widget set, as a rendering layer would see it.
func (s *Store) Grid() *Grid { return s.grid }

// transition is the only place the state changes. It reports whether the event
// is accepted in the current state.
func (s *Store) transition(ev eventKind) (bool, error) {
	switch ev {
	case evLoad:
		if s.state != Unloaded {
			return false, nil
		}
		s.state = Placed
		return true, nil
	case evChange:
		if s.state == Unloaded {
			return false, ErrNotPlaced
		}
		s.state = Editing
		return true, nil
	}
	return false, fmt.Errorf("canvas: unknown event %d", ev)
}

// Load places the widgets from initial merged over the catalog defaults. A nil
// initial means the caller is still loading and nothing is placed. Placement
// happens once: later calls return false and leave every widget untouched.
func (s *Store) Load(initial Partial) bool {
	if initial == nil {
		return false
	}
	if ok, _ := s.transition(evLoad); !ok {
		return false
	}
	doc := Resolve(initial)
	for _, w := range doc.Widgets() {
		s.grid.place(w.ID, Rect{X: w.X, Y: w.Y, W: w.W, H: w.H})
		s.content[w.ID] = w.Content
	}
	s.last = doc
	return true
}

// SetContent replaces the free text of a slot and emits the new document.
func (s *Store) SetContent(id, text string) error {
	if s.mode == ModeReadOnly {
		return ErrReadOnly
	}
	if _, ok := Lookup(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSlot, id)
	}
	if _, err := s.transition(evChange); err != nil {
		return err
	}
	s.content[id] = text
	s.resync()
	return nil
}

// Move drags a widget to a new cell. Only available in ModeCreate; a target
// that leaves the grid is refused.
func (s *Store) Move(id string, x, y int) error {
	return s.reshape(id, func(r Rect) Rect { r.X, r.Y = x, y; return r })
}

// Resize changes a widget's size. Only available in ModeCreate; a size that
// leaves the grid is refused.
func (s *Store) Resize(id string, w, h int) error {
	return s.reshape(id, func(r Rect) Rect { r.W, r.H = w, h; return r })
}

func (s *Store) reshape(id string, f func(Rect) Rect) error {
	if s.mode != ModeCreate {
		return ErrReadOnly
	}
	if _, ok := Lookup(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSlot, id)
	}
	if s.state == Unloaded {
		return ErrNotPlaced
	}
	cur, ok := s.grid.Rect(id)
	if !ok {
		cur = s.fallback(id)
	}
	next := f(cur)
	if !s.grid.Fits(next) {
		return fmt.Errorf("%w: %s to %+v", ErrOutOfBounds, id, next)
	}
	if _, err := s.transition(evChange); err != nil {
		return err
	}
	s.grid.place(id, next)
	s.resync()
	return nil
}

// Sync re-reads the grid and content and emits the document. Rendering layers
// call it after changing the grid directly. A read-only store refuses it.
func (s *Store) Sync() error {
	if s.mode == ModeReadOnly {
		return ErrReadOnly
	}
	if _, err := s.transition(evChange); err != nil {
		return err
	}
	s.resync()
	return nil
}

// resync rebuilds the document from the catalog. Grid items the catalog does
// not know are ignored and slots missing from the grid keep their last
// serialized geometry, so the emitted document always has exactly one record
// per slot.
func (s *Store) resync() {
	doc := make(Document, len(catalog))
	for _, sl := range catalog {
		r, ok := s.grid.Rect(sl.ID)
		if !ok {
			r = s.fallback(sl.ID)
		}
		doc[sl.ID] = Widget{ID: sl.ID, X: r.X, Y: r.Y, W: r.W, H: r.H, Content: s.content[sl.ID]}
	}
	s.last = doc
	if s.onChange != nil {
		s.onChange(doc.Clone())
	}
}

func (s *Store) fallback(id string) Rect {
	if w, ok := s.last[id]; ok {
		return Rect{X: w.X, Y: w.Y, W: w.W, H: w.H}
	}
	sl, _ := Lookup(id)
	return Rect{X: sl.X, Y: sl.Y, W: sl.W, H: sl.H}
}

// Document returns the latest serialized document, or nil before placement.
func (s *Store) Document() Document {
	if s.last == nil {
		return nil
	}
	return s.last.Clone()
}

// Widgets returns the placed widgets in catalog order, or nil before placement.
func (s *Store) Widgets() []Widget {
	if s.last == nil {
		return nil
	}
	return s.last.Widgets()
}

// Content returns the current free text of a slot.
func (s *Store) Content(id string) string { return s.content[id] }

// Close detaches the change callback. The store keeps its last document.
func (s *Store) Close() { s.onChange = nil }
