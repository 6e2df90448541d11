/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package session

import (
	"errors"
	"testing"
	"time"

	"github.com/zalando/go-keyring"

	"gat2way/internal/domain"
)

type memStore struct {
	blob    []byte
	saveErr error
}

func (m *memStore) Load() ([]byte, error) { return m.blob, nil }
func (m *memStore) Save(b []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.blob = append([]byte(nil), b...)
	return nil
}
func (m *memStore) Delete() error { m.blob = nil; return nil }

func TestLifecycle(t *testing.T) {
	st := &memStore{}
	m := NewManager(st)
	if err := m.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := m.Current(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}

	s := Session{Token: "tok", User: domain.User{ID: 1, Email: "ana@example.org"}, ExpiresAt: time.Now().Add(time.Hour)}
	if err := m.Set(s); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if m.Token() != "tok" {
		t.Fatalf("Token() = %q", m.Token())
	}

	// A fresh process sees the persisted session.
	m2 := NewManager(st)
	if err := m2.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	got, err := m2.Current()
	if err != nil || got.User.Email != "ana@example.org" {
		t.Fatalf("Current() = %+v, %v", got, err)
	}

	if err := m2.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if st.blob != nil || m2.Token() != "" {
		t.Fatalf("logout should remove the persisted session")
	}
}

func TestExpiredSessionIsAbsent(t *testing.T) {
	st := &memStore{}
	m := NewManager(st)
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	if err := m.Set(Session{Token: "t", ExpiresAt: now.Add(time.Minute)}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := m.Current(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expired session should be absent, got %v", err)
	}

	m2 := NewManager(st)
	m2.now = m.now
	if err := m2.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if m2.Token() != "" {
		t.Fatalf("expired session must not load")
	}
}

func TestInitIgnoresGarbage(t *testing.T) {
	m := NewManager(&memStore{blob: []byte("{not json")})
	if err := m.Init(); err != nil {
		t.Fatalf("Init should not fail on garbage: %v", err)
	}
	if m.Token() != "" {
		t.Fatalf("garbage must not produce a session")
	}
}

func TestSetRejectsEmptyTokenAndStoreFailure(t *testing.T) {
	m := NewManager(&memStore{saveErr: errors.New("locked")})
	if err := m.Set(Session{}); err == nil {
		t.Fatalf("expected error for empty token")
	}
	if err := m.Set(Session{Token: "x"}); err == nil {
		t.Fatalf("expected store failure to surface")
	}
	if m.Token() != "" {
		t.Fatalf("failed Set must not install the session")
	}
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	ks := NewKeyringStore()
	if b, err := ks.Load(); err != nil || b != nil {
		t.Fatalf("empty keyring Load = %q, %v", b, err)
	}
	m := NewManager(ks)
	if err := m.Set(Session{Token: "kr-token", User: domain.User{Email: "rui@example.org"}}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	m2 := NewManager(ks)
	if err := m2.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if m2.Token() != "kr-token" {
		t.Fatalf("token not restored from keyring: %q", m2.Token())
	}
	if err := m2.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := ks.Delete(); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
}
