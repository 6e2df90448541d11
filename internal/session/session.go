/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package session holds the process-wide login state: the bearer token and the
// user it belongs to. It is loaded once at start-up from the OS keychain,
// changed only by login and logout, and read everywhere else through Manager.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zalando/go-keyring"

	"gat2way/internal/domain"
	applog "gat2way/internal/log"
)

// Service/keys for OS keyring.
const (
	keyringService = "Gat2way"
	keyringKey     = "session"
)

var ErrNoSession = errors.New("session: not logged in")

// Session is what a successful login yields.
type Session struct {
	Token     string      `json:"token"`
	User      domain.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Expired reports whether the session is past its expiry. A zero ExpiresAt never expires.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store persists the session between runs.
type Store interface {
	Load() ([]byte, error)
	Save(blob []byte) error
	Delete() error
}

// KeyringStore implements Store using the OS keyring via github.com/zalando/go-keyring.
type KeyringStore struct {
	Service string
	Key     string
}

func NewKeyringStore() *KeyringStore {
	return &KeyringStore{Service: keyringService, Key: keyringKey}
}

func (k *KeyringStore) Load() ([]byte, error) {
	v, err := keyring.Get(k.Service, k.Key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(v), nil
}

func (k *KeyringStore) Save(blob []byte) error {
	return keyring.Set(k.Service, k.Key, string(blob))
}

func (k *KeyringStore) Delete() error {
	err := keyring.Delete(k.Service, k.Key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// Manager guards the current session. It is safe for concurrent use.
type Manager struct {
	store Store
	now   func() time.Time
	log   *slog.Logger

	mu  sync.RWMutex
	cur *Session
}

func NewManager(store Store) *Manager {
	return &Manager{store: store, now: time.Now, log: applog.WithComponent("session")}
}

// Init loads the persisted session. A missing, unreadable or expired session
// leaves the manager logged out; only store failures are returned.
func (m *Manager) Init() error {
	blob, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cur = nil
	if len(blob) == 0 {
		return nil
	}
	var s Session
	if err := json.Unmarshal(blob, &s); err != nil {
		m.log.Warn("discarding unreadable session", slog.Any("err", err))
		return nil
	}
	if s.Token == "" || s.Expired(m.now()) {
		m.log.Info("stored session expired")
		return nil
	}
	m.cur = &s
	return nil
}

// Current returns the active session or ErrNoSession.
func (m *Manager) Current() (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cur == nil || m.cur.Expired(m.now()) {
		return Session{}, ErrNoSession
	}
	return *m.cur, nil
}

// Token returns the active bearer token, or "" when logged out.
func (m *Manager) Token() string {
	s, err := m.Current()
	if err != nil {
		return ""
	}
	return s.Token
}

// Set installs a new session (login) and persists it.
func (m *Manager) Set(s Session) error {
	if s.Token == "" {
		return errors.New("session: empty token")
	}
	blob, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := m.store.Save(blob); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	m.mu.Lock()
	m.cur = &s
	m.mu.Unlock()
	m.log.Info("logged in", slog.String("user", s.User.Email))
	return nil
}

// Clear ends the session (logout) and removes the persisted copy.
func (m *Manager) Clear() error {
	m.mu.Lock()
	m.cur = nil
	m.mu.Unlock()
	if err := m.store.Delete(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

var (
	defaultManager *Manager
	defaultOnce    sync.Once
	defaultErr     error
)

// Default returns the process-wide manager backed by the OS keyring, loading
// it on first use.
func Default() (*Manager, error) {
	defaultOnce.Do(func() {
		defaultManager = NewManager(NewKeyringStore())
		defaultErr = defaultManager.Init()
	})
	return defaultManager, defaultErr
}
