/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type sink struct {
	mu      sync.Mutex
	events  [][]byte
	crashes [][]byte
	srv     *httptest.Server
}

func newSink(t *testing.T) *sink {
	s := &sink{}
	mux := http.NewServeMux()
	record := func(dst *[][]byte) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			_ = r.Body.Close()
			s.mu.Lock()
			*dst = append(*dst, b)
			s.mu.Unlock()
			w.WriteHeader(http.StatusOK)
		}
	}
	mux.HandleFunc("/events", record(&s.events))
	mux.HandleFunc("/crash", record(&s.crashes))
	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *sink) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events), len(s.crashes)
}

func TestClient_EventAndUploadCrash(t *testing.T) {
	s := newSink(t)
	c := New(Config{OptIn: true, EventsURL: s.srv.URL + "/events", CrashURL: s.srv.URL + "/crash", Timeout: 2 * time.Second})
	defer c.Close()
	if !c.Enabled() {
		t.Fatalf("expected client to be enabled")
	}

	c.Event(EventProjetoSaved, map[string]any{"widgets": 13, "nome": "secret projeto"})
	c.UploadCrash([]byte("STACKTRACE"))
	c.Flush(context.Background())

	ev, cr := s.counts()
	if ev != 1 || cr != 1 {
		t.Fatalf("expected one event and one crash, got %d/%d", ev, cr)
	}
	var m map[string]any
	if err := json.Unmarshal(s.events[0], &m); err != nil {
		t.Fatalf("bad event json: %v", err)
	}
	if m["name"] != EventProjetoSaved {
		t.Fatalf("event name mismatch: %v", m["name"])
	}
	if _, ok := m["ts"].(string); !ok {
		t.Fatalf("missing ts field")
	}
	if _, leaked := m["nome"]; leaked {
		t.Fatalf("string property must be dropped")
	}
	if m["widgets"] != float64(13) {
		t.Fatalf("numeric property lost: %v", m["widgets"])
	}
	if string(s.crashes[0]) != "STACKTRACE" {
		t.Fatalf("crash body: %q", s.crashes[0])
	}
}

func TestClient_DisabledAndUnknownEvents(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Config{OptIn: false, EventsURL: srv.URL, CrashURL: srv.URL, Timeout: time.Second})
	defer c.Close()
	if c.Enabled() {
		t.Fatalf("expected disabled client")
	}
	c.Event(EventLogin, nil)
	c.UploadCrash([]byte("ignored"))

	c2 := New(Config{OptIn: true, EventsURL: srv.URL, Timeout: time.Second})
	defer c2.Close()
	c2.Event("", nil)
	c2.Event("clicked_button", nil)
	c2.Flush(nil)
	c.Flush(context.Background())
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("expected no requests, got %d", hits)
	}
}

func TestTelemetry_SendErrorBranches(t *testing.T) {
	c := New(Config{
		OptIn:        true,
		EventsURL:    "http://127.0.0.1:1/events",
		CrashURL:     "http://127.0.0.1:1/crash",
		Timeout:      50 * time.Millisecond,
		DebugLogging: true,
	})
	defer c.Close()
	// failures are swallowed
	c.Event(EventLogin, map[string]any{"a": 1})
	c.UploadCrash([]byte("oops"))
	c.Flush(context.Background())
}

func TestFromEnvAndDefault(t *testing.T) {
	t.Setenv("GTW_TELEMETRY_OPT_IN", "yes")
	t.Setenv("GTW_TELEMETRY_URL", " http://example.invalid/e ")
	t.Setenv("GTW_TELEMETRY_TIMEOUT_MS", "250")
	cfg := FromEnv()
	if !cfg.OptIn || cfg.EventsURL != "http://example.invalid/e" || cfg.Timeout != 250*time.Millisecond {
		t.Fatalf("unexpected cfg %+v", cfg)
	}
	c := SetDefault(Config{})
	if Default() != c {
		t.Fatal("SetDefault not installed")
	}
	if Default().Enabled() {
		t.Fatal("empty config must be disabled")
	}
}
