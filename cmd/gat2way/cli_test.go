/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"gat2way/internal/backend"
	"gat2way/internal/canvas"
	"gat2way/internal/config"
	"gat2way/internal/crash"
	applog "gat2way/internal/log"
	"gat2way/internal/session"
	"gat2way/internal/storage"
)

const (
	testAdmin = "admin@gat2way.test"
	testPass  = "s3cret"
)

type memStore struct{ blob []byte }

func (m *memStore) Load() ([]byte, error)  { return m.blob, nil }
func (m *memStore) Save(blob []byte) error { m.blob = append([]byte(nil), blob...); return nil }
func (m *memStore) Delete() error          { m.blob = nil; return nil }

func newTestApp(t *testing.T) (*app, *memStore) {
	t.Helper()
	db, err := storage.Open(context.Background(), storage.DriverSQLite, "")
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	srv := backend.NewServer(db, backend.ServerOptions{Secret: []byte("cli-secret"), TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost})
	if err := srv.Bootstrap(context.Background(), testAdmin, testPass); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)

	cfg := config.Defaults()
	cfg.Backend.BaseURL = hs.URL
	cfg.General.DraftsDir = filepath.Join(t.TempDir(), "drafts")
	store := &memStore{}
	return &app{
		cfg:      cfg,
		loaded:   true,
		sessions: session.NewManager(store),
		work:     &crash.Work{},
		log:      applog.WithComponent("cli"),
	}, store
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, a *app, args ...string) string {
	t.Helper()
	out, err := run(t, a, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func login(t *testing.T, a *app) {
	t.Helper()
	out := mustRun(t, a, "login", "--email", testAdmin, "--password", testPass)
	if !strings.Contains(out, "Logged in as "+testAdmin) {
		t.Fatalf("login output: %q", out)
	}
}

func TestCommandsRequireLogin(t *testing.T) {
	a, _ := newTestApp(t)
	_, err := run(t, a, "rotas", "list")
	if !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestLoginWhoamiLogout(t *testing.T) {
	a, store := newTestApp(t)
	login(t, a)
	if len(store.blob) == 0 {
		t.Fatalf("session not persisted")
	}
	if out := mustRun(t, a, "whoami"); !strings.Contains(out, "(admin)") {
		t.Fatalf("whoami: %q", out)
	}
	mustRun(t, a, "logout")
	if store.blob != nil || a.sessions.Token() != "" {
		t.Fatalf("session not cleared")
	}
}

func TestLoginPasswordFromEnv(t *testing.T) {
	a, _ := newTestApp(t)
	t.Setenv(EnvPassword, testPass)
	mustRun(t, a, "login", "--email", testAdmin)
	if a.sessions.Token() == "" {
		t.Fatalf("expected a token")
	}
}

func TestRecordsAndOverview(t *testing.T) {
	a, _ := newTestApp(t)
	login(t, a)

	if out := mustRun(t, a, "rotas", "create", "--nome", "Rota Digital"); !strings.Contains(out, "#1 Rota Digital") {
		t.Fatalf("create rota: %q", out)
	}
	if _, err := run(t, a, "rotas", "create", "--nome", "ROTA DIGITAL"); !errors.Is(err, backend.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	out := mustRun(t, a, "programas", "create", "--rota", "1", "--nome", "Conecta", "--cnpj", "11222333000181", "--uf", "pe", "--cidade", "Recife")
	if !strings.Contains(out, "CNPJ: 11.222.333/0001-81") || !strings.Contains(out, "Recife/PE") {
		t.Fatalf("create programa: %q", out)
	}
	mustRun(t, a, "projetos", "create", "--programa", "1", "--nome", "Portal", "--inicio", "2025-01-01", "--fim", "2025-06-30")
	if out := mustRun(t, a, "projetos", "update", "1", "--gerente", "Ana"); !strings.Contains(out, "Gerente: Ana") || !strings.Contains(out, "Período: 2025-01-01 a 2025-06-30") {
		t.Fatalf("update projeto kept other fields? %q", out)
	}
	if out := mustRun(t, a, "projetos", "list", "--programa", "1"); !strings.Contains(out, "not started") {
		t.Fatalf("list projetos: %q", out)
	}

	out = mustRun(t, a, "--json", "overview")
	var ov map[string]int
	if err := json.Unmarshal([]byte(out), &ov); err != nil {
		t.Fatalf("overview json: %v\n%s", err, out)
	}
	if ov["rotas"] != 1 || ov["programas"] != 1 || ov["projetos"] != 1 {
		t.Fatalf("overview: %v", ov)
	}

	if _, err := run(t, a, "rotas", "delete", "1"); !errors.Is(err, backend.ErrConflict) {
		t.Fatalf("expected conflict deleting referenced rota, got %v", err)
	}
	if out := mustRun(t, a, "projetos", "delete", "1"); !strings.Contains(out, "Deleted projeto 1") {
		t.Fatalf("delete: %q", out)
	}
}

func TestCanvasDraftSubmitFlow(t *testing.T) {
	a, _ := newTestApp(t)
	login(t, a)
	mustRun(t, a, "rotas", "create", "--nome", "Rota")
	mustRun(t, a, "programas", "create", "--rota", "1", "--nome", "Programa", "--cnpj", "11222333000181", "--uf", "PE")
	mustRun(t, a, "projetos", "create", "--programa", "1", "--nome", "Projeto", "--inicio", "2025-01-01", "--fim", "2025-12-31")

	mustRun(t, a, "canvas", "set", "1", "produto", "Plataforma de dados")
	d, err := a.draftStore()
	if err != nil {
		t.Fatalf("drafts: %v", err)
	}
	if _, err := os.Stat(d.Path(1)); err != nil {
		t.Fatalf("draft not written: %v", err)
	}
	if out := mustRun(t, a, "canvas", "resize", "1", "custos", "2", "1"); !strings.Contains(out, "w=2 h=1") {
		t.Fatalf("resize: %q", out)
	}
	if _, err := run(t, a, "canvas", "move", "1", "custos", "9", "9"); !errors.Is(err, canvas.ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}

	// the server copy is untouched until submit
	if out := mustRun(t, a, "projetos", "show", "1"); !strings.Contains(out, "Canvas: not started") {
		t.Fatalf("canvas leaked before submit: %q", out)
	}
	mustRun(t, a, "canvas", "submit", "1")
	if _, err := os.Stat(d.Path(1)); !os.IsNotExist(err) {
		t.Fatalf("draft should be removed after submit, stat err %v", err)
	}
	if out := mustRun(t, a, "projetos", "show", "1"); !strings.Contains(out, "1/13 filled") {
		t.Fatalf("projeto after submit: %q", out)
	}

	out := mustRun(t, a, "--json", "canvas", "show", "1")
	var doc map[string]canvas.Widget
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("show json: %v\n%s", err, out)
	}
	if doc["produto"].Content != "Plataforma de dados" || doc["custos"].H != 1 {
		t.Fatalf("saved canvas: %+v %+v", doc["produto"], doc["custos"])
	}

	// once saved the layout is fixed but content stays editable
	if _, err := run(t, a, "canvas", "resize", "1", "custos", "2", "2"); !errors.Is(err, canvas.ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
	mustRun(t, a, "canvas", "set", "1", "riscos", "Prazo curto", "--submit")
	if out := mustRun(t, a, "projetos", "show", "1"); !strings.Contains(out, "2/13 filled") {
		t.Fatalf("projeto after second submit: %q", out)
	}
}

func TestCanvasDiscardAndExport(t *testing.T) {
	a, _ := newTestApp(t)
	login(t, a)
	mustRun(t, a, "rotas", "create", "--nome", "Rota")
	mustRun(t, a, "programas", "create", "--rota", "1", "--nome", "Programa", "--cnpj", "11222333000181", "--uf", "PE")
	mustRun(t, a, "projetos", "create", "--programa", "1", "--nome", "Projeto", "--inicio", "2025-01-01", "--fim", "2025-12-31")

	mustRun(t, a, "canvas", "set", "1", "produto", "rascunho")
	mustRun(t, a, "canvas", "discard", "1")
	out := mustRun(t, a, "--json", "canvas", "show", "1", "--draft")
	var doc map[string]canvas.Widget
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("show json: %v", err)
	}
	if doc["produto"].Content != "" {
		t.Fatalf("discarded draft still visible: %+v", doc["produto"])
	}

	dir := t.TempDir()
	pngPath := filepath.Join(dir, "canvas.png")
	mustRun(t, a, "canvas", "export", "1", "-o", pngPath)
	b, err := os.ReadFile(pngPath)
	if err != nil || !bytes.HasPrefix(b, []byte("\x89PNG")) {
		t.Fatalf("png export: %v", err)
	}
	pdfPath := filepath.Join(dir, "out.bin")
	mustRun(t, a, "canvas", "export", "1", "-o", pdfPath, "--format", "pdf")
	if b, err := os.ReadFile(pdfPath); err != nil || !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatalf("pdf export: %v", err)
	}
}

func TestCidadesAndCNPJ(t *testing.T) {
	a, _ := newTestApp(t)
	login(t, a)
	out := mustRun(t, a, "cidades", "pe")
	if !strings.Contains(out, "Olinda") || !strings.Contains(out, "Recife") {
		t.Fatalf("cidades: %q", out)
	}
	if strings.Index(out, "Olinda") > strings.Index(out, "Recife") {
		t.Fatalf("cidades not sorted: %q", out)
	}

	if out := mustRun(t, a, "cnpj", "11222333000181"); !strings.Contains(out, "11.222.333/0001-81 valid") {
		t.Fatalf("cnpj: %q", out)
	}
	if _, err := run(t, a, "cnpj", "11222333000180"); err == nil {
		t.Fatalf("expected invalid cnpj error")
	}
}

func TestConfigSetAndShow(t *testing.T) {
	a, _ := newTestApp(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(config.EnvConfigFile, path)
	mustRun(t, a, "config", "set", "backend.timeout_ms", "3000")
	if a.cfg.Backend.TimeoutMs != 3000 {
		t.Fatalf("timeout not applied: %d", a.cfg.Backend.TimeoutMs)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	if out := mustRun(t, a, "config", "show"); !strings.Contains(out, "timeout_ms: 3000") || !strings.Contains(out, path) {
		t.Fatalf("config show: %q", out)
	}
	if _, err := run(t, a, "config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected unknown setting error")
	}
}

func TestVersion(t *testing.T) {
	a, _ := newTestApp(t)
	if out := mustRun(t, a, "version"); !strings.HasPrefix(out, "gat2way ") {
		t.Fatalf("version: %q", out)
	}
}
