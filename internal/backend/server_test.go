/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"gat2way/internal/domain"
	"gat2way/internal/storage"
)

const (
	adminEmail = "admin@gat2way.test"
	adminPass  = "s3cret"
	userEmail  = "ana@gat2way.test"
	userPass   = "ana-pass"
)

type testEnv struct {
	srv  *Server
	http *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := storage.Open(context.Background(), storage.DriverSQLite, "")
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	s := NewServer(db, ServerOptions{Secret: []byte("test-secret"), TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost})
	if err := s.Bootstrap(context.Background(), adminEmail, adminPass); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if _, err := s.CreateUser(context.Background(), "Ana", userEmail, userPass, false); err != nil {
		t.Fatalf("create user: %v", err)
	}
	hs := httptest.NewServer(s.Handler())
	t.Cleanup(hs.Close)
	return &testEnv{srv: s, http: hs}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.http.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.http.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *testEnv) login(t *testing.T, email, pass string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"`+email+`","password":"`+pass+`"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status %d", resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Token == "" {
		t.Fatalf("login body: %v", err)
	}
	return out.Token
}

func TestHealthAndVersion(t *testing.T) {
	e := newTestEnv(t)
	for _, p := range []string{"/healthz", "/readyz", "/version"} {
		if resp := e.do(t, http.MethodGet, p, "", ""); resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status %d", p, resp.StatusCode)
		}
	}
}

func TestRequestIDEchoedOrAssigned(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(t, http.MethodGet, "/healthz", "", "")
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("missing assigned request id")
	}
	req, _ := http.NewRequest(http.MethodGet, e.http.URL+"/healthz", nil)
	const rid = "3f1c2f8e-8a43-4f8e-9d55-6c1f6f0a8b11"
	req.Header.Set("X-Request-ID", rid)
	resp2, err := e.http.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if got := resp2.Header.Get("X-Request-ID"); got != rid {
		t.Fatalf("request id not echoed: %q", got)
	}
}

func TestAuthRequiredAndLogoutRevokes(t *testing.T) {
	e := newTestEnv(t)
	if resp := e.do(t, http.MethodGet, "/api/rotas", "", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	if resp := e.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"`+adminEmail+`","password":"nope"}`); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	tok := e.login(t, adminEmail, adminPass)
	if resp := e.do(t, http.MethodGet, "/api/auth/me", tok, ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("me: %d", resp.StatusCode)
	}
	if resp := e.do(t, http.MethodPost, "/api/auth/logout", tok, ""); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout: %d", resp.StatusCode)
	}
	if resp := e.do(t, http.MethodGet, "/api/auth/me", tok, ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected revoked token to fail, got %d", resp.StatusCode)
	}
}

func TestTokenSignVerify(t *testing.T) {
	secret := []byte("k")
	now := time.Now()
	tok, err := signToken(secret, 7, now.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	c, err := verifyToken(secret, tok, now)
	if err != nil || c.Sub != 7 {
		t.Fatalf("verify: %+v %v", c, err)
	}
	if _, err := verifyToken([]byte("other"), tok, now); err == nil {
		t.Fatal("expected bad signature")
	}
	if _, err := verifyToken(secret, tok, now.Add(time.Hour)); err == nil {
		t.Fatal("expected expiry")
	}
	if _, err := verifyToken(secret, "garbage", now); err == nil {
		t.Fatal("expected format error")
	}
	other, _ := signToken(secret, 7, now.Add(time.Minute))
	if other == tok {
		t.Fatal("tokens for the same user must differ")
	}
}

func TestDeleteRequiresAdmin(t *testing.T) {
	e := newTestEnv(t)
	tok := e.login(t, userEmail, userPass)
	resp := e.do(t, http.MethodPost, "/api/rotas", tok, `{"nome":"Rota 1"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d", resp.StatusCode)
	}
	if resp := e.do(t, http.MethodDelete, "/api/rotas/1", tok, ""); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	admin := e.login(t, adminEmail, adminPass)
	if resp := e.do(t, http.MethodDelete, "/api/rotas/1", admin, ""); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("admin delete: %d", resp.StatusCode)
	}
}

func TestValidationErrors(t *testing.T) {
	e := newTestEnv(t)
	tok := e.login(t, adminEmail, adminPass)
	cases := []struct {
		name, method, path, body string
		want                     int
	}{
		{"rota without name", http.MethodPost, "/api/rotas", `{"nome":" "}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/api/rotas", `{`, http.StatusBadRequest},
		{"bad id", http.MethodGet, "/api/rotas/abc", "", http.StatusBadRequest},
		{"missing rota", http.MethodGet, "/api/rotas/99", "", http.StatusNotFound},
		{"programa missing rota", http.MethodPost, "/api/programas", `{"rota_id":99,"nome":"P","cnpj":"11222333000181"}`, http.StatusBadRequest},
		{"cidades without uf", http.MethodGet, "/api/cidades", "", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if resp := e.do(t, tc.method, tc.path, tok, tc.body); resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}
}

func TestValidateProjetoNormalizesCanvas(t *testing.T) {
	p := validProjeto(`{"riscos":{"x":8,"y":8,"w":2,"h":4,"content":"x"},"ghost":{"x":0,"y":0,"w":1,"h":1}}`)
	if err := validateProjeto(&p); err != nil {
		t.Fatalf("validate: %v", err)
	}
	var m map[string]struct{ X, Y, W, H int }
	if err := json.Unmarshal(p.Canvas, &m); err != nil {
		t.Fatal(err)
	}
	if len(m) != 13 {
		t.Fatalf("expected full document, got %d widgets", len(m))
	}
	if _, ok := m["ghost"]; ok {
		t.Fatal("unknown widget persisted")
	}
	if r := m["riscos"]; r.Y != 6 || r.H != 4 {
		t.Fatalf("riscos not clamped: %+v", r)
	}

	neg := validProjeto(`{"riscos":{"x":-1,"y":-2,"w":0,"h":2}}`)
	if err := validateProjeto(&neg); err != nil {
		t.Fatalf("out-of-grid geometry must be clamped, got %v", err)
	}
	m = nil
	if err := json.Unmarshal(neg.Canvas, &m); err != nil {
		t.Fatal(err)
	}
	if r := m["riscos"]; r.X != 0 || r.Y != 0 || r.W != 2 || r.H != 2 {
		t.Fatalf("riscos not clamped to the grid: %+v", r)
	}
	bad := validProjeto(`{"riscos":{"x":"1"}}`)
	if err := validateProjeto(&bad); err == nil {
		t.Fatal("expected schema error for non-integer x")
	}
	dates := validProjeto("")
	dates.Inicio, dates.Fim = "2025-05-01", "2025-01-01"
	if err := validateProjeto(&dates); err == nil {
		t.Fatal("expected fim before inicio error")
	}
}

func validProjeto(canvasJSON string) domain.Projeto {
	p := domain.Projeto{ProgramaID: 1, Nome: "Projeto"}
	if canvasJSON != "" {
		p.Canvas = json.RawMessage(canvasJSON)
	}
	return p
}
