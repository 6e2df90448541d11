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
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"gat2way/internal/canvas"
	"gat2way/internal/cnpj"
	"gat2way/internal/config"
	"gat2way/internal/domain"
)

func loggedInClient(t *testing.T, e *testEnv) *Client {
	t.Helper()
	c := NewClient(e.http.URL+"/", "")
	s, err := c.Login(context.Background(), adminEmail, adminPass)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if s.Token == "" || s.User.Email != adminEmail || !s.User.Admin || s.ExpiresAt.IsZero() {
		t.Fatalf("unexpected session %+v", s)
	}
	return c
}

func TestClientCRUDFlow(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	c := loggedInClient(t, e)

	rota, err := c.CreateRota(ctx, domain.Rota{Nome: "Rota Digital"})
	if err != nil {
		t.Fatalf("create rota: %v", err)
	}
	if _, err := c.CreateRota(ctx, domain.Rota{Nome: "rota digital"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	prog, err := c.CreatePrograma(ctx, domain.Programa{RotaID: rota.ID, Nome: "Programa", CNPJ: "11.222.333/0001-81", UF: "pe", Cidade: "Recife"})
	if err != nil {
		t.Fatalf("create programa: %v", err)
	}
	if prog.CNPJ != "11222333000181" || prog.UF != "PE" {
		t.Fatalf("programa not normalized: %+v", prog)
	}
	if _, err := c.CreatePrograma(ctx, domain.Programa{RotaID: rota.ID, Nome: "Outro", CNPJ: "11222333000180"}); !errors.Is(err, cnpj.ErrInvalid) {
		t.Fatalf("expected client-side cnpj error, got %v", err)
	}

	doc := canvas.Resolve(nil)
	w := doc["produto"]
	w.Content = "Plataforma"
	doc["produto"] = w
	p := domain.Projeto{ProgramaID: prog.ID, Nome: "Projeto", Inicio: "2025-01-01", Fim: "2025-12-31"}
	if err := BundleCanvas(&p, doc); err != nil {
		t.Fatalf("bundle: %v", err)
	}
	proj, err := c.CreateProjeto(ctx, p)
	if err != nil {
		t.Fatalf("create projeto: %v", err)
	}
	got, err := c.GetProjeto(ctx, proj.ID)
	if err != nil {
		t.Fatalf("get projeto: %v", err)
	}
	saved, err := canvas.Decode(got.Canvas)
	if err != nil {
		t.Fatalf("decode canvas: %v", err)
	}
	if back := canvas.Resolve(saved); back["produto"].Content != "Plataforma" {
		t.Fatalf("canvas content lost: %+v", back["produto"])
	}

	got.Descricao = "atualizado"
	if _, err := c.UpdateProjeto(ctx, got); err != nil {
		t.Fatalf("update projeto: %v", err)
	}
	list, err := c.ListProjetos(ctx, prog.ID)
	if err != nil || len(list) != 1 || list[0].Descricao != "atualizado" {
		t.Fatalf("list projetos: %+v %v", list, err)
	}

	o, err := c.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if o != (domain.Overview{Rotas: 1, Programas: 1, Projetos: 1}) {
		t.Fatalf("overview: %+v", o)
	}

	if err := c.DeleteRota(ctx, rota.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict deleting referenced rota, got %v", err)
	}
	if err := c.DeleteProjeto(ctx, proj.ID); err != nil {
		t.Fatalf("delete projeto: %v", err)
	}
	if _, err := c.GetProjeto(ctx, proj.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClientCidadesAndLookup(t *testing.T) {
	e := newTestEnv(t)
	c := loggedInClient(t, e)
	l := NewCityLookup(c)
	r, err := l.Select(context.Background(), "rj")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if r.UF != "RJ" || len(r.Cidades) == 0 {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestClientUnauthorizedAndLogout(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	anon := NewClient(e.http.URL, "")
	_, err := anon.ListRotas(ctx)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message == "" || apiErr.RequestID == "" {
		t.Fatalf("expected APIError with message and request id, got %#v", err)
	}

	c := loggedInClient(t, e)
	token := c.Token
	if err := c.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if c.Token != "" {
		t.Fatal("token not cleared")
	}
	stale := NewClient(e.http.URL, token)
	if _, err := stale.Me(ctx); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected revoked token, got %v", err)
	}
}

func TestClientSendsRequestID(t *testing.T) {
	var seen string
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-ID")
		writeJSON(w, http.StatusOK, []domain.Rota{})
	}))
	defer hs.Close()
	c := NewClientFromConfig(config.BackendConfig{BaseURL: hs.URL, TimeoutMs: 2000}, "tok")
	list, err := c.ListRotas(context.Background())
	if err != nil || list == nil {
		t.Fatalf("list: %v %v", list, err)
	}
	if seen == "" {
		t.Fatal("X-Request-ID not sent")
	}
}
