/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"gat2way/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), DriverSQLite, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenAppliesMigrationsOnce(t *testing.T) {
	db := openTestDB(t)
	if err := db.migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	var n int
	if err := db.sql.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 applied migrations, got %d", n)
	}
}

func TestRebind(t *testing.T) {
	pg := &DB{driver: DriverPostgres}
	if got := pg.rebind(`SELECT a FROM t WHERE x = ? AND y = ?`); got != `SELECT a FROM t WHERE x = $1 AND y = $2` {
		t.Fatalf("rebind: %s", got)
	}
	sq := &DB{driver: DriverSQLite}
	if got := sq.rebind(`x = ?`); got != `x = ?` {
		t.Fatalf("sqlite rebind changed query: %s", got)
	}
}

func TestNameKeyFoldsAccentsCaseAndSpace(t *testing.T) {
	if nameKey("  Inovação   Recife ") != nameKey("inovacao recife") {
		t.Fatalf("keys differ: %q vs %q", nameKey("  Inovação   Recife "), nameKey("inovacao recife"))
	}
}

func TestRotaCRUD(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	r, err := db.CreateRota(ctx, domain.Rota{Nome: "Rota da Economia Verde", Descricao: "d"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if r.ID == 0 || r.CreatedAt.IsZero() {
		t.Fatalf("unexpected rota: %+v", r)
	}
	if _, err := db.CreateRota(ctx, domain.Rota{Nome: "rota da economia  VERDE"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	r.Descricao = "nova"
	if _, err := db.UpdateRota(ctx, r); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := db.GetRota(ctx, r.ID)
	if err != nil || got.Descricao != "nova" {
		t.Fatalf("get after update: %+v %v", got, err)
	}
	list, err := db.ListRotas(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %v", list, err)
	}
	if err := db.DeleteRota(ctx, r.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.GetRota(ctx, r.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := db.DeleteRota(ctx, r.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func seedPrograma(t *testing.T, db *DB) (domain.Rota, domain.Programa) {
	t.Helper()
	ctx := context.Background()
	r, err := db.CreateRota(ctx, domain.Rota{Nome: "Rota"})
	if err != nil {
		t.Fatalf("create rota: %v", err)
	}
	p, err := db.CreatePrograma(ctx, domain.Programa{RotaID: r.ID, Nome: "Programa", CNPJ: "11222333000181", UF: "pe", Cidade: "Recife"})
	if err != nil {
		t.Fatalf("create programa: %v", err)
	}
	return r, p
}

func TestProgramaScopedUniquenessAndReferences(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	r, p := seedPrograma(t, db)
	if p.UF != "PE" {
		t.Fatalf("uf not upper-cased: %q", p.UF)
	}
	if _, err := db.CreatePrograma(ctx, domain.Programa{RotaID: r.ID, Nome: "PROGRAMA", CNPJ: "11222333000181"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	other, err := db.CreateRota(ctx, domain.Rota{Nome: "Outra"})
	if err != nil {
		t.Fatalf("create rota: %v", err)
	}
	if _, err := db.CreatePrograma(ctx, domain.Programa{RotaID: other.ID, Nome: "Programa", CNPJ: "11222333000181"}); err != nil {
		t.Fatalf("same name in another rota should be allowed: %v", err)
	}
	if _, err := db.CreatePrograma(ctx, domain.Programa{RotaID: 999, Nome: "X", CNPJ: "11222333000181"}); !errors.Is(err, ErrReference) {
		t.Fatalf("expected reference error, got %v", err)
	}
	if err := db.DeleteRota(ctx, r.ID); !errors.Is(err, ErrReference) {
		t.Fatalf("expected reference error deleting rota in use, got %v", err)
	}
	byRota, err := db.ListProgramas(ctx, r.ID)
	if err != nil || len(byRota) != 1 {
		t.Fatalf("list by rota: %v %v", byRota, err)
	}
	all, err := db.ListProgramas(ctx, 0)
	if err != nil || len(all) != 2 {
		t.Fatalf("list all: %v %v", all, err)
	}
}

func TestProjetoCanvasStorage(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, prog := seedPrograma(t, db)

	p, err := db.CreateProjeto(ctx, domain.Projeto{ProgramaID: prog.ID, Nome: "Projeto", Gerente: "Ana"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Canvas != nil {
		t.Fatalf("expected no canvas, got %s", p.Canvas)
	}
	p.Canvas = json.RawMessage(`{"riscos":{"x":8,"y":3,"w":2,"h":3,"content":"chuva"}}`)
	p, err = db.UpdateProjeto(ctx, p)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	var m map[string]map[string]any
	if err := json.Unmarshal(p.Canvas, &m); err != nil {
		t.Fatalf("canvas not json: %v", err)
	}
	if m["riscos"]["content"] != "chuva" {
		t.Fatalf("canvas content lost: %s", p.Canvas)
	}
	list, err := db.ListProjetos(ctx, prog.ID)
	if err != nil || len(list) != 1 || list[0].Canvas == nil {
		t.Fatalf("list: %v %v", list, err)
	}
	if _, err := db.UpdateProjeto(ctx, domain.Projeto{ID: 999, ProgramaID: prog.ID, Nome: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	o, err := db.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if o != (domain.Overview{Rotas: 1, Programas: 1, Projetos: 1}) {
		t.Fatalf("counts: %+v", o)
	}
}

func TestCidadesByUFSortedPortuguese(t *testing.T) {
	db := openTestDB(t)
	got, err := db.CidadesByUF(context.Background(), " pe")
	if err != nil {
		t.Fatalf("cidades: %v", err)
	}
	var names []string
	for _, c := range got {
		names = append(names, c.Nome)
	}
	want := []string{"Caruaru", "Jaboatão dos Guararapes", "Olinda", "Petrolina", "Recife"}
	if len(names) != len(want) {
		t.Fatalf("got %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("order: got %v want %v", names, want)
		}
	}
	none, err := db.CidadesByUF(context.Background(), "XX")
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v %v", none, err)
	}
}

func TestUsersAndRevocation(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	u, err := db.CreateUser(ctx, "Admin", " Admin@Example.org ", "hash", true)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := db.CreateUser(ctx, "Dup", "admin@example.org", "hash", false); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	rec, err := db.UserByEmail(ctx, "ADMIN@example.org")
	if err != nil || rec.ID != u.ID || !rec.Admin || rec.PasswordHash != "hash" {
		t.Fatalf("by email: %+v %v", rec, err)
	}
	if _, err := db.UserByID(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if n, err := db.CountUsers(ctx); err != nil || n != 1 {
		t.Fatalf("count users: %d %v", n, err)
	}

	exp := time.Now().Add(time.Hour)
	if err := db.RevokeToken(ctx, "tok", exp); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := db.RevokeToken(ctx, "tok", exp); err != nil {
		t.Fatalf("revoke twice: %v", err)
	}
	if ok, err := db.TokenRevoked(ctx, "tok"); err != nil || !ok {
		t.Fatalf("expected revoked: %v %v", ok, err)
	}
	if ok, _ := db.TokenRevoked(ctx, "other"); ok {
		t.Fatalf("unexpected revocation")
	}
	if n, err := db.PruneRevoked(ctx, exp.Add(time.Hour)); err != nil || n != 1 {
		t.Fatalf("prune: %d %v", n, err)
	}
}

func TestPostgresOpen(t *testing.T) {
	dsn := os.Getenv("GTW_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("GTW_TEST_PG_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := Open(ctx, DriverPostgres, dsn)
	if err != nil {
		t.Skipf("postgres not reachable: %v", err)
	}
	defer db.Close()
	if _, err := db.CidadesByUF(ctx, "PE"); err != nil {
		t.Fatalf("cidades on postgres: %v", err)
	}
}
