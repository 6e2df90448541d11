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
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"gat2way/internal/domain"
)

const projetoCols = `id, programa_id, nome, descricao, gerente, inicio, fim, canvas, created_at, updated_at`

// ListProjetos returns projetos ordered by name, filtered by programa when programaID > 0.
// The canvas blob is included so list views can show fill status.
func (d *DB) ListProjetos(ctx context.Context, programaID int64) ([]domain.Projeto, error) {
	q := `SELECT ` + projetoCols + ` FROM projetos`
	var args []any
	if programaID > 0 {
		q += ` WHERE programa_id = ?`
		args = append(args, programaID)
	}
	q += ` ORDER BY nome_key`
	rows, err := d.sql.QueryContext(ctx, d.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list projetos: %w", err)
	}
	defer rows.Close()
	out := []domain.Projeto{}
	for rows.Next() {
		p, err := scanProjeto(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetProjeto returns one projeto or ErrNotFound.
func (d *DB) GetProjeto(ctx context.Context, id int64) (domain.Projeto, error) {
	p, err := scanProjeto(d.sql.QueryRowContext(ctx, d.rebind(`SELECT `+projetoCols+` FROM projetos WHERE id = ?`), id))
	if err != nil {
		return domain.Projeto{}, classify(err)
	}
	return p, nil
}

func scanProjeto(row interface{ Scan(...any) error }) (domain.Projeto, error) {
	var p domain.Projeto
	var canvas sql.NullString
	var created, updated string
	if err := row.Scan(&p.ID, &p.ProgramaID, &p.Nome, &p.Descricao, &p.Gerente, &p.Inicio, &p.Fim, &canvas, &created, &updated); err != nil {
		return domain.Projeto{}, err
	}
	if canvas.Valid && canvas.String != "" {
		p.Canvas = json.RawMessage(canvas.String)
	}
	p.CreatedAt, p.UpdatedAt = parseTime(created), parseTime(updated)
	return p, nil
}

func canvasArg(raw json.RawMessage) any {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return string(raw)
}

// CreateProjeto inserts a projeto with its canvas layout.
func (d *DB) CreateProjeto(ctx context.Context, p domain.Projeto) (domain.Projeto, error) {
	p.Nome = strings.TrimSpace(p.Nome)
	ts := now()
	err := d.sql.QueryRowContext(ctx, d.rebind(`INSERT INTO projetos (programa_id, nome, nome_key, descricao, gerente, inicio, fim, canvas, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		p.ProgramaID, p.Nome, nameKey(p.Nome), p.Descricao, p.Gerente, p.Inicio, p.Fim, canvasArg(p.Canvas), ts, ts).Scan(&p.ID)
	if err != nil {
		return domain.Projeto{}, fmt.Errorf("insert projeto: %w", classify(err))
	}
	return d.GetProjeto(ctx, p.ID)
}

// UpdateProjeto replaces every editable field, including the canvas.
func (d *DB) UpdateProjeto(ctx context.Context, p domain.Projeto) (domain.Projeto, error) {
	p.Nome = strings.TrimSpace(p.Nome)
	res, err := d.sql.ExecContext(ctx, d.rebind(`UPDATE projetos SET programa_id = ?, nome = ?, nome_key = ?, descricao = ?, gerente = ?, inicio = ?, fim = ?, canvas = ?, updated_at = ? WHERE id = ?`),
		p.ProgramaID, p.Nome, nameKey(p.Nome), p.Descricao, p.Gerente, p.Inicio, p.Fim, canvasArg(p.Canvas), now(), p.ID)
	if err := affected(res, err); err != nil {
		return domain.Projeto{}, fmt.Errorf("update projeto %d: %w", p.ID, err)
	}
	return d.GetProjeto(ctx, p.ID)
}

// DeleteProjeto removes a projeto.
func (d *DB) DeleteProjeto(ctx context.Context, id int64) error {
	res, err := d.sql.ExecContext(ctx, d.rebind(`DELETE FROM projetos WHERE id = ?`), id)
	if err := affected(res, err); err != nil {
		return fmt.Errorf("delete projeto %d: %w", id, err)
	}
	return nil
}
