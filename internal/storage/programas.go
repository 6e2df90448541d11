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
	"fmt"
	"strings"

	"gat2way/internal/domain"
)

const programaCols = `id, rota_id, nome, descricao, cnpj, uf, cidade, created_at, updated_at`

// ListProgramas returns programas ordered by name, filtered by rota when rotaID > 0.
func (d *DB) ListProgramas(ctx context.Context, rotaID int64) ([]domain.Programa, error) {
	q := `SELECT ` + programaCols + ` FROM programas`
	var args []any
	if rotaID > 0 {
		q += ` WHERE rota_id = ?`
		args = append(args, rotaID)
	}
	q += ` ORDER BY nome_key`
	rows, err := d.sql.QueryContext(ctx, d.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list programas: %w", err)
	}
	defer rows.Close()
	out := []domain.Programa{}
	for rows.Next() {
		p, err := scanPrograma(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPrograma returns one programa or ErrNotFound.
func (d *DB) GetPrograma(ctx context.Context, id int64) (domain.Programa, error) {
	p, err := scanPrograma(d.sql.QueryRowContext(ctx, d.rebind(`SELECT `+programaCols+` FROM programas WHERE id = ?`), id))
	if err != nil {
		return domain.Programa{}, classify(err)
	}
	return p, nil
}

func scanPrograma(row interface{ Scan(...any) error }) (domain.Programa, error) {
	var p domain.Programa
	var created, updated string
	if err := row.Scan(&p.ID, &p.RotaID, &p.Nome, &p.Descricao, &p.CNPJ, &p.UF, &p.Cidade, &created, &updated); err != nil {
		return domain.Programa{}, err
	}
	p.CreatedAt, p.UpdatedAt = parseTime(created), parseTime(updated)
	return p, nil
}

// CreatePrograma inserts a programa. Names are unique within a rota; a missing
// rota yields ErrReference.
func (d *DB) CreatePrograma(ctx context.Context, p domain.Programa) (domain.Programa, error) {
	p.Nome = strings.TrimSpace(p.Nome)
	ts := now()
	err := d.sql.QueryRowContext(ctx, d.rebind(`INSERT INTO programas (rota_id, nome, nome_key, descricao, cnpj, uf, cidade, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		p.RotaID, p.Nome, nameKey(p.Nome), p.Descricao, p.CNPJ, strings.ToUpper(p.UF), p.Cidade, ts, ts).Scan(&p.ID)
	if err != nil {
		return domain.Programa{}, fmt.Errorf("insert programa: %w", classify(err))
	}
	return d.GetPrograma(ctx, p.ID)
}

// UpdatePrograma replaces every editable field.
func (d *DB) UpdatePrograma(ctx context.Context, p domain.Programa) (domain.Programa, error) {
	p.Nome = strings.TrimSpace(p.Nome)
	res, err := d.sql.ExecContext(ctx, d.rebind(`UPDATE programas SET rota_id = ?, nome = ?, nome_key = ?, descricao = ?, cnpj = ?, uf = ?, cidade = ?, updated_at = ? WHERE id = ?`),
		p.RotaID, p.Nome, nameKey(p.Nome), p.Descricao, p.CNPJ, strings.ToUpper(p.UF), p.Cidade, now(), p.ID)
	if err := affected(res, err); err != nil {
		return domain.Programa{}, fmt.Errorf("update programa %d: %w", p.ID, err)
	}
	return d.GetPrograma(ctx, p.ID)
}

// DeletePrograma removes a programa without projetos.
func (d *DB) DeletePrograma(ctx context.Context, id int64) error {
	res, err := d.sql.ExecContext(ctx, d.rebind(`DELETE FROM programas WHERE id = ?`), id)
	if err := affected(res, err); err != nil {
		return fmt.Errorf("delete programa %d: %w", id, err)
	}
	return nil
}
