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
	"errors"
	"fmt"
	"strings"

	"gat2way/internal/domain"
)

func isConflict(err error) bool { return errors.Is(err, ErrConflict) }

// ListRotas returns every rota ordered by name.
func (d *DB) ListRotas(ctx context.Context) ([]domain.Rota, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT id, nome, descricao, created_at, updated_at FROM rotas ORDER BY nome_key`)
	if err != nil {
		return nil, fmt.Errorf("list rotas: %w", err)
	}
	defer rows.Close()
	out := []domain.Rota{}
	for rows.Next() {
		r, err := scanRota(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRota returns one rota or ErrNotFound.
func (d *DB) GetRota(ctx context.Context, id int64) (domain.Rota, error) {
	r, err := scanRota(d.sql.QueryRowContext(ctx, d.rebind(`SELECT id, nome, descricao, created_at, updated_at FROM rotas WHERE id = ?`), id))
	if err != nil {
		return domain.Rota{}, classify(err)
	}
	return r, nil
}

func scanRota(row interface{ Scan(...any) error }) (domain.Rota, error) {
	var r domain.Rota
	var created, updated string
	if err := row.Scan(&r.ID, &r.Nome, &r.Descricao, &created, &updated); err != nil {
		return domain.Rota{}, err
	}
	r.CreatedAt, r.UpdatedAt = parseTime(created), parseTime(updated)
	return r, nil
}

// CreateRota inserts a rota; names are unique ignoring case and accents.
func (d *DB) CreateRota(ctx context.Context, r domain.Rota) (domain.Rota, error) {
	r.Nome = strings.TrimSpace(r.Nome)
	ts := now()
	err := d.sql.QueryRowContext(ctx, d.rebind(`INSERT INTO rotas (nome, nome_key, descricao, created_at, updated_at) VALUES (?, ?, ?, ?, ?) RETURNING id`),
		r.Nome, nameKey(r.Nome), r.Descricao, ts, ts).Scan(&r.ID)
	if err != nil {
		return domain.Rota{}, fmt.Errorf("insert rota: %w", classify(err))
	}
	return d.GetRota(ctx, r.ID)
}

// UpdateRota replaces name and description.
func (d *DB) UpdateRota(ctx context.Context, r domain.Rota) (domain.Rota, error) {
	r.Nome = strings.TrimSpace(r.Nome)
	res, err := d.sql.ExecContext(ctx, d.rebind(`UPDATE rotas SET nome = ?, nome_key = ?, descricao = ?, updated_at = ? WHERE id = ?`),
		r.Nome, nameKey(r.Nome), r.Descricao, now(), r.ID)
	if err := affected(res, err); err != nil {
		return domain.Rota{}, fmt.Errorf("update rota %d: %w", r.ID, err)
	}
	return d.GetRota(ctx, r.ID)
}

// DeleteRota removes a rota. Rotas that still have programas are refused with ErrReference.
func (d *DB) DeleteRota(ctx context.Context, id int64) error {
	res, err := d.sql.ExecContext(ctx, d.rebind(`DELETE FROM rotas WHERE id = ?`), id)
	if err := affected(res, err); err != nil {
		return fmt.Errorf("delete rota %d: %w", id, err)
	}
	return nil
}

// affected turns "no row changed" into ErrNotFound and classifies driver errors.
func affected(res sql.Result, err error) error {
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
