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
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"gat2way/internal/domain"
)

// CidadesByUF lists the municipalities of a state in Portuguese collation order
// ("Ilhéus" sorts before "Itabuna", not after "Z").
func (d *DB) CidadesByUF(ctx context.Context, uf string) ([]domain.Cidade, error) {
	uf = strings.ToUpper(strings.TrimSpace(uf))
	rows, err := d.sql.QueryContext(ctx, d.rebind(`SELECT id, nome, uf FROM cidades WHERE uf = ?`), uf)
	if err != nil {
		return nil, fmt.Errorf("list cidades: %w", err)
	}
	defer rows.Close()
	out := []domain.Cidade{}
	for rows.Next() {
		var c domain.Cidade
		if err := rows.Scan(&c.ID, &c.Nome, &c.UF); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	col := collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
	sort.SliceStable(out, func(i, j int) bool { return col.CompareString(out[i].Nome, out[j].Nome) < 0 })
	return out, nil
}

// Counts returns the number of rotas, programas and projetos.
func (d *DB) Counts(ctx context.Context) (domain.Overview, error) {
	var o domain.Overview
	err := d.sql.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM rotas),
		(SELECT COUNT(*) FROM programas),
		(SELECT COUNT(*) FROM projetos)`).Scan(&o.Rotas, &o.Programas, &o.Projetos)
	if err != nil {
		return domain.Overview{}, fmt.Errorf("counts: %w", err)
	}
	return o, nil
}
