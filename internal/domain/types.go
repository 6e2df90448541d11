/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"time"
)

// This file defines the records exchanged with the gat2way API. Field names
// follow the API's JSON; Go names stay close to the Portuguese domain terms
// (rota, programa, projeto) used by the users of the platform.

// User is the authenticated account.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"nome"`
	Email string `json:"email"`
	Admin bool   `json:"admin,omitempty"`
}

// Rota (route) is the top-level grouping of programas.
type Rota struct {
	ID        int64     `json:"id"`
	Nome      string    `json:"nome"`
	Descricao string    `json:"descricao,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Programa (program) belongs to a rota and is run by an organization
// identified by its CNPJ.
type Programa struct {
	ID        int64     `json:"id"`
	RotaID    int64     `json:"rota_id"`
	Nome      string    `json:"nome"`
	Descricao string    `json:"descricao,omitempty"`
	CNPJ      string    `json:"cnpj"`
	UF        string    `json:"uf,omitempty"`
	Cidade    string    `json:"cidade,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Projeto (project) belongs to a programa and carries the project canvas as an
// opaque layout blob (see package canvas). A missing or null Canvas means the
// projeto was never saved with a layout.
type Projeto struct {
	ID         int64           `json:"id"`
	ProgramaID int64           `json:"programa_id"`
	Nome       string          `json:"nome"`
	Descricao  string          `json:"descricao,omitempty"`
	Gerente    string          `json:"gerente,omitempty"`
	Inicio     string          `json:"inicio,omitempty"` // YYYY-MM-DD
	Fim        string          `json:"fim,omitempty"`
	Canvas     json.RawMessage `json:"canvas,omitempty"`
	CreatedAt  time.Time       `json:"created_at,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at,omitempty"`
}

// Cidade is a municipality used by dependent dropdowns (UF -> cidades).
type Cidade struct {
	ID   int64  `json:"id"`
	Nome string `json:"nome"`
	UF   string `json:"uf"`
}

// Overview counts the records visible to the current user.
type Overview struct {
	Rotas     int `json:"rotas"`
	Programas int `json:"programas"`
	Projetos  int `json:"projetos"`
}
