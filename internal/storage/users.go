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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"gat2way/internal/domain"
)

// UserRecord is a user row including the password hash, which never leaves the server.
type UserRecord struct {
	domain.User
	PasswordHash string
}

// CreateUser inserts an account. The e-mail is stored lower-cased and must be unique.
func (d *DB) CreateUser(ctx context.Context, name, email, passwordHash string, admin bool) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	adm := 0
	if admin {
		adm = 1
	}
	var id int64
	err := d.sql.QueryRowContext(ctx, d.rebind(`INSERT INTO users (nome, email, password_hash, admin, created_at) VALUES (?, ?, ?, ?, ?) RETURNING id`),
		name, email, passwordHash, adm, now()).Scan(&id)
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", classify(err))
	}
	return domain.User{ID: id, Name: name, Email: email, Admin: admin}, nil
}

// UserByEmail looks up an account for login.
func (d *DB) UserByEmail(ctx context.Context, email string) (UserRecord, error) {
	return d.scanUser(d.sql.QueryRowContext(ctx, d.rebind(`SELECT id, nome, email, password_hash, admin FROM users WHERE email = ?`),
		strings.ToLower(strings.TrimSpace(email))))
}

// UserByID looks up an account by id.
func (d *DB) UserByID(ctx context.Context, id int64) (UserRecord, error) {
	return d.scanUser(d.sql.QueryRowContext(ctx, d.rebind(`SELECT id, nome, email, password_hash, admin FROM users WHERE id = ?`), id))
}

func (d *DB) scanUser(row interface{ Scan(...any) error }) (UserRecord, error) {
	var u UserRecord
	var adm int
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &adm); err != nil {
		return UserRecord{}, classify(err)
	}
	u.Admin = adm != 0
	return u, nil
}

// CountUsers is used to decide whether the bootstrap admin must be created.
func (d *DB) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func tokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RevokeToken blacklists a token until its natural expiry (logout).
func (d *DB) RevokeToken(ctx context.Context, token string, expires time.Time) error {
	_, err := d.sql.ExecContext(ctx, d.rebind(`INSERT INTO revoked_tokens (token_hash, expires_at) VALUES (?, ?)`),
		tokenHash(token), expires.UTC().Format(time.RFC3339Nano))
	if err = classify(err); err != nil && !isConflict(err) {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// TokenRevoked reports whether a token was revoked by logout.
func (d *DB) TokenRevoked(ctx context.Context, token string) (bool, error) {
	var n int
	err := d.sql.QueryRowContext(ctx, d.rebind(`SELECT COUNT(*) FROM revoked_tokens WHERE token_hash = ?`), tokenHash(token)).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PruneRevoked drops revocations whose tokens have expired anyway.
func (d *DB) PruneRevoked(ctx context.Context, at time.Time) (int64, error) {
	res, err := d.sql.ExecContext(ctx, d.rebind(`DELETE FROM revoked_tokens WHERE expires_at < ?`), at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
