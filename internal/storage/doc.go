/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package storage implements persistence for the reference gat2way API server
// and local canvas drafts for the client.
// The server side is a database/sql repository that runs on PostgreSQL (pgx) in
// production and on the pure-Go SQLite driver for development and tests; each
// dialect has its own embedded migrations.
// Drafts are JSON files written transactionally with timestamped backups.
package storage
