/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"gat2way/internal/backend"
	"gat2way/internal/config"
	"gat2way/internal/crash"
	applog "gat2way/internal/log"
	"gat2way/internal/session"
	"gat2way/internal/storage"
	"gat2way/internal/telemetry"
)

// app carries the state shared by all commands of one invocation.
type app struct {
	cfg      config.AppConfig
	loaded   bool
	sessions *session.Manager
	drafts   *storage.Drafts
	work     *crash.Work
	asJSON   bool
	log      *slog.Logger
}

func newApp() *app {
	return &app{work: &crash.Work{}, log: applog.WithComponent("cli")}
}

// setup reads the config file, applies its logging and telemetry settings and
// loads the persisted session. Tests preset cfg and sessions to skip the
// user environment.
func (a *app) setup() error {
	if !a.loaded {
		cfg, err := config.Load()
		if err != nil {
			var pe *config.ParseError
			if !errors.As(err, &pe) {
				return err
			}
			a.log.Warn("ignoring unreadable config file", slog.Any("err", err))
		}
		a.cfg = cfg
		a.loaded = true
		applog.Init(cfg.Logging.LogOptions())
		a.log = applog.WithComponent("cli")
		tcfg := telemetry.FromEnv()
		tcfg.OptIn = cfg.General.TelemetryOptIn
		telemetry.SetDefault(tcfg)
	}
	if a.sessions == nil {
		m, err := session.Default()
		if err != nil {
			a.log.Warn("keyring unavailable; session will not persist", slog.Any("err", err))
		}
		a.sessions = m
	}
	return nil
}

// client returns an API client carrying the current session token.
func (a *app) client() *backend.Client {
	return backend.NewClientFromConfig(a.cfg.Backend, a.sessions.Token())
}

// authed returns a client for commands that need a login.
func (a *app) authed() (*backend.Client, error) {
	if _, err := a.sessions.Current(); err != nil {
		return nil, fmt.Errorf("%w; run 'gat2way login' first", err)
	}
	return a.client(), nil
}

// check clears the stored session when the server rejected the token.
func (a *app) check(err error) error {
	if errors.Is(err, backend.ErrUnauthorized) {
		if cerr := a.sessions.Clear(); cerr != nil {
			a.log.Warn("clear session", slog.Any("err", cerr))
		}
		return fmt.Errorf("session rejected by server, please log in again: %w", err)
	}
	return err
}

func (a *app) draftStore() (*storage.Drafts, error) {
	if a.drafts != nil {
		return a.drafts, nil
	}
	d, err := storage.NewDrafts(a.cfg.General.DraftsDir)
	if err != nil {
		return nil, err
	}
	a.drafts = d
	return d, nil
}

// emit prints v as indented JSON when --json is set, otherwise calls text.
func (a *app) emit(w io.Writer, v any, text func(io.Writer)) error {
	if a.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "gat2way",
		Short:         "Manage rotas, programas, projetos and project canvases",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print JSON instead of tables")

	root.AddCommand(loginCmd(a), logoutCmd(a), whoamiCmd(a))
	root.AddCommand(rotasCmd(a), programasCmd(a), projetosCmd(a))
	root.AddCommand(canvasCmd(a))
	root.AddCommand(cidadesCmd(a), cnpjCmd(a), overviewCmd(a))
	root.AddCommand(serveCmd(a), configCmd(a), versionCmd(a))
	return root
}
