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
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"gat2way/internal/backend"
	"gat2way/internal/cnpj"
	"gat2way/internal/config"
	"gat2way/internal/telemetry"
	"gat2way/internal/version"
)

func cidadesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cidades <uf>",
		Short: "List the cities of a federative unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			res, err := backend.NewCityLookup(c).Select(cmd.Context(), args[0])
			if err != nil {
				return a.check(err)
			}
			return a.emit(cmd.OutOrStdout(), res.Cidades, func(w io.Writer) {
				table(w, "ID\tCIDADE\tUF", func(tw *tabwriter.Writer) {
					for _, ci := range res.Cidades {
						fmt.Fprintf(tw, "%d\t%s\t%s\n", ci.ID, ci.Nome, ci.UF)
					}
				})
			})
		},
	}
}

func cnpjCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cnpj <number>",
		Short: "Validate and format a CNPJ",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatted, err := cnpj.Format(args[0])
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), map[string]any{"cnpj": formatted, "valid": true}, func(w io.Writer) {
				fmt.Fprintf(w, "%s valid\n", formatted)
			})
		},
	}
}

func overviewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Show record counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			ov, err := c.Overview(cmd.Context())
			if err != nil {
				return a.check(err)
			}
			return a.emit(cmd.OutOrStdout(), ov, func(w io.Writer) {
				fmt.Fprintf(w, "Rotas:     %d\nProgramas: %d\nProjetos:  %d\n", ov.Rotas, ov.Programas, ov.Projetos)
			})
		},
	}
}

func serveCmd(a *app) *cobra.Command {
	var addr, driver, dsn string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		Long: "Run the API server. The first start with an empty user table needs " +
			backend.EnvAdminEmail + " and " + backend.EnvAdminPassword + " to create the administrator.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc := a.cfg.Server
			if cmd.Flags().Changed("addr") {
				sc.Addr = addr
			}
			if cmd.Flags().Changed("driver") {
				sc.Driver = driver
			}
			if cmd.Flags().Changed("dsn") {
				sc.DSN = dsn
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			telemetry.Event(telemetry.EventServerStarted, map[string]any{"driver": sc.Driver})
			return backend.Start(ctx, sc)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&driver, "driver", "", "sqlite or pgx")
	cmd.Flags().StringVar(&dsn, "dsn", "", "database DSN")
	return cmd
}

func configCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Inspect and change settings"}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := yaml.Marshal(a.cfg)
			if err != nil {
				return err
			}
			if p, err := config.ConfigPath(); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", p)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting (backend.base_url, backend.timeout_ms, general.drafts_dir, general.telemetry_opt_in)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			key, val := strings.ToLower(args[0]), args[1]
			switch key {
			case "backend.base_url":
				cfg.Backend.BaseURL = strings.TrimRight(val, "/")
			case "backend.timeout_ms":
				n, err := strconv.Atoi(val)
				if err != nil || n <= 0 {
					return fmt.Errorf("%s: positive integer expected", key)
				}
				cfg.Backend.TimeoutMs = n
			case "general.drafts_dir":
				cfg.General.DraftsDir = val
			case "general.telemetry_opt_in":
				b, err := strconv.ParseBool(val)
				if err != nil {
					return fmt.Errorf("%s: %w", key, err)
				}
				cfg.General.TelemetryOptIn = b
			default:
				return fmt.Errorf("unknown setting %q", args[0])
			}
			if err := config.Save(cfg); err != nil {
				return err
			}
			a.cfg = cfg
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, val)
			return nil
		},
	})
	return cmd
}

func versionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.emit(cmd.OutOrStdout(), map[string]string{"version": version.String()}, func(w io.Writer) {
				fmt.Fprintln(w, "gat2way", version.String())
			})
		},
	}
}
