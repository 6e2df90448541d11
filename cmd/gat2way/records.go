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
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gat2way/internal/canvas"
	"gat2way/internal/cnpj"
	"gat2way/internal/domain"
	"gat2way/internal/telemetry"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func table(w io.Writer, header string, rows func(tw *tabwriter.Writer)) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	_ = tw.Flush()
}

// crud bundles the five subcommands every record type has.
type crud struct {
	use, short string
	list       func(cmd *cobra.Command) error
	show       func(cmd *cobra.Command, id int64) error
	create     func(cmd *cobra.Command) error
	update     func(cmd *cobra.Command, id int64) error
	remove     func(cmd *cobra.Command, id int64) error
	flags      func(cmd *cobra.Command)
	listFlags  func(cmd *cobra.Command)
}

func (c crud) command(a *app) *cobra.Command {
	root := &cobra.Command{Use: c.use, Short: c.short}
	withID := func(fn func(*cobra.Command, int64) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.check(fn(cmd, id))
		}
	}
	list := &cobra.Command{Use: "list", Short: "List " + c.use, Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error { return a.check(c.list(cmd)) }}
	show := &cobra.Command{Use: "show <id>", Short: "Show one record", Args: cobra.ExactArgs(1), RunE: withID(c.show)}
	create := &cobra.Command{Use: "create", Short: "Create a record", Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error { return a.check(c.create(cmd)) }}
	update := &cobra.Command{Use: "update <id>", Short: "Change the given fields of a record", Args: cobra.ExactArgs(1), RunE: withID(c.update)}
	remove := &cobra.Command{Use: "delete <id>", Short: "Delete a record (admin only)", Args: cobra.ExactArgs(1), RunE: withID(c.remove)}
	c.flags(create)
	c.flags(update)
	if c.listFlags != nil {
		c.listFlags(list)
	}
	root.AddCommand(list, show, create, update, remove)
	return root
}

func deleted(cmd *cobra.Command, kind string, id int64) {
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %d\n", kind, id)
}

// --- rotas ---

func rotasCmd(a *app) *cobra.Command {
	var in domain.Rota
	printRota := func(cmd *cobra.Command, r domain.Rota) error {
		return a.emit(cmd.OutOrStdout(), r, func(w io.Writer) {
			fmt.Fprintf(w, "#%d %s\n", r.ID, r.Nome)
			if r.Descricao != "" {
				fmt.Fprintln(w, r.Descricao)
			}
		})
	}
	return crud{
		use: "rotas", short: "Manage rotas",
		flags: func(cmd *cobra.Command) {
			cmd.Flags().StringVar(&in.Nome, "nome", "", "name")
			cmd.Flags().StringVar(&in.Descricao, "descricao", "", "description")
		},
		list: func(cmd *cobra.Command) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			list, err := c.ListRotas(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), list, func(w io.Writer) {
				table(w, "ID\tNOME", func(tw *tabwriter.Writer) {
					for _, r := range list {
						fmt.Fprintf(tw, "%d\t%s\n", r.ID, r.Nome)
					}
				})
			})
		},
		show: func(cmd *cobra.Command, id int64) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			r, err := c.GetRota(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printRota(cmd, r)
		},
		create: func(cmd *cobra.Command) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			r, err := c.CreateRota(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printRota(cmd, r)
		},
		update: func(cmd *cobra.Command, id int64) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			cur, err := c.GetRota(cmd.Context(), id)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if f.Changed("nome") {
				cur.Nome = in.Nome
			}
			if f.Changed("descricao") {
				cur.Descricao = in.Descricao
			}
			r, err := c.UpdateRota(cmd.Context(), cur)
			if err != nil {
				return err
			}
			return printRota(cmd, r)
		},
		remove: func(cmd *cobra.Command, id int64) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			if err := c.DeleteRota(cmd.Context(), id); err != nil {
				return err
			}
			deleted(cmd, "rota", id)
			return nil
		},
	}.command(a)
}

// --- programas ---

func programasCmd(a *app) *cobra.Command {
	var in domain.Programa
	var rotaFilter int64
	printPrograma := func(cmd *cobra.Command, p domain.Programa) error {
		return a.emit(cmd.OutOrStdout(), p, func(w io.Writer) {
			formatted, err := cnpj.Format(p.CNPJ)
			if err != nil {
				formatted = p.CNPJ
			}
			fmt.Fprintf(w, "#%d %s (rota %d)\nCNPJ: %s\n", p.ID, p.Nome, p.RotaID, formatted)
			if p.Cidade != "" || p.UF != "" {
				fmt.Fprintf(w, "Local: %s/%s\n", p.Cidade, p.UF)
			}
			if p.Descricao != "" {
				fmt.Fprintln(w, p.Descricao)
			}
		})
	}
	return crud{
		use: "programas", short: "Manage programas",
		flags: func(cmd *cobra.Command) {
			f := cmd.Flags()
			f.Int64Var(&in.RotaID, "rota", 0, "rota id")
			f.StringVar(&in.Nome, "nome", "", "name")
			f.StringVar(&in.Descricao, "descricao", "", "description")
			f.StringVar(&in.CNPJ, "cnpj", "", "CNPJ of the executing organization")
			f.StringVar(&in.UF, "uf", "", "state (two letters)")
			f.StringVar(&in.Cidade, "cidade", "", "city")
		},
		listFlags: func(cmd *cobra.Command) {
			cmd.Flags().Int64Var(&rotaFilter, "rota", 0, "only programas of this rota")
		},
		list: func(cmd *cobra.Command) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			list, err := c.ListProgramas(cmd.Context(), rotaFilter)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), list, func(w io.Writer) {
				table(w, "ID\tROTA\tNOME\tUF", func(tw *tabwriter.Writer) {
					for _, p := range list {
						fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", p.ID, p.RotaID, p.Nome, p.UF)
					}
				})
			})
		},
		show: func(cmd *cobra.Command, id int64) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			p, err := c.GetPrograma(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printPrograma(cmd, p)
		},
		create: func(cmd *cobra.Command) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			p, err := c.CreatePrograma(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printPrograma(cmd, p)
		},
		update: func(cmd *cobra.Command, id int64) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			cur, err := c.GetPrograma(cmd.Context(), id)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if f.Changed("rota") {
				cur.RotaID = in.RotaID
			}
			if f.Changed("nome") {
				cur.Nome = in.Nome
			}
			if f.Changed("descricao") {
				cur.Descricao = in.Descricao
			}
			if f.Changed("cnpj") {
				cur.CNPJ = in.CNPJ
			}
			if f.Changed("uf") {
				cur.UF = in.UF
			}
			if f.Changed("cidade") {
				cur.Cidade = in.Cidade
			}
			p, err := c.UpdatePrograma(cmd.Context(), cur)
			if err != nil {
				return err
			}
			return printPrograma(cmd, p)
		},
		remove: func(cmd *cobra.Command, id int64) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			if err := c.DeletePrograma(cmd.Context(), id); err != nil {
				return err
			}
			deleted(cmd, "programa", id)
			return nil
		},
	}.command(a)
}

// --- projetos ---

func projetosCmd(a *app) *cobra.Command {
	var in domain.Projeto
	var programaFilter int64
	printProjeto := func(cmd *cobra.Command, p domain.Projeto) error {
		return a.emit(cmd.OutOrStdout(), p, func(w io.Writer) {
			fmt.Fprintf(w, "#%d %s (programa %d)\n", p.ID, p.Nome, p.ProgramaID)
			if p.Gerente != "" {
				fmt.Fprintf(w, "Gerente: %s\n", p.Gerente)
			}
			if p.Inicio != "" || p.Fim != "" {
				fmt.Fprintf(w, "Período: %s a %s\n", p.Inicio, p.Fim)
			}
			fmt.Fprintf(w, "Canvas: %s\n", canvasStatus(p))
		})
	}
	return crud{
		use: "projetos", short: "Manage projetos",
		flags: func(cmd *cobra.Command) {
			f := cmd.Flags()
			f.Int64Var(&in.ProgramaID, "programa", 0, "programa id")
			f.StringVar(&in.Nome, "nome", "", "name")
			f.StringVar(&in.Descricao, "descricao", "", "description")
			f.StringVar(&in.Gerente, "gerente", "", "project manager")
			f.StringVar(&in.Inicio, "inicio", "", "start date (YYYY-MM-DD)")
			f.StringVar(&in.Fim, "fim", "", "end date (YYYY-MM-DD)")
		},
		listFlags: func(cmd *cobra.Command) {
			cmd.Flags().Int64Var(&programaFilter, "programa", 0, "only projetos of this programa")
		},
		list: func(cmd *cobra.Command) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			list, err := c.ListProjetos(cmd.Context(), programaFilter)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), list, func(w io.Writer) {
				table(w, "ID\tPROGRAMA\tNOME\tCANVAS", func(tw *tabwriter.Writer) {
					for _, p := range list {
						fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", p.ID, p.ProgramaID, p.Nome, canvasStatus(p))
					}
				})
			})
		},
		show: func(cmd *cobra.Command, id int64) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			p, err := c.GetProjeto(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printProjeto(cmd, p)
		},
		create: func(cmd *cobra.Command) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			p, err := c.CreateProjeto(cmd.Context(), in)
			if err != nil {
				return err
			}
			telemetry.Event(telemetry.EventProjetoSaved, map[string]any{"created": true})
			return printProjeto(cmd, p)
		},
		update: func(cmd *cobra.Command, id int64) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			cur, err := c.GetProjeto(cmd.Context(), id)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if f.Changed("programa") {
				cur.ProgramaID = in.ProgramaID
			}
			if f.Changed("nome") {
				cur.Nome = in.Nome
			}
			if f.Changed("descricao") {
				cur.Descricao = in.Descricao
			}
			if f.Changed("gerente") {
				cur.Gerente = in.Gerente
			}
			if f.Changed("inicio") {
				cur.Inicio = in.Inicio
			}
			if f.Changed("fim") {
				cur.Fim = in.Fim
			}
			p, err := c.UpdateProjeto(cmd.Context(), cur)
			if err != nil {
				return err
			}
			telemetry.Event(telemetry.EventProjetoSaved, map[string]any{"created": false})
			return printProjeto(cmd, p)
		},
		remove: func(cmd *cobra.Command, id int64) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			if err := c.DeleteProjeto(cmd.Context(), id); err != nil {
				return err
			}
			deleted(cmd, "projeto", id)
			return nil
		},
	}.command(a)
}

// canvasStatus summarizes how many canvas slots have content.
func canvasStatus(p domain.Projeto) string {
	if len(p.Canvas) == 0 {
		return "not started"
	}
	saved, err := canvas.Decode(p.Canvas)
	if err != nil {
		return "unreadable"
	}
	filled := 0
	for _, w := range canvas.Resolve(saved) {
		if w.Content != "" {
			filled++
		}
	}
	return fmt.Sprintf("%d/%d filled", filled, canvas.SlotCount())
}
