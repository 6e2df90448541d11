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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gat2way/internal/backend"
	"gat2way/internal/canvas"
	"gat2way/internal/domain"
	"gat2way/internal/export"
	"gat2way/internal/storage"
	"gat2way/internal/telemetry"
)

// editor is one canvas editing session: a projeto fetched from the server, a
// store placed from its draft or saved canvas, and a draft file kept in step
// with every emitted document.
type editor struct {
	projeto domain.Projeto
	store   *canvas.Store
	drafts  *storage.Drafts
	saveErr error
}

// openEditor loads the projeto and places its canvas. A local draft wins over
// the server copy. The layout is editable only while the projeto has never
// been saved with a canvas.
func (a *app) openEditor(ctx context.Context, c *backend.Client, id int64, mode canvas.Mode) (*editor, error) {
	p, err := c.GetProjeto(ctx, id)
	if err != nil {
		return nil, err
	}
	drafts, err := a.draftStore()
	if err != nil {
		return nil, err
	}
	if mode != canvas.ModeReadOnly && len(p.Canvas) == 0 {
		mode = canvas.ModeCreate
	}
	e := &editor{projeto: p, drafts: drafts}
	e.store = canvas.NewStore(mode, func(doc canvas.Document) {
		if _, err := drafts.Save(id, doc); err != nil {
			e.saveErr = err
		}
	})

	initial, err := canvas.Decode(p.Canvas)
	if err != nil {
		a.log.Warn("stored canvas unreadable; starting from defaults", slog.Int64("projeto", id), slog.Any("err", err))
		initial = canvas.Partial{}
	}
	if mode != canvas.ModeReadOnly {
		if dr, err := drafts.Load(id); err == nil {
			initial = dr.Canvas.Partial()
		} else if !errors.Is(err, storage.ErrNoDraft) {
			return nil, err
		}
	}
	e.store.Load(initial)

	a.work.Drafts = drafts
	a.work.ProjetoID = id
	a.work.Document = e.store.Document
	return e, nil
}

func (e *editor) close() error {
	e.store.Close()
	return e.saveErr
}

// submit bundles the current document into the projeto and saves it.
func (e *editor) submit(ctx context.Context, c *backend.Client) (domain.Projeto, error) {
	p := e.projeto
	if err := backend.BundleCanvas(&p, e.store.Document()); err != nil {
		return domain.Projeto{}, err
	}
	saved, err := c.UpdateProjeto(ctx, p)
	if err != nil {
		return domain.Projeto{}, err
	}
	if err := e.drafts.Remove(p.ID); err != nil {
		return saved, err
	}
	telemetry.Event(telemetry.EventProjetoSaved, map[string]any{"canvas": true})
	return saved, nil
}

func canvasCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "canvas", Short: "View and edit a projeto canvas"}
	cmd.AddCommand(canvasShowCmd(a), canvasSetCmd(a), canvasReshapeCmd(a, "move"), canvasReshapeCmd(a, "resize"),
		canvasSubmitCmd(a), canvasDiscardCmd(a), canvasExportCmd(a))
	return cmd
}

// withEditor runs fn against an opened editor and reports draft write failures.
func (a *app) withEditor(cmd *cobra.Command, idArg string, mode canvas.Mode, fn func(*backend.Client, *editor) error) error {
	id, err := parseID(idArg)
	if err != nil {
		return err
	}
	c, err := a.authed()
	if err != nil {
		return err
	}
	e, err := a.openEditor(cmd.Context(), c, id, mode)
	if err != nil {
		return a.check(err)
	}
	ferr := fn(c, e)
	if cerr := e.close(); ferr == nil && cerr != nil {
		ferr = fmt.Errorf("save draft: %w", cerr)
	}
	return a.check(ferr)
}

func canvasShowCmd(a *app) *cobra.Command {
	var draft bool
	cmd := &cobra.Command{
		Use:   "show <projeto-id>",
		Short: "Print the canvas grid and slot contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := canvas.ModeReadOnly
			if draft {
				mode = canvas.ModeEdit
			}
			return a.withEditor(cmd, args[0], mode, func(_ *backend.Client, e *editor) error {
				doc := e.store.Document()
				return a.emit(cmd.OutOrStdout(), doc, func(w io.Writer) {
					fmt.Fprintf(w, "%s (%s)\n\n", e.projeto.Nome, e.store.Mode())
					_ = canvas.Render(w, doc)
				})
			})
		},
	}
	cmd.Flags().BoolVar(&draft, "draft", false, "include the local unsaved draft")
	return cmd
}

func canvasSetCmd(a *app) *cobra.Command {
	var submit bool
	cmd := &cobra.Command{
		Use:   "set <projeto-id> <slot> <text|->",
		Short: "Replace the text of a slot (use - to read stdin)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := args[2]
			if text == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = strings.TrimRight(string(b), "\n")
			}
			return a.withEditor(cmd, args[0], canvas.ModeEdit, func(c *backend.Client, e *editor) error {
				if err := e.store.SetContent(args[1], text); err != nil {
					return err
				}
				if !submit {
					fmt.Fprintf(cmd.OutOrStdout(), "Draft updated: %s\n", e.drafts.Path(e.projeto.ID))
					return nil
				}
				if _, err := e.submit(cmd.Context(), c); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Canvas of projeto %d saved\n", e.projeto.ID)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&submit, "submit", false, "save to the server right away")
	return cmd
}

// canvasReshapeCmd builds "move <id> <slot> <x> <y>" and "resize <id> <slot> <w> <h>".
func canvasReshapeCmd(a *app, verb string) *cobra.Command {
	use, short := "move <projeto-id> <slot> <x> <y>", "Move a widget (new canvases only)"
	if verb == "resize" {
		use, short = "resize <projeto-id> <slot> <w> <h>", "Resize a widget (new canvases only)"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			n1, err1 := strconv.Atoi(args[2])
			n2, err2 := strconv.Atoi(args[3])
			if err := errors.Join(err1, err2); err != nil {
				return fmt.Errorf("%s: numbers expected: %w", verb, err)
			}
			return a.withEditor(cmd, args[0], canvas.ModeEdit, func(_ *backend.Client, e *editor) error {
				var err error
				if verb == "resize" {
					err = e.store.Resize(args[1], n1, n2)
				} else {
					err = e.store.Move(args[1], n1, n2)
				}
				if errors.Is(err, canvas.ErrReadOnly) {
					return fmt.Errorf("the layout of projeto %d is fixed once saved: %w", e.projeto.ID, err)
				}
				if err != nil {
					return err
				}
				w := e.store.Document()[args[1]]
				fmt.Fprintf(cmd.OutOrStdout(), "%s now at x=%d y=%d w=%d h=%d (draft)\n", args[1], w.X, w.Y, w.W, w.H)
				return nil
			})
		},
	}
}

func canvasSubmitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <projeto-id>",
		Short: "Save the local draft to the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEditor(cmd, args[0], canvas.ModeEdit, func(c *backend.Client, e *editor) error {
				if _, err := e.submit(cmd.Context(), c); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Canvas of projeto %d saved\n", e.projeto.ID)
				return nil
			})
		},
	}
}

func canvasDiscardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "discard <projeto-id>",
		Short: "Delete the local draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			d, err := a.draftStore()
			if err != nil {
				return err
			}
			if err := d.Remove(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Draft of projeto %d discarded\n", id)
			return nil
		},
	}
}

func canvasExportCmd(a *app) *cobra.Command {
	var out, format string
	cmd := &cobra.Command{
		Use:   "export <projeto-id>",
		Short: "Export the canvas as PDF or PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			if out != "" && !cmd.Flags().Changed("format") {
				if ff, err := export.ParseFormat(out); err == nil {
					f = ff
				}
			}
			return a.withEditor(cmd, args[0], canvas.ModeReadOnly, func(_ *backend.Client, e *editor) error {
				path := out
				if path == "" {
					path = export.DefaultFileName(e.projeto, f)
				}
				if err := export.ToFile(path, f, e.projeto, e.store.Document()); err != nil {
					return err
				}
				telemetry.Event(telemetry.EventCanvasExported, nil)
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default canvas-<id>.<format>)")
	cmd.Flags().StringVar(&format, "format", "pdf", "pdf or png")
	return cmd
}
