/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"gat2way/internal/canvas"
	"gat2way/internal/cnpj"
	"gat2way/internal/config"
	"gat2way/internal/domain"
	applog "gat2way/internal/log"
	"gat2way/internal/session"
)

// Sentinel errors for status codes callers react to. Use errors.Is; the
// concrete error is an *APIError carrying the server message.
var (
	ErrUnauthorized = errors.New("backend: unauthorized")
	ErrForbidden    = errors.New("backend: forbidden")
	ErrNotFound     = errors.New("backend: not found")
	ErrConflict     = errors.New("backend: conflict")
)

// APIError is returned for every non-2xx response.
type APIError struct {
	Method    string
	Path      string
	Status    int
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("server %s %s: %d %s", e.Method, e.Path, e.Status, msg)
}

// Is maps status codes onto the sentinel errors.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	}
	return false
}

// Client is the HTTP client for the gat2way API. Every request carries the
// bearer token (when set) and a fresh X-Request-ID.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
	log     *slog.Logger
}

// NewClient creates a new backend client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string, token string) *Client {
	b := strings.TrimRight(baseURL, "/")
	return &Client{
		BaseURL: b,
		Token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     applog.WithComponent("client"),
	}
}

// NewClientFromConfig applies the configured timeout and TLS settings.
func NewClientFromConfig(cfg config.BackendConfig, token string) *Client {
	c := NewClient(cfg.BaseURL, token)
	c.client.Timeout = cfg.Timeout()
	if cfg.TLSInsecure {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed dev servers
		c.client.Transport = tr
	}
	return c
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	rid := uuid.NewString()
	req.Header.Set("X-Request-ID", rid)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	c.log.Debug("request", slog.String("method", method), slog.String("path", u.Path),
		slog.Int("status", resp.StatusCode), slog.Duration("took", time.Since(start)), slog.String("request_id", rid))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Method: method, Path: u.Path, Status: resp.StatusCode, RequestID: rid}
		var eb struct {
			Error string `json:"error"`
		}
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(b, &eb) == nil && eb.Error != "" {
			apiErr.Message = eb.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(b))
		}
		return apiErr
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// --- auth ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a session and installs its token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (session.Session, error) {
	var s session.Session
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", loginRequest{Email: email, Password: password}, &s); err != nil {
		return session.Session{}, err
	}
	c.Token = s.Token
	return s, nil
}

// Logout revokes the current token on the server and forgets it locally.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.Token = ""
	if errors.Is(err, ErrUnauthorized) {
		return nil
	}
	return err
}

// Me returns the user the token belongs to.
func (c *Client) Me(ctx context.Context) (domain.User, error) {
	var u domain.User
	err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &u)
	return u, err
}

// --- rotas ---

func (c *Client) ListRotas(ctx context.Context) ([]domain.Rota, error) {
	var list []domain.Rota
	if err := c.doJSON(ctx, http.MethodGet, "/api/rotas", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) GetRota(ctx context.Context, id int64) (domain.Rota, error) {
	var r domain.Rota
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/rotas/%d", id), nil, &r)
	return r, err
}

func (c *Client) CreateRota(ctx context.Context, r domain.Rota) (domain.Rota, error) {
	var out domain.Rota
	err := c.doJSON(ctx, http.MethodPost, "/api/rotas", r, &out)
	return out, err
}

func (c *Client) UpdateRota(ctx context.Context, r domain.Rota) (domain.Rota, error) {
	var out domain.Rota
	err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/rotas/%d", r.ID), r, &out)
	return out, err
}

func (c *Client) DeleteRota(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/rotas/%d", id), nil, nil)
}

// --- programas ---

// ListProgramas lists the programas of a rota, or all of them when rotaID is 0.
func (c *Client) ListProgramas(ctx context.Context, rotaID int64) ([]domain.Programa, error) {
	path := "/api/programas"
	if rotaID > 0 {
		path += "?rota_id=" + strconv.FormatInt(rotaID, 10)
	}
	var list []domain.Programa
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) GetPrograma(ctx context.Context, id int64) (domain.Programa, error) {
	var p domain.Programa
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/programas/%d", id), nil, &p)
	return p, err
}

// checkCNPJ rejects an invalid CNPJ before a round trip; the server checks again.
func checkCNPJ(p *domain.Programa) error {
	if !cnpj.Valid(p.CNPJ) {
		return fmt.Errorf("programa %q: %w", p.Nome, cnpj.ErrInvalid)
	}
	p.CNPJ = cnpj.Normalize(p.CNPJ)
	return nil
}

func (c *Client) CreatePrograma(ctx context.Context, p domain.Programa) (domain.Programa, error) {
	if err := checkCNPJ(&p); err != nil {
		return domain.Programa{}, err
	}
	var out domain.Programa
	err := c.doJSON(ctx, http.MethodPost, "/api/programas", p, &out)
	return out, err
}

func (c *Client) UpdatePrograma(ctx context.Context, p domain.Programa) (domain.Programa, error) {
	if err := checkCNPJ(&p); err != nil {
		return domain.Programa{}, err
	}
	var out domain.Programa
	err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/programas/%d", p.ID), p, &out)
	return out, err
}

func (c *Client) DeletePrograma(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/programas/%d", id), nil, nil)
}

// --- projetos ---

// ListProjetos lists the projetos of a programa, or all of them when programaID is 0.
func (c *Client) ListProjetos(ctx context.Context, programaID int64) ([]domain.Projeto, error) {
	path := "/api/projetos"
	if programaID > 0 {
		path += "?programa_id=" + strconv.FormatInt(programaID, 10)
	}
	var list []domain.Projeto
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetProjeto returns a projeto including its canvas blob.
func (c *Client) GetProjeto(ctx context.Context, id int64) (domain.Projeto, error) {
	var p domain.Projeto
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/projetos/%d", id), nil, &p)
	return p, err
}

func (c *Client) CreateProjeto(ctx context.Context, p domain.Projeto) (domain.Projeto, error) {
	var out domain.Projeto
	err := c.doJSON(ctx, http.MethodPost, "/api/projetos", p, &out)
	return out, err
}

func (c *Client) UpdateProjeto(ctx context.Context, p domain.Projeto) (domain.Projeto, error) {
	var out domain.Projeto
	err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/projetos/%d", p.ID), p, &out)
	return out, err
}

func (c *Client) DeleteProjeto(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/projetos/%d", id), nil, nil)
}

// BundleCanvas copies the latest emitted canvas document into the projeto
// payload. Call it at submit time, right before Create/UpdateProjeto.
func BundleCanvas(p *domain.Projeto, doc canvas.Document) error {
	b, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("encode canvas: %w", err)
	}
	p.Canvas = b
	return nil
}

// --- lookups ---

// ListCidades returns the municipalities of a state.
func (c *Client) ListCidades(ctx context.Context, uf string) ([]domain.Cidade, error) {
	var list []domain.Cidade
	if err := c.doJSON(ctx, http.MethodGet, "/api/cidades?uf="+url.QueryEscape(uf), nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Overview fetches the three collections concurrently and counts them. The
// first failure cancels the remaining requests.
func (c *Client) Overview(ctx context.Context) (domain.Overview, error) {
	var o domain.Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := c.ListRotas(gctx)
		o.Rotas = len(list)
		return err
	})
	g.Go(func() error {
		list, err := c.ListProgramas(gctx, 0)
		o.Programas = len(list)
		return err
	})
	g.Go(func() error {
		list, err := c.ListProjetos(gctx, 0)
		o.Projetos = len(list)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Overview{}, err
	}
	return o, nil
}
