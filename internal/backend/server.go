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
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"gat2way/internal/canvas"
	"gat2way/internal/cnpj"
	"gat2way/internal/config"
	"gat2way/internal/domain"
	applog "gat2way/internal/log"
	"gat2way/internal/session"
	"gat2way/internal/storage"
	"gat2way/internal/version"
)

// Environment variables read by Start.
const (
	EnvAuthSecret    = "GTW_AUTH_SECRET"
	EnvAdminEmail    = "GTW_ADMIN_EMAIL"
	EnvAdminPassword = "GTW_ADMIN_PASSWORD"
)

// ServerOptions configures a Server.
type ServerOptions struct {
	Secret     []byte
	TokenTTL   time.Duration
	BcryptCost int
}

// Server is the reference gat2way API over a storage repository.
type Server struct {
	db     *storage.DB
	secret []byte
	ttl    time.Duration
	cost   int
	log    *slog.Logger
	now    func() time.Time
	mux    *http.ServeMux
}

// NewServer wires the routes. A missing secret is replaced by a random one, so
// tokens do not survive a restart.
func NewServer(db *storage.DB, opts ServerOptions) *Server {
	s := &Server{
		db:     db,
		secret: opts.Secret,
		ttl:    opts.TokenTTL,
		cost:   opts.BcryptCost,
		log:    applog.WithComponent("server"),
		now:    time.Now,
		mux:    http.NewServeMux(),
	}
	if len(s.secret) == 0 {
		s.secret = make([]byte, 32)
		_, _ = rand.Read(s.secret)
		s.log.Warn("no auth secret configured; using a random per-process secret", slog.String("env", EnvAuthSecret))
	}
	if s.ttl <= 0 {
		s.ttl = 8 * time.Hour
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	s.routes()
	return s
}

// Handler returns the root handler including request logging.
func (s *Server) Handler() http.Handler { return s.withRequestID(s.mux) }

func (s *Server) routes() {
	m := s.mux
	// Health endpoints
	m.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	m.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	m.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(version.String()))
	})

	m.HandleFunc("POST /api/auth/login", s.handleLogin)
	m.HandleFunc("POST /api/auth/logout", s.withAuth(s.handleLogout))
	m.HandleFunc("GET /api/auth/me", s.withAuth(func(w http.ResponseWriter, r *http.Request, u domain.User) {
		writeJSON(w, http.StatusOK, u)
	}))

	m.HandleFunc("GET /api/rotas", s.withAuth(s.listRotas))
	m.HandleFunc("POST /api/rotas", s.withAuth(s.createRota))
	m.HandleFunc("GET /api/rotas/{id}", s.withAuth(s.getRota))
	m.HandleFunc("PUT /api/rotas/{id}", s.withAuth(s.updateRota))
	m.HandleFunc("DELETE /api/rotas/{id}", s.withAuth(s.adminOnly(s.deleteRota)))

	m.HandleFunc("GET /api/programas", s.withAuth(s.listProgramas))
	m.HandleFunc("POST /api/programas", s.withAuth(s.createPrograma))
	m.HandleFunc("GET /api/programas/{id}", s.withAuth(s.getPrograma))
	m.HandleFunc("PUT /api/programas/{id}", s.withAuth(s.updatePrograma))
	m.HandleFunc("DELETE /api/programas/{id}", s.withAuth(s.adminOnly(s.deletePrograma)))

	m.HandleFunc("GET /api/projetos", s.withAuth(s.listProjetos))
	m.HandleFunc("POST /api/projetos", s.withAuth(s.createProjeto))
	m.HandleFunc("GET /api/projetos/{id}", s.withAuth(s.getProjeto))
	m.HandleFunc("PUT /api/projetos/{id}", s.withAuth(s.updateProjeto))
	m.HandleFunc("DELETE /api/projetos/{id}", s.withAuth(s.adminOnly(s.deleteProjeto)))

	m.HandleFunc("GET /api/cidades", s.withAuth(s.listCidades))
}

// Bootstrap creates the first admin account when the user table is empty.
func (s *Server) Bootstrap(ctx context.Context, email, password string) error {
	n, err := s.db.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return nil
	}
	if strings.TrimSpace(email) == "" || password == "" {
		s.log.Warn("no users and no bootstrap admin configured", slog.String("env", EnvAdminEmail))
		return nil
	}
	if _, err := s.CreateUser(ctx, "Administrador", email, password, true); err != nil {
		return err
	}
	s.log.Info("bootstrap admin created", slog.String("email", email))
	return nil
}

// CreateUser hashes the password and stores the account.
func (s *Server) CreateUser(ctx context.Context, name, email, password string, admin bool) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.db.CreateUser(ctx, name, email, string(hash), admin)
}

// Start opens storage per cfg, applies migrations and serves until ctx is done.
func Start(ctx context.Context, cfg config.ServerConfig) error {
	l := applog.WithComponent("server")
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	db, err := storage.Open(openCtx, cfg.Driver, cfg.DSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			l.Error("db close", slog.Any("err", err))
		}
	}()

	s := NewServer(db, ServerOptions{Secret: []byte(os.Getenv(EnvAuthSecret)), TokenTTL: cfg.TokenTTL()})
	if err := s.Bootstrap(ctx, os.Getenv(EnvAdminEmail), os.Getenv(EnvAdminPassword)); err != nil {
		return err
	}

	srv := &http.Server{Addr: cfg.Addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		l.Info("listening", slog.String("addr", cfg.Addr), slog.String("driver", db.Driver()))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		l.Info("shutting down")
		return srv.Shutdown(shutCtx)
	}
}

// --- auth ---

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rec, err := s.db.UserByEmail(r.Context(), req.Email)
	if err == nil {
		err = bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(req.Password))
	}
	if err != nil {
		s.log.InfoContext(r.Context(), "login failed", slog.String("email", req.Email))
		writeError(w, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}
	exp := s.now().Add(s.ttl)
	tok, err := signToken(s.secret, rec.ID, exp)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Session{Token: tok, User: rec.User, ExpiresAt: exp.UTC()})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, _ domain.User) {
	tok := bearer(r)
	claims, err := verifyToken(s.secret, tok, s.now())
	if err == nil {
		err = s.db.RevokeToken(r.Context(), tok, time.Unix(claims.Exp, 0))
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if n, err := s.db.PruneRevoked(r.Context(), s.now()); err == nil && n > 0 {
		s.log.DebugContext(r.Context(), "pruned revoked tokens", slog.Int64("count", n))
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- rotas ---

func (s *Server) listRotas(w http.ResponseWriter, r *http.Request, _ domain.User) {
	list, err := s.db.ListRotas(r.Context())
	s.respond(w, r, http.StatusOK, list, err)
}

func (s *Server) getRota(w http.ResponseWriter, r *http.Request, _ domain.User) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rota, err := s.db.GetRota(r.Context(), id)
	s.respond(w, r, http.StatusOK, rota, err)
}

func (s *Server) createRota(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var in domain.Rota
	if !decodeValid(w, r, &in, validateRota) {
		return
	}
	out, err := s.db.CreateRota(r.Context(), in)
	s.respond(w, r, http.StatusCreated, out, err)
}

func (s *Server) updateRota(w http.ResponseWriter, r *http.Request, _ domain.User) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in domain.Rota
	if !decodeValid(w, r, &in, validateRota) {
		return
	}
	in.ID = id
	out, err := s.db.UpdateRota(r.Context(), in)
	s.respond(w, r, http.StatusOK, out, err)
}

func (s *Server) deleteRota(w http.ResponseWriter, r *http.Request, _ domain.User) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.respond(w, r, http.StatusNoContent, nil, s.db.DeleteRota(r.Context(), id))
}

func validateRota(r *domain.Rota) error {
	if strings.TrimSpace(r.Nome) == "" {
		return errors.New("nome is required")
	}
	return nil
}

// --- programas ---

func (s *Server) listProgramas(w http.ResponseWriter, r *http.Request, _ domain.User) {
	rotaID, ok := queryID(w, r, "rota_id")
	if !ok {
		return
	}
	list, err := s.db.ListProgramas(r.Context(), rotaID)
	s.respond(w, r, http.StatusOK, list, err)
}

func (s *Server) getPrograma(w http.ResponseWriter, r *http.Request, _ domain.User) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := s.db.GetPrograma(r.Context(), id)
	s.respond(w, r, http.StatusOK, p, err)
}

func (s *Server) createPrograma(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var in domain.Programa
	if !decodeValid(w, r, &in, validatePrograma) || !s.parentExists(w, r, "rota", in.RotaID, s.rotaExists) {
		return
	}
	out, err := s.db.CreatePrograma(r.Context(), in)
	s.respond(w, r, http.StatusCreated, out, err)
}

func (s *Server) updatePrograma(w http.ResponseWriter, r *http.Request, _ domain.User) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in domain.Programa
	if !decodeValid(w, r, &in, validatePrograma) || !s.parentExists(w, r, "rota", in.RotaID, s.rotaExists) {
		return
	}
	in.ID = id
	out, err := s.db.UpdatePrograma(r.Context(), in)
	s.respond(w, r, http.StatusOK, out, err)
}

func (s *Server) deletePrograma(w http.ResponseWriter, r *http.Request, _ domain.User) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.respond(w, r, http.StatusNoContent, nil, s.db.DeletePrograma(r.Context(), id))
}

func validatePrograma(p *domain.Programa) error {
	if strings.TrimSpace(p.Nome) == "" {
		return errors.New("nome is required")
	}
	if !cnpj.Valid(p.CNPJ) {
		return cnpj.ErrInvalid
	}
	p.CNPJ = cnpj.Normalize(p.CNPJ)
	p.UF = strings.ToUpper(strings.TrimSpace(p.UF))
	if p.UF != "" && len(p.UF) != 2 {
		return fmt.Errorf("uf %q must have two letters", p.UF)
	}
	return nil
}

func (s *Server) rotaExists(ctx context.Context, id int64) error {
	_, err := s.db.GetRota(ctx, id)
	return err
}

// --- projetos ---

func (s *Server) listProjetos(w http.ResponseWriter, r *http.Request, _ domain.User) {
	programaID, ok := queryID(w, r, "programa_id")
	if !ok {
		return
	}
	list, err := s.db.ListProjetos(r.Context(), programaID)
	s.respond(w, r, http.StatusOK, list, err)
}

func (s *Server) getProjeto(w http.ResponseWriter, r *http.Request, _ domain.User) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := s.db.GetProjeto(r.Context(), id)
	s.respond(w, r, http.StatusOK, p, err)
}

func (s *Server) createProjeto(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var in domain.Projeto
	if !decodeValid(w, r, &in, validateProjeto) || !s.parentExists(w, r, "programa", in.ProgramaID, s.programaExists) {
		return
	}
	out, err := s.db.CreateProjeto(r.Context(), in)
	s.respond(w, r, http.StatusCreated, out, err)
}

func (s *Server) updateProjeto(w http.ResponseWriter, r *http.Request, _ domain.User) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in domain.Projeto
	if !decodeValid(w, r, &in, validateProjeto) || !s.parentExists(w, r, "programa", in.ProgramaID, s.programaExists) {
		return
	}
	in.ID = id
	out, err := s.db.UpdateProjeto(r.Context(), in)
	s.respond(w, r, http.StatusOK, out, err)
}

func (s *Server) deleteProjeto(w http.ResponseWriter, r *http.Request, _ domain.User) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.respond(w, r, http.StatusNoContent, nil, s.db.DeleteProjeto(r.Context(), id))
}

const dateLayout = "2006-01-02"

// validateProjeto checks dates and the canvas blob. A valid canvas is stored
// in its resolved form so persisted geometry always fits the grid.
func validateProjeto(p *domain.Projeto) error {
	if strings.TrimSpace(p.Nome) == "" {
		return errors.New("nome is required")
	}
	var start, end time.Time
	var err error
	if p.Inicio != "" {
		if start, err = time.Parse(dateLayout, p.Inicio); err != nil {
			return fmt.Errorf("inicio: expected YYYY-MM-DD")
		}
	}
	if p.Fim != "" {
		if end, err = time.Parse(dateLayout, p.Fim); err != nil {
			return fmt.Errorf("fim: expected YYYY-MM-DD")
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return errors.New("fim before inicio")
	}
	if len(p.Canvas) == 0 || string(p.Canvas) == "null" {
		p.Canvas = nil
		return nil
	}
	if err := canvas.Validate(p.Canvas); err != nil {
		return err
	}
	saved, err := canvas.Decode(p.Canvas)
	if err != nil {
		return err
	}
	b, err := canvas.Resolve(saved).Encode()
	if err != nil {
		return err
	}
	p.Canvas = b
	return nil
}

func (s *Server) programaExists(ctx context.Context, id int64) error {
	_, err := s.db.GetPrograma(ctx, id)
	return err
}

// --- lookups ---

func (s *Server) listCidades(w http.ResponseWriter, r *http.Request, _ domain.User) {
	uf := r.URL.Query().Get("uf")
	if strings.TrimSpace(uf) == "" {
		writeError(w, http.StatusBadRequest, errors.New("uf is required"))
		return
	}
	list, err := s.db.CidadesByUF(r.Context(), uf)
	s.respond(w, r, http.StatusOK, list, err)
}

// --- helpers: auth, request ids and JSON ---

type tokenClaims struct {
	Sub int64  `json:"sub"`
	Exp int64  `json:"exp"` // unix seconds
	JTI string `json:"jti"`
}

func signToken(secret []byte, userID int64, exp time.Time) (string, error) {
	claims := tokenClaims{Sub: userID, Exp: exp.Unix(), JTI: uuid.NewString()}
	b, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	h := hmac.New(sha256.New, secret)
	_, _ = h.Write(b)
	sig := h.Sum(nil)
	payload := base64.RawURLEncoding.EncodeToString(b)
	signature := base64.RawURLEncoding.EncodeToString(sig)
	return payload + "." + signature, nil
}

func verifyToken(secret []byte, token string, now time.Time) (tokenClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return tokenClaims{}, fmt.Errorf("invalid token format")
	}
	payloadB, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return tokenClaims{}, fmt.Errorf("invalid token payload")
	}
	sigB, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return tokenClaims{}, fmt.Errorf("invalid token signature")
	}
	h := hmac.New(sha256.New, secret)
	_, _ = h.Write(payloadB)
	if !hmac.Equal(h.Sum(nil), sigB) {
		return tokenClaims{}, fmt.Errorf("bad signature")
	}
	var claims tokenClaims
	if err := json.Unmarshal(payloadB, &claims); err != nil {
		return tokenClaims{}, fmt.Errorf("bad claims")
	}
	if claims.Exp <= now.Unix() {
		return tokenClaims{}, fmt.Errorf("token expired")
	}
	if claims.Sub == 0 {
		return tokenClaims{}, fmt.Errorf("token without subject")
	}
	return claims, nil
}

func bearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) < len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}

type authedHandler func(w http.ResponseWriter, r *http.Request, u domain.User)

func (s *Server) withAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearer(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}
		claims, err := verifyToken(s.secret, token, s.now())
		if err != nil {
			writeError(w, http.StatusUnauthorized, errors.New("invalid token"))
			return
		}
		revoked, err := s.db.TokenRevoked(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if revoked {
			writeError(w, http.StatusUnauthorized, errors.New("token revoked"))
			return
		}
		rec, err := s.db.UserByID(r.Context(), claims.Sub)
		if err != nil {
			writeError(w, http.StatusUnauthorized, errors.New("unknown user"))
			return
		}
		next(w, r.WithContext(applog.ContextWithUser(r.Context(), rec.Email)), rec.User)
	}
}

func (s *Server) adminOnly(next authedHandler) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, u domain.User) {
		if !u.Admin {
			writeError(w, http.StatusForbidden, errors.New("admin only"))
			return
		}
		next(w, r, u)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withRequestID propagates or assigns X-Request-ID and logs each request.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(rid); err != nil {
			rid = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", rid)
		ctx := applog.ContextWithRequestID(r.Context(), rid)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))
		s.log.InfoContext(ctx, "request", slog.String("method", r.Method), slog.String("path", r.URL.Path),
			slog.Int("status", rec.status), slog.Duration("took", time.Since(start)))
	})
}

func (s *Server) parentExists(w http.ResponseWriter, r *http.Request, kind string, id int64, check func(context.Context, int64) error) bool {
	err := check(r.Context(), id)
	switch {
	case err == nil:
		return true
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusBadRequest, fmt.Errorf("%s %d not found", kind, id))
	default:
		s.respond(w, r, 0, nil, err)
	}
	return false
}

// respond writes v with status, or maps a storage error onto an HTTP status.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	switch {
	case err == nil:
		if status == http.StatusNoContent {
			w.WriteHeader(status)
			return
		}
		writeJSON(w, status, v)
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, errors.New("not found"))
	case errors.Is(err, storage.ErrConflict):
		writeError(w, http.StatusConflict, errors.New("a record with this name already exists"))
	case errors.Is(err, storage.ErrReference):
		writeError(w, http.StatusConflict, errors.New("record is still referenced"))
	default:
		s.log.ErrorContext(r.Context(), "storage failure", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id"))
		return 0, false
	}
	return id, true
}

func queryID(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id < 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid %s", key))
		return 0, false
	}
	return id, true
}

func decodeBody(r *http.Request, v any) error {
	b, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	_ = r.Body.Close()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func decodeValid[T any](w http.ResponseWriter, r *http.Request, v *T, validate func(*T) error) bool {
	if err := decodeBody(r, v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	if err := validate(v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
