// Package server wires the benchmark endpoint set onto several Go HTTP
// frameworks. Every variant serves identical payloads so that only the
// framework differs between measurements.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/fwbench/fwbench/payload"
)

// Endpoint paths served by every variant.
const (
	PathJSON1K   = "/json-1k"
	PathJSON10K  = "/json-10k"
	PathDB       = "/db"
	PathSlow     = "/slow"
	PathNPlus1   = "/nplus1"
	PathItems    = "/items"
	PathGraphQL  = "/graphql"
	PathVersions = "/versions"
	PathHealth   = "/health"
)

// GraphQL is the framework name of the GraphQL variant. It serves the
// endpoint set as queries on PathGraphQL instead of REST routes.
const GraphQL = "graphql"

// DefaultSlowDelay is the mock upstream latency of /slow.
const DefaultSlowDelay = 2 * time.Second

// ErrUnknownFramework is returned by New for unsupported framework names.
var ErrUnknownFramework = errors.New("unknown framework")

// Server is a running framework variant.
type Server interface {
	Serve(ln net.Listener) error
	Shutdown(ctx context.Context) error
}

// SlowResponse is the body of /slow.
type SlowResponse struct {
	Status       string `json:"status"`
	DelaySeconds int    `json:"delay_seconds"`
}

// Handlers holds the framework-independent endpoint logic.
type Handlers struct {
	Framework string
	Store     *payload.Store
	SlowDelay time.Duration
	Logger    *slog.Logger

	items payload.ItemCounter
}

type constructor func(h *Handlers) Server

var constructors = map[string]constructor{
	"nethttp": newNetHTTP,
	"gin":     newGin,
	"chi":     newChi,
	"echo":    newEcho,
	"fiber":   newFiber,
	GraphQL:   newGraphQL,
}

// modules lists the framework modules reported by /versions.
var modules = map[string][]string{
	"nethttp": {},
	"gin":     {"github.com/gin-gonic/gin"},
	"chi":     {"github.com/go-chi/chi/v5"},
	"echo":    {"github.com/labstack/echo/v4"},
	"fiber":   {"github.com/gofiber/fiber/v2", "github.com/valyala/fasthttp"},
	GraphQL:   {"github.com/graph-gophers/graphql-go"},
}

// Frameworks returns the supported framework names.
func Frameworks() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// New builds the named framework variant around h.
func New(name string, h *Handlers) (Server, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %v)",
			ErrUnknownFramework, name, Frameworks())
	}

	if h.SlowDelay <= 0 {
		h.SlowDelay = DefaultSlowDelay
	}

	if h.Logger == nil {
		h.Logger = slog.Default()
	}

	h.Framework = name

	return ctor(h), nil
}

// JSON1K returns the ~1KB list.
func (h *Handlers) JSON1K() []payload.Item {
	return payload.JSON1K
}

// JSON10K returns the ~10KB list.
func (h *Handlers) JSON10K() []payload.Item {
	return payload.JSON10K
}

// Users reads the /db page of users.
func (h *Handlers) Users(ctx context.Context) ([]payload.User, error) {
	if h.Store == nil {
		return nil, errors.New("no database configured")
	}

	return h.Store.Users(ctx, payload.DefaultUserCount)
}

// Slow waits SlowDelay, or until ctx is done.
func (h *Handlers) Slow(ctx context.Context) (SlowResponse, error) {
	timer := time.NewTimer(h.SlowDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return SlowResponse{
			Status:       "ok",
			DelaySeconds: int(h.SlowDelay.Round(time.Second) / time.Second),
		}, nil
	case <-ctx.Done():
		return SlowResponse{}, ctx.Err()
	}
}

// NPlus1 returns every N+1 user with orders resolved by one batch load.
func (h *Handlers) NPlus1() []payload.OrderedUser {
	return payload.NPlus1()
}

// CreateItem validates n and acknowledges it with a fresh ID.
func (h *Handlers) CreateItem(n payload.NewItem) (payload.CreatedItem, error) {
	if err := n.Validate(); err != nil {
		return payload.CreatedItem{}, err
	}

	return h.items.Create(n), nil
}

// Versions reports the build of this binary.
func (h *Handlers) Versions() payload.VersionInfo {
	return payload.Versions(h.Framework, modules[h.Framework])
}

// Health is the body of /health.
func (h *Handlers) Health() map[string]string {
	return map[string]string{"status": "ok", "framework": h.Framework}
}

func (h *Handlers) logError(path string, err error) {
	h.Logger.Error("request failed",
		slog.String("framework", h.Framework),
		slog.String("path", path),
		slog.String("error", err.Error()),
	)
}

// httpServer adapts an http.Handler based framework to Server.
type httpServer struct {
	srv *http.Server
}

func newHTTPServer(handler http.Handler) *httpServer {
	return &httpServer{srv: &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

func (s *httpServer) Serve(ln net.Listener) error {
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *httpServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// createItem serves POST /items for the net/http based routers.
func createItem(h *Handlers, w http.ResponseWriter, r *http.Request) {
	var in payload.NewItem
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err))

		return
	}

	item, err := h.CreateItem(in)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err))

		return
	}

	writeJSON(w, http.StatusCreated, item)
}

func errorBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}
