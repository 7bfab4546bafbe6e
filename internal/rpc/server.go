// Package rpc provides a JSON-RPC 2.0 server for the Prism wallet daemon,
// plus a WebSocket stream of connection status changes.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prism-wallet/prism/internal/cache"
	"github.com/prism-wallet/prism/internal/chainsvc"
	"github.com/prism-wallet/prism/internal/loader"
	"github.com/prism-wallet/prism/internal/status"
	"github.com/prism-wallet/prism/internal/store"
	"github.com/prism-wallet/prism/internal/swap"
	"github.com/prism-wallet/prism/internal/tokens"
	"github.com/prism-wallet/prism/pkg/logging"
)

// Server is a JSON-RPC 2.0 server.
type Server struct {
	store    *store.Store
	manager  *chainsvc.Manager
	loader   *loader.Loader
	cache    *cache.Cache
	engine   *swap.Engine
	agg      *status.Aggregator
	discover *tokens.Discoverer // nil when no EVM chain is enabled
	log      *logging.Logger

	server   *http.Server
	listener net.Listener

	handlers map[string]Handler
	mu       sync.RWMutex
}

// Handler is a JSON-RPC method handler.
type Handler func(ctx context.Context, params json.RawMessage) (interface{}, error)

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id,omitempty"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error represents a JSON-RPC 2.0 error.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Standard error codes.
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// Deps bundles everything the server serves.
type Deps struct {
	Store    *store.Store
	Manager  *chainsvc.Manager
	Loader   *loader.Loader
	Cache    *cache.Cache
	Engine   *swap.Engine
	Status   *status.Aggregator
	Discover *tokens.Discoverer
}

// NewServer creates a new JSON-RPC server.
func NewServer(deps Deps) *Server {
	s := &Server{
		store:    deps.Store,
		manager:  deps.Manager,
		loader:   deps.Loader,
		cache:    deps.Cache,
		engine:   deps.Engine,
		agg:      deps.Status,
		discover: deps.Discover,
		log:      logging.GetDefault().Component("rpc"),
		handlers: make(map[string]Handler),
	}
	s.registerHandlers()
	return s
}

func (s *Server) registerHandlers() {
	// Wallet methods
	s.handlers["wallet_generate"] = s.walletGenerate
	s.handlers["wallet_create"] = s.walletCreate
	s.handlers["wallet_list"] = s.walletList
	s.handlers["wallet_delete"] = s.walletDelete
	s.handlers["wallet_load"] = s.walletLoad
	s.handlers["wallet_getAddress"] = s.walletGetAddress
	s.handlers["wallet_getAddresses"] = s.walletGetAddresses
	s.handlers["wallet_getBalance"] = s.walletGetBalance
	s.handlers["wallet_send"] = s.walletSend
	s.handlers["wallet_validateMnemonic"] = s.walletValidateMnemonic
	s.handlers["wallet_setActive"] = s.walletSetActive
	s.handlers["wallet_getActive"] = s.walletGetActive

	// Chain and status methods
	s.handlers["chains_list"] = s.chainsList
	s.handlers["status_get"] = s.statusGet

	// Token discovery
	s.handlers["tokens_discover"] = s.tokensDiscover

	// Swap methods
	s.handlers["swap_quote"] = s.swapQuote
	s.handlers["swap_create"] = s.swapCreate
}

// Start starts the RPC server.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("POST /", s.handleRPC)
	mux.HandleFunc("POST /{$}", s.handleRPC)
	mux.HandleFunc("GET /ws/status", s.handleStatusWS)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second, // wallet_load can run long with privacy chains
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("RPC server error", "error", err)
		}
	}()

	s.log.Info("RPC server started", "addr", addr, "ws", "ws://"+addr+"/ws/status")
	return nil
}

// Stop stops the RPC server.
func (s *Server) Stop() error {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeResponse(w, &Response{
			JSONRPC: "2.0",
			Error:   &Error{Code: ParseError, Message: "parse error"},
		})
		return
	}

	s.mu.RLock()
	handler, ok := s.handlers[req.Method]
	s.mu.RUnlock()
	if !ok {
		s.writeResponse(w, &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &Error{Code: MethodNotFound, Message: fmt.Sprintf("method %q not found", req.Method)},
		})
		return
	}

	result, err := handler(r.Context(), req.Params)
	if err != nil {
		s.log.Debug("method failed", "method", req.Method, "error", err)
		s.writeResponse(w, &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &Error{Code: InternalError, Message: err.Error()},
		})
		return
	}

	s.writeResponse(w, &Response{JSONRPC: "2.0", ID: req.ID, Result: result})
}

func (s *Server) writeResponse(w http.ResponseWriter, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Error("failed to write response", "error", err)
	}
}
