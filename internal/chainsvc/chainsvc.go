// Package chainsvc turns one wallet secret into per-chain capabilities.
// Each supported chain gets a Service with a uniform surface; callers fan
// out across services without knowing which chain family they talk to.
package chainsvc

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrAddressUnavailable means the chain could not produce a usable address
// after exhausting its retry budget.
var ErrAddressUnavailable = errors.New("address unavailable")

// ErrSendUnsupported means the chain service cannot broadcast transactions
// yet. Other operations on the same service still work.
var ErrSendUnsupported = errors.New("sending transactions not supported on this chain")

// Service is the uniform per-chain capability handed out by the Manager.
// Implementations are safe for concurrent use.
type Service interface {
	// Symbol returns the chain symbol (BTC, ETH, ...).
	Symbol() string

	// GetAddress returns the receive address at the given account index.
	GetAddress(ctx context.Context, index uint32) (string, error)

	// GetBalance returns the native balance at index 0 as a display string
	// in whole units.
	GetBalance(ctx context.Context) (string, error)

	// SendTransaction sends amount (whole units, decimal string) to the
	// destination address and returns the transaction id.
	SendTransaction(ctx context.Context, to, amount string) (string, error)

	// ValidateAddress reports whether addr is well formed for this chain.
	ValidateAddress(addr string) bool
}

// Initializer is the optional handshake capability. Services backed by a
// remote wallet node implement it; locally derived chains do not.
type Initializer interface {
	Init(ctx context.Context) error
}

// State describes a service's lifecycle.
type State int32

const (
	StateReady State = iota
	StateInitializing
	StateDegraded // init failed but the service still answers what it can
	StateFailed   // unusable, calls fail fast
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateInitializing:
		return "initializing"
	case StateDegraded:
		return "degraded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// stateHolder is embedded by services to track lifecycle state.
type stateHolder struct {
	state atomic.Int32
}

func (h *stateHolder) setState(s State) { h.state.Store(int32(s)) }

// State returns the current lifecycle state.
func (h *stateHolder) State() State { return State(h.state.Load()) }
