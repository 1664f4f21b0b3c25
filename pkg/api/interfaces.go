// Package api provides interfaces for dependency injection
package api

import (
	"context"
	"log/slog"

	"github.com/ssargent/namereg/pkg/codec"
	"github.com/ssargent/namereg/pkg/instruction"
	"github.com/ssargent/namereg/pkg/ledger"
)

// ILedger defines the account operations the API exposes directly
type ILedger interface {
	Account(ctx context.Context, id codec.Identity) (*ledger.Account, error)
	Airdrop(ctx context.Context, id codec.Identity, lamports uint64) (uint64, error)
	MinimumBalance(space uint64) uint64
}

// Invoker runs registry instructions
type Invoker interface {
	Process(ctx context.Context, keys []codec.Identity, data []byte) (*instruction.Result, error)
	Execute(ctx context.Context, accounts instruction.Accounts, ins instruction.Instruction) (*instruction.Result, error)
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves the API until ctx is cancelled
	StartServer(ctx context.Context, l ILedger, invoker Invoker, config ServerConfig, logger *slog.Logger) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
