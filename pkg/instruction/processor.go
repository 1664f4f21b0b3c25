package instruction

import (
	"context"
	"log/slog"

	"github.com/segmentio/ksuid"

	"github.com/ssargent/namereg/pkg/codec"
	"github.com/ssargent/namereg/pkg/errs"
	"github.com/ssargent/namereg/pkg/registry"
)

// AccountCount is the number of accounts every instruction must supply.
const AccountCount = 3

// Accounts are the identities an instruction operates on, in wire order.
type Accounts struct {
	Payer  codec.Identity
	Slot   codec.Identity
	System codec.Identity
}

// List returns the accounts in wire order.
func (a Accounts) List() []codec.Identity {
	return []codec.Identity{a.Payer, a.Slot, a.System}
}

// AccountsFrom maps keys in wire order [payer, slot, system]. Extra keys are ignored.
func AccountsFrom(keys []codec.Identity) (Accounts, error) {
	if len(keys) < AccountCount {
		return Accounts{}, errs.InvalidInput("not enough account keys: got %d, need %d", len(keys), AccountCount)
	}
	return Accounts{Payer: keys[0], Slot: keys[1], System: keys[2]}, nil
}

// Operations is the subset of the registry the processor dispatches to.
type Operations interface {
	Register(ctx context.Context, payer, slot, system codec.Identity, name []byte) (*codec.NameRecord, error)
	Resolve(ctx context.Context, slot codec.Identity) (*codec.NameRecord, error)
}

// Result describes a processed instruction.
type Result struct {
	InvocationID ksuid.KSUID       `json:"invocation_id"`
	Opcode       Opcode            `json:"opcode"`
	Slot         codec.Identity    `json:"slot"`
	Record       *codec.NameRecord `json:"record,omitempty"`
}

// Processor routes decoded instructions to the registry.
type Processor struct {
	ops    Operations
	logger *slog.Logger
}

// NewProcessor creates a processor. A nil logger falls back to slog.Default.
func NewProcessor(ops Operations, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{ops: ops, logger: logger}
}

// Process decodes data and runs it against keys. Instruction errors are
// reported before any account is looked at.
func (p *Processor) Process(ctx context.Context, keys []codec.Identity, data []byte) (*Result, error) {
	ins, err := Decode(data)
	if err != nil {
		return nil, err
	}

	accounts, err := AccountsFrom(keys)
	if err != nil {
		return nil, err
	}

	return p.Execute(ctx, accounts, ins)
}

// Execute runs an already decoded instruction.
func (p *Processor) Execute(ctx context.Context, accounts Accounts, ins Instruction) (*Result, error) {
	result := &Result{
		InvocationID: ksuid.New(),
		Opcode:       ins.Opcode(),
		Slot:         accounts.Slot,
	}

	logger := p.logger.With(
		"invocation_id", result.InvocationID.String(),
		"instruction", ins.Opcode().String(),
	)
	ctx = registry.ContextWithLogger(ctx, logger)

	var err error
	switch v := ins.(type) {
	case RegisterName:
		result.Record, err = p.ops.Register(ctx, accounts.Payer, accounts.Slot, accounts.System, v.Name)
	case *RegisterName:
		result.Record, err = p.ops.Register(ctx, accounts.Payer, accounts.Slot, accounts.System, v.Name)
	case ResolveName, *ResolveName:
		result.Record, err = p.ops.Resolve(ctx, accounts.Slot)
	default:
		err = errs.InvalidInput("unsupported instruction %T", ins)
	}
	if err != nil {
		logger.WarnContext(ctx, "instruction failed", "code", string(errs.GetCode(err)), "error", err)
		return nil, err
	}

	return result, nil
}
