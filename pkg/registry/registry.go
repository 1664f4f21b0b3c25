// Package registry implements the two name record operations: Register binds
// a name to its payer in a freshly allocated slot, and Resolve reads it back.
package registry

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ssargent/namereg/pkg/codec"
	"github.com/ssargent/namereg/pkg/errs"
	"github.com/ssargent/namereg/pkg/ledger"
)

// SlotSize is the space allocated for every record slot. It is the maximum
// record size, not the size of the name being registered.
const SlotSize = codec.MaxRecordSize

// DefaultProgramID is the identity slots are assigned to when no program id
// is configured.
var DefaultProgramID = codec.Identity(sha256.Sum256([]byte("namereg")))

// RentOracle reports the rent-exempt balance for a given data size.
type RentOracle interface {
	MinimumBalance(space uint64) uint64
}

// Allocator creates funded accounts. Creating an account that already exists
// must fail.
type Allocator interface {
	CreateAccount(ctx context.Context, req ledger.CreateAccountRequest) error
}

// SlotStore reads and writes slot buffers.
type SlotStore interface {
	WriteData(ctx context.Context, program, slot codec.Identity, offset int, data []byte) error
	ReadData(ctx context.Context, slot codec.Identity) ([]byte, error)
}

// Ledger is everything the registry needs from the allocation subsystem.
type Ledger interface {
	RentOracle
	Allocator
	SlotStore
}

// Registry runs Register and Resolve against a ledger.
type Registry struct {
	programID codec.Identity
	ledger    Ledger
	clock     Clock
	codec     *codec.RecordCodec
	logger    *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithProgramID sets the program identity that owns created slots.
func WithProgramID(id codec.Identity) Option {
	return func(r *Registry) {
		r.programID = id
	}
}

// WithClock overrides the clock used for created_at.
func WithClock(clock Clock) Option {
	return func(r *Registry) {
		r.clock = clock
	}
}

// WithLogger sets the base logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a registry over l.
func New(l Ledger, opts ...Option) *Registry {
	r := &Registry{
		programID: DefaultProgramID,
		ledger:    l,
		clock:     SystemClock{},
		codec:     codec.NewRecordCodec(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ProgramID returns the identity that owns slots created by this registry.
func (r *Registry) ProgramID() codec.Identity {
	return r.programID
}

// Register validates name, allocates slot funded by payer through the system
// program, and writes the record {name, payer, now} at offset 0 of the slot.
//
// A failure after allocation leaves the slot allocated with undefined contents.
func (r *Registry) Register(ctx context.Context, payer, slot, system codec.Identity, name []byte) (*codec.NameRecord, error) {
	if err := codec.ValidateName(name); err != nil {
		return nil, err
	}

	space := uint64(SlotSize)
	lamports := r.ledger.MinimumBalance(space)

	err := r.ledger.CreateAccount(ctx, ledger.CreateAccountRequest{
		From:          payer,
		To:            slot,
		Lamports:      lamports,
		Space:         space,
		Owner:         r.programID,
		SystemProgram: system,
	})
	if err != nil {
		return nil, errs.Wrap(errs.CodeAllocationFailed, err, "allocate slot")
	}

	record := &codec.NameRecord{
		Name:      string(name),
		Owner:     payer,
		CreatedAt: r.clock.UnixTimestamp(),
	}

	buf := make([]byte, SlotSize)
	if _, err := r.codec.EncodeInto(buf, record); err != nil {
		return nil, err
	}
	if err := r.ledger.WriteData(ctx, r.programID, slot, 0, buf); err != nil {
		return nil, errs.Wrap(errs.CodeAllocationFailed, err, "write slot")
	}

	r.loggerFrom(ctx).InfoContext(ctx, "Registered name: "+record.Name,
		"slot", slot.String(),
		"owner", payer.String(),
		"lamports", lamports)
	return record, nil
}

// Resolve decodes the record stored in slot. A slot that was never written
// fails with errs.CodeCodec.
func (r *Registry) Resolve(ctx context.Context, slot codec.Identity) (*codec.NameRecord, error) {
	data, err := r.ledger.ReadData(ctx, slot)
	if err != nil && !errors.Is(err, ledger.ErrAccountNotFound) {
		return nil, fmt.Errorf("read slot %s: %w", slot, err)
	}

	record, err := r.codec.Decode(data)
	if err != nil {
		return nil, err
	}

	logger := r.loggerFrom(ctx).With("slot", slot.String())
	logger.InfoContext(ctx, "Name: "+record.Name)
	logger.InfoContext(ctx, "Owner: "+record.Owner.String())
	logger.InfoContext(ctx, "Created at: "+strconv.FormatInt(record.CreatedAt, 10))
	return record, nil
}

type loggerKey struct{}

// ContextWithLogger returns a context whose operations log through logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

func (r *Registry) loggerFrom(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return r.logger
}
