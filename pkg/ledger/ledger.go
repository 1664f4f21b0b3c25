// Package ledger is the account and slot allocation subsystem the name
// registry runs against. Accounts live in a pebble database keyed by identity.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/ssargent/namereg/pkg/codec"
)

// Ledger stores accounts and serializes every mutation through one mutex, so
// two CreateAccount calls for the same slot cannot both succeed.
type Ledger struct {
	db     *pebble.DB
	rent   Rent
	logger *slog.Logger
	mutex  sync.Mutex
	closed bool
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger used for ledger diagnostics. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Open opens or creates the ledger described by config
func Open(config Config, opts ...Option) (*Ledger, error) {
	pebbleOpts := &pebble.Options{}
	dir := config.DataDir
	if config.InMemory {
		pebbleOpts.FS = vfs.NewMem()
		dir = ""
	} else {
		if dir == "" {
			return nil, fmt.Errorf("ledger data dir is required")
		}
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create ledger dir: %w", err)
		}
	}

	db, err := pebble.Open(dir, pebbleOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	rent := config.Rent
	if rent.isZero() {
		rent = DefaultRent()
	}

	l := &Ledger{
		db:     db,
		rent:   rent,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// OpenInMemory opens an empty ledger that lives only as long as the process.
func OpenInMemory(opts ...Option) (*Ledger, error) {
	return Open(Config{InMemory: true}, opts...)
}

// Rent returns the ledger's rent schedule.
func (l *Ledger) Rent() Rent {
	return l.rent
}

// MinimumBalance returns the rent-exempt balance for an account of space bytes.
func (l *Ledger) MinimumBalance(space uint64) uint64 {
	return l.rent.MinimumBalance(space)
}

// Account returns the account for id, or ErrAccountNotFound.
func (l *Ledger) Account(ctx context.Context, id codec.Identity) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.closed {
		return nil, ErrClosed
	}
	return l.get(id)
}

// Airdrop credits lamports to id, creating a system-owned account when it
// does not exist yet, and returns the new balance.
func (l *Ledger) Airdrop(ctx context.Context, id codec.Identity, lamports uint64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.closed {
		return 0, ErrClosed
	}

	account, err := l.get(id)
	if errors.Is(err, ErrAccountNotFound) {
		account = &Account{Owner: SystemProgramID}
	} else if err != nil {
		return 0, err
	}

	if account.Lamports > math.MaxUint64-lamports {
		return 0, ErrBalanceOverflow
	}
	account.Lamports += lamports

	if err := l.db.Set(accountKey(id), encodeAccount(account), pebble.Sync); err != nil {
		return 0, fmt.Errorf("failed to write account: %w", err)
	}

	l.logger.Debug("airdrop", "account", id.String(), "lamports", lamports, "balance", account.Lamports)
	return account.Lamports, nil
}

// CreateAccount funds and allocates req.To from req.From in one batch.
func (l *Ledger) CreateAccount(ctx context.Context, req CreateAccountRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if req.SystemProgram != SystemProgramID {
		return fmt.Errorf("%w: %s", ErrIncorrectProgram, req.SystemProgram)
	}
	if req.Space > MaxPermittedDataLength {
		return fmt.Errorf("%w: %d", ErrInvalidSpace, req.Space)
	}
	if req.From == req.To {
		return fmt.Errorf("%w: funding account cannot fund itself", ErrAccountInUse)
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.closed {
		return ErrClosed
	}

	existing, err := l.get(req.To)
	switch {
	case err == nil:
		if existing.Lamports > 0 || len(existing.Data) > 0 {
			return fmt.Errorf("%w: %s", ErrAccountInUse, req.To)
		}
	case !errors.Is(err, ErrAccountNotFound):
		return err
	}

	from, err := l.get(req.From)
	if errors.Is(err, ErrAccountNotFound) {
		return fmt.Errorf("%w: %s has no balance", ErrInsufficientFunds, req.From)
	} else if err != nil {
		return err
	}
	if from.Lamports < req.Lamports {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, req.From, from.Lamports, req.Lamports)
	}
	from.Lamports -= req.Lamports

	created := &Account{
		Lamports: req.Lamports,
		Owner:    req.Owner,
		Data:     make([]byte, req.Space),
	}

	batch := l.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(accountKey(req.From), encodeAccount(from), nil); err != nil {
		return fmt.Errorf("failed to stage debit: %w", err)
	}
	if err := batch.Set(accountKey(req.To), encodeAccount(created), nil); err != nil {
		return fmt.Errorf("failed to stage account: %w", err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to commit account creation: %w", err)
	}

	l.logger.Debug("account created",
		"account", req.To.String(),
		"payer", req.From.String(),
		"lamports", req.Lamports,
		"space", req.Space,
		"owner", req.Owner.String())
	return nil
}

// WriteData copies data into the account's buffer at offset. Only the owning
// program may write, and the write must fit inside the allocated space.
func (l *Ledger) WriteData(ctx context.Context, program, id codec.Identity, offset int, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.closed {
		return ErrClosed
	}

	account, err := l.get(id)
	if err != nil {
		return err
	}
	if account.Owner != program {
		return fmt.Errorf("%w: %s is owned by %s", ErrReadOnly, id, account.Owner)
	}
	if offset < 0 || offset+len(data) > len(account.Data) {
		return fmt.Errorf("%w: %d bytes at offset %d into %d", ErrDataTooLarge, len(data), offset, len(account.Data))
	}

	copy(account.Data[offset:], data)
	if err := l.db.Set(accountKey(id), encodeAccount(account), pebble.Sync); err != nil {
		return fmt.Errorf("failed to write account data: %w", err)
	}
	return nil
}

// ReadData returns a copy of the account's data buffer.
func (l *Ledger) ReadData(ctx context.Context, id codec.Identity) ([]byte, error) {
	account, err := l.Account(ctx, id)
	if err != nil {
		return nil, err
	}
	return account.Data, nil
}

// Close closes the underlying database
func (l *Ledger) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.db.Close()
}

// get reads an account without acquiring the mutex
func (l *Ledger) get(id codec.Identity) (*Account, error) {
	data, closer, err := l.db.Get(accountKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read account: %w", err)
	}
	defer closer.Close()

	return decodeAccount(data)
}
