package registry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/namereg/pkg/codec"
	"github.com/ssargent/namereg/pkg/errs"
	"github.com/ssargent/namereg/pkg/ledger"
)

const registeredAt = 1719043200

type fixture struct {
	ledger   *ledger.Ledger
	registry *Registry
	logs     *bytes.Buffer
	payer    codec.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	l, err := ledger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	payer := newID(t)
	_, err = l.Airdrop(context.Background(), payer, 100*l.MinimumBalance(SlotSize))
	require.NoError(t, err)

	return &fixture{
		ledger:   l,
		registry: New(l, WithClock(FixedClock(registeredAt)), WithLogger(logger)),
		logs:     logs,
		payer:    payer,
	}
}

func newID(t *testing.T) codec.Identity {
	t.Helper()
	id, err := codec.NewIdentity()
	require.NoError(t, err)
	return id
}

func TestRegistry_RegisterThenResolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := newID(t)

	record, err := f.registry.Register(ctx, f.payer, slot, ledger.SystemProgramID, []byte("example.sol"))
	require.NoError(t, err)
	assert.Equal(t, &codec.NameRecord{Name: "example.sol", Owner: f.payer, CreatedAt: registeredAt}, record)

	resolved, err := f.registry.Resolve(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, record, resolved)

	logs := f.logs.String()
	assert.Contains(t, logs, "Registered name: example.sol")
	assert.Contains(t, logs, "Name: example.sol")
	assert.Contains(t, logs, "Owner: "+f.payer.String())
	assert.Contains(t, logs, "Created at: 1719043200")
}

func TestRegistry_SlotLayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := newID(t)

	_, err := f.registry.Register(ctx, f.payer, slot, ledger.SystemProgramID, []byte("a"))
	require.NoError(t, err)

	account, err := f.ledger.Account(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, SlotSize, account.Space(), "slot is always allocated at the maximum record size")
	assert.Equal(t, f.registry.ProgramID(), account.Owner)
	assert.Equal(t, f.ledger.MinimumBalance(SlotSize), account.Lamports)

	want, err := codec.NewRecordCodec().Encode(&codec.NameRecord{Name: "a", Owner: f.payer, CreatedAt: registeredAt})
	require.NoError(t, err)
	assert.Equal(t, want, account.Data[:len(want)])
	assert.Equal(t, make([]byte, SlotSize-len(want)), account.Data[len(want):])
}

func TestRegistry_RegisterRejectsInvalidNames(t *testing.T) {
	testCases := []struct {
		name string
		in   []byte
	}{
		{name: "empty", in: []byte{}},
		{name: "nil", in: nil},
		{name: "65 bytes", in: []byte(strings.Repeat("a", 65))},
		{name: "invalid utf8", in: []byte{0xc3, 0x28}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeLedger{}
			r := New(fake)

			_, err := r.Register(context.Background(), codec.Identity{1}, codec.Identity{2}, ledger.SystemProgramID, tc.in)
			assert.True(t, errs.IsCode(err, errs.CodeInvalidInput), "got %v", err)
			assert.Zero(t, fake.rentCalls, "rent must not be queried")
			assert.Zero(t, fake.createCalls, "allocator must not be called")
			assert.Zero(t, fake.writeCalls)
		})
	}
}

func TestRegistry_MaximumLengthName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := newID(t)
	name := strings.Repeat("m", codec.MaxNameLength)

	_, err := f.registry.Register(ctx, f.payer, slot, ledger.SystemProgramID, []byte(name))
	require.NoError(t, err)

	record, err := f.registry.Resolve(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, name, record.Name)
}

func TestRegistry_AllocationFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("insufficient funds", func(t *testing.T) {
		f := newFixture(t)
		poor := newID(t)
		_, err := f.ledger.Airdrop(ctx, poor, f.ledger.MinimumBalance(SlotSize)-1)
		require.NoError(t, err)

		_, err = f.registry.Register(ctx, poor, newID(t), ledger.SystemProgramID, []byte("poor.sol"))
		assert.True(t, errs.IsCode(err, errs.CodeAllocationFailed), "got %v", err)
		assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	})

	t.Run("slot already registered", func(t *testing.T) {
		f := newFixture(t)
		slot := newID(t)
		_, err := f.registry.Register(ctx, f.payer, slot, ledger.SystemProgramID, []byte("first.sol"))
		require.NoError(t, err)

		_, err = f.registry.Register(ctx, f.payer, slot, ledger.SystemProgramID, []byte("second.sol"))
		assert.True(t, errs.IsCode(err, errs.CodeAllocationFailed), "got %v", err)
		assert.ErrorIs(t, err, ledger.ErrAccountInUse)

		record, err := f.registry.Resolve(ctx, slot)
		require.NoError(t, err)
		assert.Equal(t, "first.sol", record.Name, "records are immutable once written")
	})

	t.Run("wrong system program", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.registry.Register(ctx, f.payer, newID(t), newID(t), []byte("sys.sol"))
		assert.True(t, errs.IsCode(err, errs.CodeAllocationFailed), "got %v", err)
		assert.ErrorIs(t, err, ledger.ErrIncorrectProgram)
	})

	t.Run("write rejected after allocation", func(t *testing.T) {
		fake := &fakeLedger{writeErr: errors.New("disk full")}
		r := New(fake)

		_, err := r.Register(ctx, codec.Identity{1}, codec.Identity{2}, ledger.SystemProgramID, []byte("late.sol"))
		assert.True(t, errs.IsCode(err, errs.CodeAllocationFailed), "got %v", err)
		assert.Equal(t, 1, fake.createCalls)
		assert.Equal(t, 1, fake.writeCalls)
	})
}

func TestRegistry_ResolveFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("never allocated", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.registry.Resolve(ctx, newID(t))
		assert.True(t, errs.IsCode(err, errs.CodeCodec), "got %v", err)
	})

	t.Run("allocated but never written", func(t *testing.T) {
		f := newFixture(t)
		slot := newID(t)
		require.NoError(t, f.ledger.CreateAccount(ctx, ledger.CreateAccountRequest{
			From: f.payer, To: slot, Lamports: 1, Space: SlotSize,
			Owner: f.registry.ProgramID(), SystemProgram: ledger.SystemProgramID,
		}))

		_, err := f.registry.Resolve(ctx, slot)
		assert.True(t, errs.IsCode(err, errs.CodeCodec), "got %v", err)
	})

	t.Run("plain system account", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.registry.Resolve(ctx, f.payer)
		assert.True(t, errs.IsCode(err, errs.CodeCodec), "got %v", err)
	})

	t.Run("ledger failure is not a codec error", func(t *testing.T) {
		fake := &fakeLedger{readErr: errors.New("io error")}
		_, err := New(fake).Resolve(ctx, codec.Identity{3})
		require.Error(t, err)
		assert.Equal(t, errs.CodeUnknown, errs.GetCode(err))
	})
}

func TestRegistry_OwnerBinding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		payer := newID(t)
		_, err := f.ledger.Airdrop(ctx, payer, f.ledger.MinimumBalance(SlotSize))
		require.NoError(t, err)

		name := gofakeit.DomainName()
		if len(name) > codec.MaxNameLength {
			name = name[:codec.MaxNameLength]
		}
		clock := FixedClock(gofakeit.Int64())
		r := New(f.ledger, WithClock(clock), WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))

		slot := newID(t)
		_, err = r.Register(ctx, payer, slot, ledger.SystemProgramID, []byte(name))
		require.NoError(t, err)

		record, err := r.Resolve(ctx, slot)
		require.NoError(t, err)
		assert.Equal(t, payer, record.Owner)
		assert.Equal(t, name, record.Name)
		assert.Equal(t, int64(clock), record.CreatedAt)
	}
}

func TestRegistry_ConcurrentRegisterSameSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := newID(t)

	payers := []codec.Identity{f.payer, newID(t)}
	_, err := f.ledger.Airdrop(ctx, payers[1], f.ledger.MinimumBalance(SlotSize))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, len(payers))
	for i, payer := range payers {
		wg.Add(1)
		go func(i int, payer codec.Identity) {
			defer wg.Done()
			_, results[i] = f.registry.Register(ctx, payer, slot, ledger.SystemProgramID, []byte("race.sol"))
		}(i, payer)
	}
	wg.Wait()

	var winner codec.Identity
	succeeded := 0
	for i, err := range results {
		if err == nil {
			succeeded++
			winner = payers[i]
			continue
		}
		assert.True(t, errs.IsCode(err, errs.CodeAllocationFailed), "got %v", err)
	}
	require.Equal(t, 1, succeeded)

	record, err := f.registry.Resolve(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, winner, record.Owner)
}

func TestRegistry_ContextLogger(t *testing.T) {
	f := newFixture(t)
	buf := &bytes.Buffer{}
	ctx := ContextWithLogger(context.Background(), slog.New(slog.NewTextHandler(buf, nil)).With("invocation_id", "abc"))

	_, err := f.registry.Register(ctx, f.payer, newID(t), ledger.SystemProgramID, []byte("ctx.sol"))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "invocation_id=abc")
	assert.NotContains(t, f.logs.String(), "ctx.sol")
}

// fakeLedger counts calls and injects failures
type fakeLedger struct {
	rentCalls   int
	createCalls int
	writeCalls  int
	writeErr    error
	readErr     error
}

func (f *fakeLedger) MinimumBalance(space uint64) uint64 {
	f.rentCalls++
	return space
}

func (f *fakeLedger) CreateAccount(context.Context, ledger.CreateAccountRequest) error {
	f.createCalls++
	return nil
}

func (f *fakeLedger) WriteData(context.Context, codec.Identity, codec.Identity, int, []byte) error {
	f.writeCalls++
	return f.writeErr
}

func (f *fakeLedger) ReadData(context.Context, codec.Identity) ([]byte, error) {
	return nil, f.readErr
}
