package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/namereg/pkg/codec"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func newID(t *testing.T) codec.Identity {
	t.Helper()
	id, err := codec.NewIdentity()
	require.NoError(t, err)
	return id
}

func TestLedger_Airdrop(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	payer := newID(t)

	balance, err := l.Airdrop(ctx, payer, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), balance)

	balance, err = l.Airdrop(ctx, payer, 500)
	require.NoError(t, err)
	assert.Equal(t, uint64(1500), balance)

	account, err := l.Account(ctx, payer)
	require.NoError(t, err)
	assert.Equal(t, uint64(1500), account.Lamports)
	assert.Equal(t, SystemProgramID, account.Owner)
	assert.Equal(t, 0, account.Space())
}

func TestLedger_AirdropOverflow(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	payer := newID(t)

	_, err := l.Airdrop(ctx, payer, ^uint64(0))
	require.NoError(t, err)

	_, err = l.Airdrop(ctx, payer, 1)
	assert.ErrorIs(t, err, ErrBalanceOverflow)
}

func TestLedger_AccountNotFound(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Account(context.Background(), newID(t))
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = l.ReadData(context.Background(), newID(t))
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestLedger_CreateAccount(t *testing.T) {
	ctx := context.Background()
	program := newID(t)

	t.Run("debits payer and allocates zeroed data", func(t *testing.T) {
		l := newTestLedger(t)
		payer, slot := newID(t), newID(t)
		_, err := l.Airdrop(ctx, payer, 5_000_000)
		require.NoError(t, err)

		lamports := l.MinimumBalance(256)
		err = l.CreateAccount(ctx, CreateAccountRequest{
			From: payer, To: slot, Lamports: lamports, Space: 256, Owner: program, SystemProgram: SystemProgramID,
		})
		require.NoError(t, err)

		payerAccount, err := l.Account(ctx, payer)
		require.NoError(t, err)
		assert.Equal(t, 5_000_000-lamports, payerAccount.Lamports)

		slotAccount, err := l.Account(ctx, slot)
		require.NoError(t, err)
		assert.Equal(t, lamports, slotAccount.Lamports)
		assert.Equal(t, program, slotAccount.Owner)
		assert.Equal(t, make([]byte, 256), slotAccount.Data)
		assert.True(t, l.Rent().IsExempt(slotAccount.Lamports, 256))
	})

	t.Run("insufficient funds", func(t *testing.T) {
		l := newTestLedger(t)
		payer, slot := newID(t), newID(t)
		_, err := l.Airdrop(ctx, payer, 10)
		require.NoError(t, err)

		err = l.CreateAccount(ctx, CreateAccountRequest{
			From: payer, To: slot, Lamports: 11, Space: 256, Owner: program, SystemProgram: SystemProgramID,
		})
		assert.ErrorIs(t, err, ErrInsufficientFunds)

		_, err = l.Account(ctx, slot)
		assert.ErrorIs(t, err, ErrAccountNotFound)

		payerAccount, err := l.Account(ctx, payer)
		require.NoError(t, err)
		assert.Equal(t, uint64(10), payerAccount.Lamports)
	})

	t.Run("unfunded payer", func(t *testing.T) {
		l := newTestLedger(t)
		err := l.CreateAccount(ctx, CreateAccountRequest{
			From: newID(t), To: newID(t), Lamports: 1, Space: 1, Owner: program, SystemProgram: SystemProgramID,
		})
		assert.ErrorIs(t, err, ErrInsufficientFunds)
	})

	t.Run("slot already in use", func(t *testing.T) {
		l := newTestLedger(t)
		payer, slot := newID(t), newID(t)
		_, err := l.Airdrop(ctx, payer, 100)
		require.NoError(t, err)

		req := CreateAccountRequest{From: payer, To: slot, Lamports: 10, Space: 8, Owner: program, SystemProgram: SystemProgramID}
		require.NoError(t, l.CreateAccount(ctx, req))
		assert.ErrorIs(t, l.CreateAccount(ctx, req), ErrAccountInUse)

		payerAccount, err := l.Account(ctx, payer)
		require.NoError(t, err)
		assert.Equal(t, uint64(90), payerAccount.Lamports)
	})

	t.Run("funded but unallocated target is in use", func(t *testing.T) {
		l := newTestLedger(t)
		payer, slot := newID(t), newID(t)
		_, err := l.Airdrop(ctx, payer, 100)
		require.NoError(t, err)
		_, err = l.Airdrop(ctx, slot, 1)
		require.NoError(t, err)

		err = l.CreateAccount(ctx, CreateAccountRequest{
			From: payer, To: slot, Lamports: 10, Space: 8, Owner: program, SystemProgram: SystemProgramID,
		})
		assert.ErrorIs(t, err, ErrAccountInUse)
	})

	t.Run("wrong system program", func(t *testing.T) {
		l := newTestLedger(t)
		payer := newID(t)
		_, err := l.Airdrop(ctx, payer, 100)
		require.NoError(t, err)

		err = l.CreateAccount(ctx, CreateAccountRequest{
			From: payer, To: newID(t), Lamports: 10, Space: 8, Owner: program, SystemProgram: newID(t),
		})
		assert.ErrorIs(t, err, ErrIncorrectProgram)
	})

	t.Run("space too large", func(t *testing.T) {
		l := newTestLedger(t)
		err := l.CreateAccount(ctx, CreateAccountRequest{
			From: newID(t), To: newID(t), Space: MaxPermittedDataLength + 1, SystemProgram: SystemProgramID,
		})
		assert.ErrorIs(t, err, ErrInvalidSpace)
	})

	t.Run("self funding", func(t *testing.T) {
		l := newTestLedger(t)
		payer := newID(t)
		err := l.CreateAccount(ctx, CreateAccountRequest{From: payer, To: payer, SystemProgram: SystemProgramID})
		assert.ErrorIs(t, err, ErrAccountInUse)
	})

	t.Run("canceled context", func(t *testing.T) {
		l := newTestLedger(t)
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		err := l.CreateAccount(canceled, CreateAccountRequest{SystemProgram: SystemProgramID})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLedger_CreateAccountRace(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	program, slot := newID(t), newID(t)

	const racers = 16
	payers := make([]codec.Identity, racers)
	for i := range payers {
		payers[i] = newID(t)
		_, err := l.Airdrop(ctx, payers[i], 1000)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	results := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = l.CreateAccount(ctx, CreateAccountRequest{
				From: payers[i], To: slot, Lamports: 100, Space: 16, Owner: program, SystemProgram: SystemProgramID,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrAccountInUse)
	}
	assert.Equal(t, 1, succeeded)
}

func TestLedger_WriteData(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	program, payer, slot := newID(t), newID(t), newID(t)

	_, err := l.Airdrop(ctx, payer, 100)
	require.NoError(t, err)
	require.NoError(t, l.CreateAccount(ctx, CreateAccountRequest{
		From: payer, To: slot, Lamports: 10, Space: 8, Owner: program, SystemProgram: SystemProgramID,
	}))

	require.NoError(t, l.WriteData(ctx, program, slot, 2, []byte{1, 2, 3}))
	data, err := l.ReadData(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 1, 2, 3, 0, 0, 0}, data)

	data[0] = 0xFF
	again, err := l.ReadData(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, byte(0), again[0], "ReadData must return a copy")

	assert.ErrorIs(t, l.WriteData(ctx, newID(t), slot, 0, []byte{1}), ErrReadOnly)
	assert.ErrorIs(t, l.WriteData(ctx, program, slot, 6, []byte{1, 2, 3}), ErrDataTooLarge)
	assert.ErrorIs(t, l.WriteData(ctx, program, slot, -1, []byte{1}), ErrDataTooLarge)
	assert.ErrorIs(t, l.WriteData(ctx, program, newID(t), 0, []byte{1}), ErrAccountNotFound)
}

func TestLedger_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	payer := newID(t)

	l, err := Open(Config{DataDir: dir})
	require.NoError(t, err)
	_, err = l.Airdrop(ctx, payer, 42)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	_, err = l.Account(ctx, payer)
	assert.ErrorIs(t, err, ErrClosed)

	reopened, err := Open(Config{DataDir: dir})
	require.NoError(t, err)
	defer reopened.Close()

	account, err := reopened.Account(ctx, payer)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), account.Lamports)
}

func TestOpen_RequiresDataDir(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestAccountEncoding(t *testing.T) {
	a := &Account{Lamports: 7, Owner: codec.Identity{1, 2, 3}, Data: []byte("slot data")}

	decoded, err := decodeAccount(encodeAccount(a))
	require.NoError(t, err)
	assert.Equal(t, a, decoded)

	_, err = decodeAccount([]byte{1, 2})
	assert.Error(t, err)

	corrupt := encodeAccount(a)
	_, err = decodeAccount(corrupt[:len(corrupt)-1])
	assert.Error(t, err)
}
