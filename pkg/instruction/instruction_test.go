package instruction

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/namereg/pkg/codec"
	"github.com/ssargent/namereg/pkg/errs"
	"github.com/ssargent/namereg/pkg/ledger"
	"github.com/ssargent/namereg/pkg/registry"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    Instruction
		wantErr bool
	}{
		{name: "register", data: append([]byte{0}, "example.sol"...), want: RegisterName{Name: []byte("example.sol")}},
		{name: "register empty payload", data: []byte{0}, want: RegisterName{Name: []byte{}}},
		{name: "resolve", data: []byte{1}, want: ResolveName{}},
		{name: "resolve ignores payload", data: []byte{1, 'x', 'y'}, want: ResolveName{}},
		{name: "empty", data: nil, wantErr: true},
		{name: "unknown opcode", data: []byte{2, 'a'}, wantErr: true},
		{name: "high opcode", data: []byte{0xFF}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.data)
			if tt.wantErr {
				assert.True(t, errs.IsCode(err, errs.CodeInvalidInput), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_CopiesPayload(t *testing.T) {
	data := append([]byte{0}, "copy.sol"...)
	ins, err := Decode(data)
	require.NoError(t, err)

	data[1] = 'X'
	assert.Equal(t, []byte("copy.sol"), ins.(RegisterName).Name)
}

func TestEncode(t *testing.T) {
	assert.Equal(t, append([]byte{0}, "a.sol"...), Encode(RegisterName{Name: []byte("a.sol")}))
	assert.Equal(t, append([]byte{0}, "b.sol"...), Encode(&RegisterName{Name: []byte("b.sol")}))
	assert.Equal(t, []byte{1}, Encode(ResolveName{}))

	for _, ins := range []Instruction{RegisterName{Name: []byte("rt.sol")}, ResolveName{}} {
		decoded, err := Decode(Encode(ins))
		require.NoError(t, err)
		assert.Equal(t, ins, decoded)
	}
}

func TestOpcode_String(t *testing.T) {
	assert.Equal(t, "register", OpRegister.String())
	assert.Equal(t, "resolve", OpResolve.String())
	assert.Equal(t, "opcode(9)", Opcode(9).String())
}

func TestAccountsFrom(t *testing.T) {
	keys := []codec.Identity{{1}, {2}, {3}, {4}}

	accounts, err := AccountsFrom(keys)
	require.NoError(t, err)
	assert.Equal(t, Accounts{Payer: codec.Identity{1}, Slot: codec.Identity{2}, System: codec.Identity{3}}, accounts)
	assert.Equal(t, keys[:3], accounts.List())

	_, err = AccountsFrom(keys[:2])
	assert.True(t, errs.IsCode(err, errs.CodeInvalidInput))
}

type recordingOps struct {
	registered [][]byte
	resolved   []codec.Identity
}

func (r *recordingOps) Register(_ context.Context, payer, slot, _ codec.Identity, name []byte) (*codec.NameRecord, error) {
	r.registered = append(r.registered, name)
	return &codec.NameRecord{Name: string(name), Owner: payer}, nil
}

func (r *recordingOps) Resolve(_ context.Context, slot codec.Identity) (*codec.NameRecord, error) {
	r.resolved = append(r.resolved, slot)
	return &codec.NameRecord{Name: "resolved"}, nil
}

func TestProcessor_Dispatch(t *testing.T) {
	ops := &recordingOps{}
	p := NewProcessor(ops, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	keys := []codec.Identity{{1}, {2}, {}}
	ctx := context.Background()

	result, err := p.Process(ctx, keys, append([]byte{0}, "x.sol"...))
	require.NoError(t, err)
	assert.Equal(t, OpRegister, result.Opcode)
	assert.Equal(t, codec.Identity{2}, result.Slot)
	assert.False(t, result.InvocationID.IsNil())
	assert.Equal(t, [][]byte{[]byte("x.sol")}, ops.registered)

	result, err = p.Process(ctx, keys, []byte{1, 0xde, 0xad})
	require.NoError(t, err)
	assert.Equal(t, OpResolve, result.Opcode)
	assert.Equal(t, []codec.Identity{{2}}, ops.resolved)

	ptrResult, err := p.Execute(ctx, Accounts{Slot: codec.Identity{5}}, &ResolveName{})
	require.NoError(t, err)
	assert.Equal(t, "resolved", ptrResult.Record.Name)
}

func TestProcessor_RejectsBeforeAccountAccess(t *testing.T) {
	ops := &recordingOps{}
	p := NewProcessor(ops, nil)

	_, err := p.Process(context.Background(), nil, nil)
	assert.True(t, errs.IsCode(err, errs.CodeInvalidInput))

	_, err = p.Process(context.Background(), nil, []byte{7})
	assert.True(t, errs.IsCode(err, errs.CodeInvalidInput))
	assert.Contains(t, err.Error(), "unknown instruction")

	_, err = p.Process(context.Background(), []codec.Identity{{1}}, []byte{1})
	assert.True(t, errs.IsCode(err, errs.CodeInvalidInput))
	assert.Contains(t, err.Error(), "not enough account keys")

	assert.Empty(t, ops.registered)
	assert.Empty(t, ops.resolved)
}

func TestProcessor_EndToEnd(t *testing.T) {
	ctx := context.Background()
	l, err := ledger.OpenInMemory()
	require.NoError(t, err)
	defer l.Close()

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))
	reg := registry.New(l, registry.WithClock(registry.FixedClock(1700000000)), registry.WithLogger(logger))
	p := NewProcessor(reg, logger)

	payer, err := codec.NewIdentity()
	require.NoError(t, err)
	slot, err := codec.NewIdentity()
	require.NoError(t, err)
	_, err = l.Airdrop(ctx, payer, l.MinimumBalance(registry.SlotSize))
	require.NoError(t, err)

	keys := Accounts{Payer: payer, Slot: slot, System: ledger.SystemProgramID}.List()

	registered, err := p.Process(ctx, keys, Encode(RegisterName{Name: []byte("example.sol")}))
	require.NoError(t, err)

	resolved, err := p.Process(ctx, keys, Encode(ResolveName{}))
	require.NoError(t, err)
	assert.Equal(t, &codec.NameRecord{Name: "example.sol", Owner: payer, CreatedAt: 1700000000}, resolved.Record)
	assert.NotEqual(t, registered.InvocationID, resolved.InvocationID)
	assert.Contains(t, logs.String(), "invocation_id="+registered.InvocationID.String())

	_, err = p.Process(ctx, keys, Encode(RegisterName{Name: []byte("again.sol")}))
	assert.True(t, errs.IsCode(err, errs.CodeAllocationFailed), "got %v", err)
	assert.Contains(t, logs.String(), "instruction failed")
}
