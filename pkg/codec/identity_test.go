package codec

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity_StringParse(t *testing.T) {
	id := testOwner(0x10)

	parsed, err := ParseIdentity(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
	assert.Len(t, id.String(), 64)
}

func TestParseIdentity_Errors(t *testing.T) {
	_, err := ParseIdentity("abcd")
	assert.Error(t, err)

	_, err = ParseIdentity(strings.Repeat("zz", IdentitySize))
	assert.Error(t, err)
}

func TestNewIdentity(t *testing.T) {
	a, err := NewIdentity()
	require.NoError(t, err)
	b, err := NewIdentity()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.False(t, a.IsZero())
	assert.True(t, Identity{}.IsZero())
}

func TestIdentityFromBytes(t *testing.T) {
	id := testOwner(3)

	got, err := IdentityFromBytes(id.Bytes())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = IdentityFromBytes([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestNameRecord_JSON(t *testing.T) {
	record := NameRecord{Name: "example.sol", Owner: testOwner(1), CreatedAt: 1700000000}

	data, err := json.Marshal(record)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"owner":"`+record.Owner.String()+`"`)

	var decoded NameRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, record, decoded)
}
