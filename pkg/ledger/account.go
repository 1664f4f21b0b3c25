package ledger

import (
	"encoding/binary"
	"fmt"

	"github.com/ssargent/namereg/pkg/codec"
)

// Account value layout: [Lamports(8)][Owner(32)][DataLen(4)][Data]
const accountHeaderSize = 8 + codec.IdentitySize + 4

var accountKeyPrefix = []byte("acct/")

func accountKey(id codec.Identity) []byte {
	key := make([]byte, 0, len(accountKeyPrefix)+codec.IdentitySize)
	key = append(key, accountKeyPrefix...)
	return append(key, id[:]...)
}

func encodeAccount(a *Account) []byte {
	buf := make([]byte, accountHeaderSize+len(a.Data))
	binary.LittleEndian.PutUint64(buf[0:], a.Lamports)
	copy(buf[8:], a.Owner[:])
	binary.LittleEndian.PutUint32(buf[8+codec.IdentitySize:], uint32(len(a.Data)))
	copy(buf[accountHeaderSize:], a.Data)
	return buf
}

// decodeAccount copies out of data, which pebble only guarantees until the
// value's closer runs.
func decodeAccount(data []byte) (*Account, error) {
	if len(data) < accountHeaderSize {
		return nil, fmt.Errorf("account value too short: %d bytes", len(data))
	}
	a := &Account{Lamports: binary.LittleEndian.Uint64(data[0:8])}
	copy(a.Owner[:], data[8:8+codec.IdentitySize])
	dataLen := binary.LittleEndian.Uint32(data[8+codec.IdentitySize : accountHeaderSize])
	if len(data)-accountHeaderSize != int(dataLen) {
		return nil, fmt.Errorf("account data length mismatch: header %d, actual %d",
			dataLen, len(data)-accountHeaderSize)
	}
	a.Data = make([]byte, dataLen)
	copy(a.Data, data[accountHeaderSize:])
	return a, nil
}
