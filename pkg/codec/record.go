package codec

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/ssargent/namereg/pkg/errs"
)

// Wire format constants. Changing any of them changes the on-slot layout.
const (
	FormatVersion = 1

	MaxNameLength = 64
	MaxRecordSize = 256

	lengthPrefixSize = 4
	timestampSize    = 8

	// fixedSize is everything but the name bytes.
	fixedSize = lengthPrefixSize + IdentitySize + timestampSize
)

// NameRecord binds a name to the identity that paid for its slot.
type NameRecord struct {
	Name      string   `json:"name"`
	Owner     Identity `json:"owner"`
	CreatedAt int64    `json:"created_at"` // Unix seconds
}

// RecordCodec handles serialization and deserialization of name records
type RecordCodec struct{}

// NewRecordCodec creates a new record codec instance
func NewRecordCodec() *RecordCodec {
	return &RecordCodec{}
}

// Encode serializes a record into a newly allocated buffer of exactly r.Size() bytes.
// Format: [NameLen(4)][Name][Owner(32)][CreatedAt(8)]
func (c *RecordCodec) Encode(r *NameRecord) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	size := r.Size()
	if size > MaxRecordSize {
		return nil, errs.Newf(errs.CodeCodec, "encode: record size %d exceeds maximum %d", size, MaxRecordSize)
	}

	buf := make([]byte, size)
	c.put(buf, r)
	return buf, nil
}

// EncodeInto writes the record at the start of dst and returns the number of
// bytes written. Bytes of dst past the record are left as they were.
func (c *RecordCodec) EncodeInto(dst []byte, r *NameRecord) (int, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	size := r.Size()
	if size > MaxRecordSize {
		return 0, errs.Newf(errs.CodeCodec, "encode: record size %d exceeds maximum %d", size, MaxRecordSize)
	}
	if len(dst) < size {
		return 0, errs.Newf(errs.CodeCodec, "encode: buffer of %d bytes cannot hold %d byte record", len(dst), size)
	}

	c.put(dst, r)
	return size, nil
}

func (c *RecordCodec) put(buf []byte, r *NameRecord) {
	nameLen := len(r.Name)
	binary.LittleEndian.PutUint32(buf[0:], uint32(nameLen))
	copy(buf[lengthPrefixSize:], r.Name)
	off := lengthPrefixSize + nameLen
	copy(buf[off:], r.Owner[:])
	binary.LittleEndian.PutUint64(buf[off+IdentitySize:], uint64(r.CreatedAt))
}

// Decode deserializes the record at the start of data. Trailing bytes, such as
// the zero padding of a slot, are ignored.
func (c *RecordCodec) Decode(data []byte) (*NameRecord, error) {
	if len(data) < lengthPrefixSize {
		return nil, errs.Newf(errs.CodeCodec, "decode: data too short for name length: %d bytes", len(data))
	}

	nameLen := binary.LittleEndian.Uint32(data[0:lengthPrefixSize])
	if nameLen == 0 {
		return nil, errs.New(errs.CodeCodec, "decode: empty name")
	}
	if nameLen > MaxNameLength {
		return nil, errs.Newf(errs.CodeCodec, "decode: name length %d exceeds maximum %d", nameLen, MaxNameLength)
	}

	size := fixedSize + int(nameLen)
	if len(data) < size {
		return nil, errs.Newf(errs.CodeCodec, "decode: data too short for record: %d < %d", len(data), size)
	}

	nameBytes := data[lengthPrefixSize : lengthPrefixSize+nameLen]
	if !utf8.Valid(nameBytes) {
		return nil, errs.New(errs.CodeCodec, "decode: name is not valid UTF-8")
	}

	r := &NameRecord{Name: string(nameBytes)}
	off := lengthPrefixSize + int(nameLen)
	copy(r.Owner[:], data[off:off+IdentitySize])
	r.CreatedAt = int64(binary.LittleEndian.Uint64(data[off+IdentitySize : size]))

	return r, nil
}

// Validate checks the name constraints: 1..=MaxNameLength bytes of UTF-8.
func (r *NameRecord) Validate() error {
	return ValidateName([]byte(r.Name))
}

// Size returns the total size of the record when encoded
func (r *NameRecord) Size() int {
	return fixedSize + len(r.Name)
}

func (r *NameRecord) String() string {
	return fmt.Sprintf("%s (owner %s, created %d)", r.Name, r.Owner, r.CreatedAt)
}

// ValidateName reports whether name may be stored in a record.
func ValidateName(name []byte) error {
	if len(name) == 0 {
		return errs.InvalidInput("name is empty")
	}
	if len(name) > MaxNameLength {
		return errs.InvalidInput("name is %d bytes, maximum is %d", len(name), MaxNameLength)
	}
	if !utf8.Valid(name) {
		return errs.InvalidInput("name is not valid UTF-8")
	}
	return nil
}
