// Package codec provides the name record layout stored in registry slots.
//
// # Record Format
//
// Records are serialized in a binary format with the following structure:
//
//	[NameLen(4)][Name(NameLen)][Owner(32)][CreatedAt(8)]
//
// Fields:
//   - NameLen: 32-bit unsigned length of the name in bytes (little-endian)
//   - Name: UTF-8 name, 1 to MaxNameLength (64) bytes
//   - Owner: 32-byte identity of the account that paid for the slot
//   - CreatedAt: 64-bit signed Unix timestamp in seconds (little-endian)
//
// The total record size is 44 + len(name) bytes, so the largest valid record
// is 108 bytes and always fits in a MaxRecordSize (256) slot. The layout is
// the borsh encoding of a {String, [u8; 32], i64} struct.
//
// Slots are allocated at MaxRecordSize regardless of the name length, and the
// record is written at offset 0. Decode reads the record from the start of the
// buffer and ignores the padding after it.
//
// # Usage
//
//	c := codec.NewRecordCodec()
//
//	encoded, err := c.Encode(&codec.NameRecord{Name: "example.sol", Owner: payer, CreatedAt: now})
//	if err != nil {
//	    return err
//	}
//
//	record, err := c.Decode(encoded)
//	if err != nil {
//	    return err
//	}
//
// # Error Handling
//
// Encode rejects empty, oversized or non-UTF-8 names with errs.CodeInvalidInput.
// Decode reports framing violations with errs.CodeCodec:
//   - buffers too short for the length prefix or the declared record
//   - a zero length prefix, which is what an uninitialized slot contains
//   - a length prefix above MaxNameLength
//   - name bytes that are not valid UTF-8
//
// A successful Decode of b always satisfies Encode(Decode(b)) == b[:Size()].
//
// # Compatibility
//
// MaxNameLength, MaxRecordSize and the field order are part of the wire
// contract. Any change to them must bump FormatVersion.
package codec
