package dmp

import (
	"fmt"
	"strconv"
	"strings"
)

// user ids are 63-bit unsigned values on the wire
const userIDBits = 63

// EncodeUserID converts a caller-facing user id into the fixed-width
// 16-character lowercase hex form the DMP expects. The transform is the
// identity in hex for ids in [0, 2^63); negative ids are rejected instead of
// being wrapped.
func EncodeUserID(id int64) (string, error) {
	if id < 0 {
		return "", fmt.Errorf("user id %d out of range [0, 2^63)", id)
	}
	return fmt.Sprintf("%016x", uint64(id)%(1<<userIDBits)), nil
}

// DecodeUserID is the inverse of EncodeUserID.
func DecodeUserID(encoded string) (int64, error) {
	if len(encoded) != 16 {
		return 0, fmt.Errorf("encoded user id %q must be 16 characters", encoded)
	}
	if encoded != strings.ToLower(encoded) {
		return 0, fmt.Errorf("encoded user id %q must be lowercase", encoded)
	}
	value, err := strconv.ParseUint(encoded, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing encoded user id %q: %w", encoded, err)
	}
	if value >= 1<<userIDBits {
		return 0, fmt.Errorf("encoded user id %q exceeds 63 bits", encoded)
	}
	return int64(value), nil
}
