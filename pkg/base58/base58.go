package base58

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// MustDecodeFromString decodes a base58 encoded 32-byte address. It is
// intended for address constants and panics on malformed input.
func MustDecodeFromString(str string) [32]byte {
	var out [32]byte
	decoded, err := base58.Decode(str)
	if err != nil {
		panic(fmt.Sprintf("invalid base58 string %s: %s", str, err))
	}
	if len(decoded) != 32 {
		panic(fmt.Sprintf("decoded base58 string %s is %d bytes, expected 32", str, len(decoded)))
	}
	copy(out[:], decoded)
	return out
}

func EncodeFromBytes(data []byte) string {
	return base58.Encode(data)
}
