package keys

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"golang.org/x/crypto/blake2b"

	"github.com/luxfi/paractl/pkg/core"
)

// GenericPrefix is the SS58 network prefix used by development relay chains.
const GenericPrefix uint16 = 42

var ss58Preimage = []byte("SS58PRE")

// SS58Encode formats a 32 byte public key as an SS58 address for the given network prefix.
func SS58Encode(pub []byte, prefix uint16) (string, error) {
	if len(pub) != 32 {
		return "", fmt.Errorf("%w: public key must be 32 bytes, got %d", core.ErrParse, len(pub))
	}
	if prefix > 16383 {
		return "", fmt.Errorf("%w: ss58 prefix %d out of range", core.ErrParse, prefix)
	}

	payload := append(prefixBytes(prefix), pub...)
	sum := checksum(payload)
	return base58.Encode(append(payload, sum[:2]...)), nil
}

// SS58Decode parses an SS58 address, verifying its checksum, and returns the
// public key and network prefix.
func SS58Decode(addr string) ([]byte, uint16, error) {
	raw := base58.Decode(addr)
	if len(raw) < 35 {
		return nil, 0, fmt.Errorf("%w: ss58 address %q too short", core.ErrParse, addr)
	}

	var (
		prefix uint16
		offset int
	)
	if raw[0] < 64 {
		prefix, offset = uint16(raw[0]), 1
	} else {
		lower := (raw[0]<<2)&0xfc | raw[1]>>6
		upper := raw[1] & 0x3f
		prefix, offset = uint16(lower)|uint16(upper)<<8, 2
	}

	if len(raw) != offset+32+2 {
		return nil, 0, fmt.Errorf("%w: unexpected ss58 length %d", core.ErrParse, len(raw))
	}
	payload, sum := raw[:offset+32], raw[offset+32:]
	want := checksum(payload)
	if !bytes.Equal(sum, want[:2]) {
		return nil, 0, fmt.Errorf("%w: bad ss58 checksum for %q", core.ErrParse, addr)
	}
	return payload[offset:], prefix, nil
}

func prefixBytes(prefix uint16) []byte {
	if prefix < 64 {
		return []byte{byte(prefix)}
	}
	first := byte((prefix&0xfc)>>2) | 0x40
	second := byte(prefix>>8) | byte(prefix&0x03)<<6
	return []byte{first, second}
}

func checksum(payload []byte) [64]byte {
	return blake2b.Sum512(append(append([]byte{}, ss58Preimage...), payload...))
}

// CodeHash returns the blake2b-256 hash relay chains use to identify validation code.
func CodeHash(code []byte) [32]byte {
	return blake2b.Sum256(code)
}
