// Package keys derives the development identities paractl signs with and
// writes into chainspec authority sets.
package keys

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/luxfi/go-bip39"
	subkey "github.com/vedhavyas/go-subkey/v2"
	"github.com/vedhavyas/go-subkey/v2/ed25519"
	"github.com/vedhavyas/go-subkey/v2/sr25519"

	"github.com/luxfi/paractl/pkg/core"
)

// Scheme names a signature scheme.
type Scheme string

const (
	Sr25519 Scheme = "sr25519"
	Ed25519 Scheme = "ed25519"
)

// Account is a key derived from a secret URI.
type Account struct {
	URI       string
	Scheme    Scheme
	PublicKey []byte
	Address   string
}

// Identity is the full set of keys an authority registers with.
type Identity struct {
	Name    string
	Stash   Account
	Session Account
	Grandpa Account
}

// Derive derives an account from a secret URI such as "//Alice" or
// "<mnemonic>//hard/soft".
func Derive(uri string, scheme Scheme, prefix uint16) (Account, error) {
	if err := ValidateURI(uri); err != nil {
		return Account{}, err
	}

	var s subkey.Scheme
	switch scheme {
	case Sr25519:
		s = sr25519.Scheme{}
	case Ed25519:
		s = ed25519.Scheme{}
	default:
		return Account{}, core.ErrInvalidConfigf("unknown key scheme %q", scheme)
	}

	kp, err := subkey.DeriveKeyPair(s, uri)
	if err != nil {
		return Account{}, fmt.Errorf("failed to derive %s key from %q: %w", scheme, uri, err)
	}
	pub := kp.Public()
	addr, err := SS58Encode(pub, prefix)
	if err != nil {
		return Account{}, err
	}
	return Account{URI: uri, Scheme: scheme, PublicKey: pub, Address: addr}, nil
}

// DeriveAuthority derives the stash, session and finality keys for a named
// authority. Only the first character of the name is upper-cased.
func DeriveAuthority(name string, prefix uint16) (Identity, error) {
	seed := "//" + Capitalize(name)

	stash, err := Derive(seed+"//stash", Sr25519, prefix)
	if err != nil {
		return Identity{}, err
	}
	session, err := Derive(seed, Sr25519, prefix)
	if err != nil {
		return Identity{}, err
	}
	grandpa, err := Derive(seed, Ed25519, prefix)
	if err != nil {
		return Identity{}, err
	}

	return Identity{
		Name:    name,
		Stash:   stash,
		Session: session,
		Grandpa: grandpa,
	}, nil
}

// Capitalize upper-cases the first rune of s and leaves the rest untouched.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// ValidateURI checks the phrase part of a secret URI. Development URIs
// ("//Alice") and hex seeds are accepted as is; anything containing words
// must be a valid BIP39 mnemonic.
func ValidateURI(uri string) error {
	phrase := uri
	if i := strings.Index(uri, "/"); i >= 0 {
		phrase = uri[:i]
	}
	phrase = strings.TrimSpace(phrase)

	if phrase == "" || strings.HasPrefix(phrase, "0x") {
		return nil
	}
	if !strings.Contains(phrase, " ") {
		return core.ErrInvalidConfigf("secret %q is neither a mnemonic nor a hex seed", phrase)
	}
	if !bip39.IsMnemonicValid(phrase) {
		return core.ErrInvalidConfig("invalid mnemonic in secret uri")
	}
	return nil
}
