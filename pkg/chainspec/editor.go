package chainspec

import (
	"fmt"
	"os"
	"strings"

	"github.com/holiman/uint256"
	"github.com/luxfi/log"

	"github.com/luxfi/paractl/pkg/core"
	"github.com/luxfi/paractl/pkg/keys"
)

// DefaultBalance is credited to stashes that have no balance entry: 2^60.
var DefaultBalance = new(uint256.Int).Lsh(uint256.NewInt(1), 60)

// Editor applies authority changes to chainspec files. Every operation reads
// the whole file, edits it in memory and writes it back once.
type Editor struct {
	Prefix         uint16
	DefaultBalance *uint256.Int
	Log            log.Logger
}

// NewEditor creates an editor using the generic address prefix and
// DefaultBalance.
func NewEditor(logger log.Logger) *Editor {
	return &Editor{
		Prefix:         keys.GenericPrefix,
		DefaultBalance: DefaultBalance,
		Log:            logger,
	}
}

// ParseBalance parses a decimal or 0x-prefixed amount.
func ParseBalance(s string) (*uint256.Int, error) {
	if strings.HasPrefix(s, "0x") {
		v, err := uint256.FromHex(s)
		if err != nil {
			return nil, core.ErrInvalidConfigf("invalid balance %q: %v", s, err)
		}
		return v, nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, core.ErrInvalidConfigf("invalid balance %q: %v", s, err)
	}
	return v, nil
}

// ClearAuthorities removes every authority from the chainspec at path.
// Balances are left as they are.
func (e *Editor) ClearAuthorities(path string) error {
	doc, err := Load(path)
	if err != nil {
		return err
	}
	if err := doc.ClearAuthorities(); err != nil {
		return err
	}
	if err := doc.Save(); err != nil {
		return err
	}
	e.Log.Info("Removed all authorities", "spec", path, "schema", doc.Schema().String())
	return nil
}

// AddAuthorities appends an authority for each name, in order. If any derived
// stash is already present the whole call fails with
// core.ErrDuplicateAuthority and the file is not written.
func (e *Editor) AddAuthorities(path string, names []string) error {
	doc, err := Load(path)
	if err != nil {
		return err
	}
	if err := e.add(doc, names); err != nil {
		return err
	}
	return doc.Save()
}

// AddAuthoritiesFromFile replaces the authority set with the names listed in
// seedsPath, one per line.
func (e *Editor) AddAuthoritiesFromFile(path, seedsPath string) error {
	// Names are not trimmed; a stray space or \r becomes part of the seed.
	names, err := ReadSeeds(seedsPath)
	if err != nil {
		return err
	}
	doc, err := Load(path)
	if err != nil {
		return err
	}
	if err := doc.ClearAuthorities(); err != nil {
		return err
	}
	if err := e.add(doc, names); err != nil {
		return err
	}
	if err := doc.Save(); err != nil {
		return err
	}
	e.Log.Info("Replaced authorities", "spec", path, "seeds", seedsPath, "count", len(names))
	return nil
}

// Authorities lists the authorities of the chainspec at path.
func (e *Editor) Authorities(path string) ([]Authority, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	return doc.AuthorityKeys(), nil
}

func (e *Editor) add(doc *Document, names []string) error {
	balance := e.DefaultBalance
	if balance == nil {
		balance = DefaultBalance
	}

	for _, name := range names {
		id, err := keys.DeriveAuthority(name, e.Prefix)
		if err != nil {
			return fmt.Errorf("failed to derive keys for authority %q: %w", name, err)
		}

		stash := id.Stash.Address
		if doc.HasAuthority(stash) {
			e.Log.Error("Authority already exists", "name", name, "stash", stash, "spec", doc.Path())
			return fmt.Errorf("%w: authority %s already exists in the chainspec %s", core.ErrDuplicateAuthority, name, doc.Path())
		}

		session := id.Session.Address
		err = doc.AppendAuthority(stash, stash, SessionKeys{
			Grandpa:            id.Grandpa.Address,
			Babe:               session,
			ImOnline:           session,
			AuthorityDiscovery: session,
			ParaValidator:      session,
			ParaAssignment:     session,
		})
		if err != nil {
			return err
		}

		if !doc.HasBalance(stash) {
			if err := doc.AppendBalance(stash, balance.Dec()); err != nil {
				return err
			}
		}
		e.Log.Info("Added authority", "name", name, "stash", stash)
	}
	return nil
}

// ReadSeeds reads newline separated authority names. Lines are passed
// through as written, blank lines and carriage returns included; only the
// terminator of the last line is dropped since it ends a line rather than
// starting an empty one.
func ReadSeeds(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: seeds file: %v", core.ErrFileRead, err)
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}
