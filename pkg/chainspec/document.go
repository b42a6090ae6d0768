// Package chainspec edits the authority set of a chain specification file.
//
// Documents are kept as raw JSON and edited in place so that fields paractl
// does not understand survive a rewrite unchanged, including key order and
// large number literals.
package chainspec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/renameio/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/luxfi/paractl/pkg/core"
)

// Schema identifies where a chainspec keeps its pallet configuration.
type Schema int

const (
	// SchemaCurrent nests pallets under genesis.runtime.runtime_genesis_config.
	SchemaCurrent Schema = iota
	// SchemaLegacy keeps pallets directly under genesis.runtime.
	SchemaLegacy
)

func (s Schema) String() string {
	switch s {
	case SchemaCurrent:
		return "current"
	case SchemaLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

var (
	schemaRoots = []struct {
		schema Schema
		path   string
	}{
		{SchemaCurrent, "genesis.runtime.runtime_genesis_config"},
		{SchemaLegacy, "genesis.runtime"},
	}
	sessionPallets  = []string{"palletSession", "session"}
	balancesPallets = []string{"palletBalances", "balances"}
)

// Authority is one entry of the session keys collection.
type Authority struct {
	Stash     string
	Validator string
	Keys      map[string]string
}

// Balance is one entry of the balances collection. Amount is the literal
// as written in the document.
type Balance struct {
	Address string
	Amount  string
}

// Document is a loaded chainspec with its schema resolved.
type Document struct {
	path string
	perm os.FileMode
	raw  []byte

	schema       Schema
	keysPath     string
	balancesPath string
}

// Load reads the chainspec at path and resolves its schema.
func Load(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: chainspec: %v", core.ErrFileRead, err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: chainspec: %v", core.ErrFileRead, err)
	}
	doc, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.path = path
	doc.perm = info.Mode().Perm()
	return doc, nil
}

// Parse resolves the schema of an in-memory chainspec.
func Parse(raw []byte) (*Document, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: chainspec is not valid JSON", core.ErrParse)
	}

	for _, root := range schemaRoots {
		for _, pallet := range sessionPallets {
			keysPath := root.path + "." + pallet + ".keys"
			if !gjson.GetBytes(raw, keysPath).IsArray() {
				continue
			}

			doc := &Document{
				perm:     0o644,
				raw:      raw,
				schema:   root.schema,
				keysPath: keysPath,
			}
			for _, b := range balancesPallets {
				p := root.path + "." + b + ".balances"
				if gjson.GetBytes(raw, p).IsArray() {
					doc.balancesPath = p
					break
				}
			}
			return doc, nil
		}
	}
	return nil, fmt.Errorf("%w: no session keys under genesis.runtime", core.ErrSchemaMismatch)
}

// Schema reports the layout the document was loaded with.
func (d *Document) Schema() Schema { return d.schema }

// Path is the file the document was loaded from.
func (d *Document) Path() string { return d.path }

// AuthorityKeys returns the session keys collection in document order.
func (d *Document) AuthorityKeys() []Authority {
	var out []Authority
	gjson.GetBytes(d.raw, d.keysPath).ForEach(func(_, rec gjson.Result) bool {
		a := Authority{
			Stash:     rec.Get("0").String(),
			Validator: rec.Get("1").String(),
			Keys:      map[string]string{},
		}
		rec.Get("2").ForEach(func(role, addr gjson.Result) bool {
			a.Keys[role.String()] = addr.String()
			return true
		})
		out = append(out, a)
		return true
	})
	return out
}

// AccountBalances returns the balances collection in document order. It is
// empty when the document has no balances pallet.
func (d *Document) AccountBalances() []Balance {
	if d.balancesPath == "" {
		return nil
	}
	var out []Balance
	gjson.GetBytes(d.raw, d.balancesPath).ForEach(func(_, rec gjson.Result) bool {
		out = append(out, Balance{
			Address: rec.Get("0").String(),
			Amount:  rec.Get("1").Raw,
		})
		return true
	})
	return out
}

// HasAuthority reports whether a record with the given stash exists.
func (d *Document) HasAuthority(stash string) bool {
	for _, a := range d.AuthorityKeys() {
		if a.Stash == stash {
			return true
		}
	}
	return false
}

// HasBalance reports whether address has a balance entry.
func (d *Document) HasBalance(address string) bool {
	for _, b := range d.AccountBalances() {
		if b.Address == address {
			return true
		}
	}
	return false
}

// ClearAuthorities empties the session keys collection.
func (d *Document) ClearAuthorities() error {
	raw, err := sjson.SetRawBytes(d.raw, d.keysPath, []byte("[]"))
	if err != nil {
		return fmt.Errorf("failed to clear authorities: %w", err)
	}
	d.raw = raw
	return nil
}

// SessionKeys is the capability map written for new authorities.
type SessionKeys struct {
	Grandpa            string `json:"grandpa"`
	Babe               string `json:"babe"`
	ImOnline           string `json:"im_online"`
	AuthorityDiscovery string `json:"authority_discovery"`
	ParaValidator      string `json:"para_validator"`
	ParaAssignment     string `json:"para_assignment"`
}

// AppendAuthority appends a [stash, validator, keys] record to the session
// keys collection.
func (d *Document) AppendAuthority(stash, validator string, keys SessionKeys) error {
	data, err := json.Marshal([]interface{}{stash, validator, keys})
	if err != nil {
		return err
	}
	raw, err := sjson.SetRawBytes(d.raw, d.keysPath+".-1", data)
	if err != nil {
		return fmt.Errorf("failed to append authority: %w", err)
	}
	d.raw = raw
	return nil
}

// AppendBalance appends an [address, amount] entry. amount is written as a
// bare number literal.
func (d *Document) AppendBalance(address, amount string) error {
	if d.balancesPath == "" {
		return fmt.Errorf("%w: no balances under genesis.runtime", core.ErrSchemaMismatch)
	}
	addr, err := json.Marshal(address)
	if err != nil {
		return err
	}
	entry := make([]byte, 0, len(addr)+len(amount)+3)
	entry = append(entry, '[')
	entry = append(entry, addr...)
	entry = append(entry, ',')
	entry = append(entry, amount...)
	entry = append(entry, ']')

	raw, err := sjson.SetRawBytes(d.raw, d.balancesPath+".-1", entry)
	if err != nil {
		return fmt.Errorf("failed to append balance: %w", err)
	}
	d.raw = raw
	return nil
}

// Bytes returns the document re-indented with two spaces.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(d.raw), "", "  "); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrParse, err)
	}
	return buf.Bytes(), nil
}

// Save atomically replaces the file the document was loaded from.
func (d *Document) Save() error {
	if d.path == "" {
		return fmt.Errorf("chainspec was not loaded from a file")
	}
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(d.path, data, d.perm); err != nil {
		return fmt.Errorf("failed to write chainspec %s: %w", d.path, err)
	}
	return nil
}
