// Package registrar registers parachains with a relay chain and verifies that
// they are live.
package registrar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/luxfi/paractl/pkg/core"
	"github.com/luxfi/paractl/pkg/relay"
)

// Registration is a parachain waiting to be scheduled for initialisation.
type Registration struct {
	ID             relay.ParaID
	GenesisHead    []byte
	ValidationCode []byte
	Parachain      bool
}

// LoadRegistration reads the genesis head and validation code of a parachain.
// Files holding 0x-prefixed hex are decoded; anything else is taken as raw bytes.
// The registration is always scheduled as a parachain.
func LoadRegistration(id relay.ParaID, headerPath, wasmPath string) (*Registration, error) {
	head, err := readBlob(headerPath, "header")
	if err != nil {
		return nil, err
	}
	code, err := readBlob(wasmPath, "wasm")
	if err != nil {
		return nil, err
	}
	return &Registration{
		ID:             id,
		GenesisHead:    head,
		ValidationCode: code,
		Parachain:      true,
	}, nil
}

func readBlob(path, what string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read %s from file: %v", core.ErrFileRead, what, err)
	}

	trimmed := bytes.TrimSpace(data)
	if !bytes.HasPrefix(trimmed, []byte("0x")) {
		return data, nil
	}
	decoded, err := hexutil.Decode(string(trimmed))
	if err != nil {
		return nil, fmt.Errorf("%w: %s file %s is not valid hex: %v", core.ErrParse, what, path, err)
	}
	return decoded, nil
}

// BatchEntry describes one parachain in a batch configuration file.
type BatchEntry struct {
	GenesisPath string `json:"genesis_path"`
	WasmPath    string `json:"wasm_path"`
	ID          string `json:"id"`
}

// BatchConfig is the batch registration document.
type BatchConfig struct {
	Parachains []BatchEntry `json:"parachains"`
}

// LoadBatchConfig reads and validates a batch configuration file.
func LoadBatchConfig(path string) (*BatchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read config: %v", core.ErrFileRead, err)
	}

	var cfg BatchConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: config %s: %v", core.ErrParse, path, err)
	}
	for i, entry := range cfg.Parachains {
		id, err := relay.ParseParaID(entry.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: config entry %d has invalid id %q", core.ErrParse, i, entry.ID)
		}
		if err := relay.TypeSchema(nil).CheckParaID(id); err != nil {
			return nil, fmt.Errorf("config entry %d: %w", i, err)
		}
	}
	return &cfg, nil
}

// Load reads the files referenced by the entry.
func (e BatchEntry) Load() (*Registration, error) {
	id, err := relay.ParseParaID(e.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", core.ErrParse, e.ID)
	}
	if err := relay.TypeSchema(nil).CheckParaID(id); err != nil {
		return nil, err
	}
	return LoadRegistration(id, e.GenesisPath, e.WasmPath)
}
