package relay

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/luxfi/paractl/pkg/core"
)

// TypeSchema is a caller supplied set of chain specific type aliases, in the
// shape of a polkadot.js "types" object. A nil schema means defaults.
type TypeSchema map[string]json.RawMessage

// LoadTypeSchema reads a type schema from a JSON file.
func LoadTypeSchema(path string) (TypeSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: type schema %s: %v", core.ErrFileRead, path, err)
	}
	return ParseTypeSchema(data)
}

// ParseTypeSchema parses a JSON type schema and checks the aliases paractl
// understands.
func ParseTypeSchema(data []byte) (TypeSchema, error) {
	var schema TypeSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("%w: type schema: %v", core.ErrParse, err)
	}
	if _, err := schema.ParaIDWidth(); err != nil {
		return nil, err
	}
	return schema, nil
}

// ParaIDWidth returns the encoded width in bits of a parachain id.
func (s TypeSchema) ParaIDWidth() (int, error) {
	raw, ok := s["ParaId"]
	if !ok {
		return 32, nil
	}

	var alias string
	if err := json.Unmarshal(raw, &alias); err != nil {
		return 0, fmt.Errorf("%w: ParaId must be a type name", core.ErrSchemaMismatch)
	}
	switch alias {
	case "u32", "U32":
		return 32, nil
	case "u64", "U64":
		return 64, nil
	}
	return 0, fmt.Errorf("%w: unsupported ParaId type %q", core.ErrSchemaMismatch, alias)
}

// CheckParaID fails with core.ErrSchemaMismatch when id does not fit the
// ParaId width of the schema.
func (s TypeSchema) CheckParaID(id ParaID) error {
	bits, err := s.ParaIDWidth()
	if err != nil {
		return err
	}
	return checkParaIDWidth(id, bits)
}

func checkParaIDWidth(id ParaID, bits int) error {
	if bits == 32 && uint64(id) > math.MaxUint32 {
		return fmt.Errorf("%w: para id %s does not fit in u32", core.ErrSchemaMismatch, id)
	}
	return nil
}
