package cmd

import (
	"strconv"

	"github.com/luxfi/paractl/pkg/core"
	"github.com/luxfi/paractl/pkg/relay"
)

// optionalArg returns args[i], or "" when it was not given.
func optionalArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// requireParaID parses a para id positional that is optional in the usage
// line but needed by the command. The id must fit the schema's ParaId type.
func requireParaID(args []string, i int, schema relay.TypeSchema) (relay.ParaID, error) {
	s := optionalArg(args, i)
	if s == "" {
		return 0, core.ErrInvalidConfig("para_id is required")
	}
	id, err := relay.ParseParaID(s)
	if err != nil {
		return 0, core.ErrInvalidConfigf("invalid para_id %q", s)
	}
	if err := schema.CheckParaID(id); err != nil {
		return 0, err
	}
	return id, nil
}

func parseHeight(s string, def uint64) (uint64, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, core.ErrInvalidConfigf("invalid height_limit %q", s)
	}
	return n, nil
}
