package node

import (
	"fmt"
	"maps"
	"slices"
)

var defaultChainNames = map[uint64]string{
	167012: "Sepolia",
	202555: "Mainnet",
}

// ChainNames resolves L2 chain ids to display names. Unknown ids are not an
// error; the envelope carries whatever id the sender chose.
type ChainNames struct {
	names map[uint64]string
}

// NewChainNames returns the built-in table with overrides applied on top.
func NewChainNames(overrides map[uint64]string) *ChainNames {
	names := maps.Clone(defaultChainNames)
	maps.Copy(names, overrides)
	return &ChainNames{names: names}
}

func (c *ChainNames) Lookup(id uint64) (string, bool) {
	name, ok := c.names[id]
	return name, ok
}

// Describe renders "Name (id)" or "unknown (id)".
func (c *ChainNames) Describe(id uint64) string {
	if name, ok := c.names[id]; ok {
		return fmt.Sprintf("%s (%d)", name, id)
	}
	return fmt.Sprintf("unknown (%d)", id)
}

func (c *ChainNames) IDs() []uint64 {
	return slices.Sorted(maps.Keys(c.names))
}
