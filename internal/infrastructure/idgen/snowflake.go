// Package idgen issues document numbers for orders and invoices.
package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// SnowflakeNumberGenerator produces numbers like "INV-1790123456789012480".
// Numbers are unique across instances as long as each instance has its own
// node ID, and sort by creation time.
type SnowflakeNumberGenerator struct {
	node *snowflake.Node
}

// NewSnowflakeNumberGenerator creates a generator for nodeID (0-1023)
func NewSnowflakeNumberGenerator(nodeID int64) (*SnowflakeNumberGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node %d: %w", nodeID, err)
	}
	return &SnowflakeNumberGenerator{node: node}, nil
}

// Next returns a new number with the given prefix
func (g *SnowflakeNumberGenerator) Next(prefix string) string {
	return prefix + "-" + g.node.Generate().String()
}
