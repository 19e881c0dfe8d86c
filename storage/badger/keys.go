package badger

import (
	"fmt"

	"github.com/mskvii/bot2-2/core"
)

// Key prefixes for different data types
const (
	sequencePrefix = "seq"
)

// makeSequenceKey generates the key holding the counter for a record kind.
// Format: prefix:kind
func makeSequenceKey(kind core.Kind) []byte {
	return []byte(fmt.Sprintf("%s:%s", sequencePrefix, kind))
}
