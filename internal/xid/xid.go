package xid

import (
	"fmt"

	"github.com/google/uuid"
)

// New returns a prefixed unique id, e.g. "cust-9f0c2a...".
func New(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}
