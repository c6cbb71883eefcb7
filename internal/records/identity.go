package records

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// identityNamespace scopes record ids so they never collide with UUIDv5
// values derived for unrelated purposes.
var identityNamespace = uuid.MustParse("6f1d3c2a-8b4e-5f70-9a1c-2d3e4f5a6b7c")

// Identity derives the record id from the lot number, canonical process
// and timestamp. The lot number is compared case-insensitively and the
// timestamp must already be truncated to the configured granularity.
func Identity(lot, process string, ts time.Time) uuid.UUID {
	var b strings.Builder
	b.WriteString(strings.ToUpper(strings.TrimSpace(lot)))
	b.WriteByte(0x1f)
	b.WriteString(process)
	b.WriteByte(0x1f)
	b.WriteString(ts.UTC().Format(time.RFC3339Nano))
	return uuid.NewSHA1(identityNamespace, []byte(b.String()))
}
