package orders

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"
)

const orderNumberPrefix = "RG"

// orderSeq seeds the 4-digit suffix so concurrent generation within the same
// millisecond still yields distinct numbers.
var orderSeq = func() *atomic.Uint32 {
	var seq atomic.Uint32
	seq.Store(rand.Uint32())
	return &seq
}()

// GenerateOrderNumber produces a human-referenceable order number:
// "RG" + millisecond timestamp + 4-digit suffix.
func GenerateOrderNumber(now time.Time) string {
	suffix := orderSeq.Add(1) % 10000
	return fmt.Sprintf("%s%d%04d", orderNumberPrefix, now.UnixMilli(), suffix)
}
