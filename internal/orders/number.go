package orders

import (
	"fmt"
	"math/rand"
	"time"
)

// generateOrderNumber builds a human-readable unique token: the last six
// digits of the unix timestamp plus four random digits. Collisions are
// practically unreachable; the unique index catches the rest.
func generateOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%06d-%04d", now.Unix()%1_000_000, rand.Intn(10_000))
}
