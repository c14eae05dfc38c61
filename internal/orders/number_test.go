package orders

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateOrderNumberFormat(t *testing.T) {
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	number := GenerateOrderNumber(now)

	if !strings.HasPrefix(number, "RG") {
		t.Fatalf("expected RG prefix, got %s", number)
	}
	// "RG" + 13-digit millisecond timestamp + 4-digit suffix.
	if len(number) != 2+13+4 {
		t.Fatalf("unexpected length %d for %s", len(number), number)
	}
}

func TestGenerateOrderNumberDistinctWithinMillisecond(t *testing.T) {
	now := time.Now().UTC()
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		number := GenerateOrderNumber(now)
		if _, ok := seen[number]; ok {
			t.Fatalf("duplicate order number %s after %d iterations", number, i)
		}
		seen[number] = struct{}{}
	}
}
