package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryNonceLedgerSingleUse(t *testing.T) {
	t.Parallel()

	ledger := NewMemoryNonceLedger(5*time.Minute, 100)
	ctx := context.Background()

	used, err := ledger.IsUsed(ctx, "0xAbC", "nonce-1")
	if err != nil || used {
		t.Fatalf("fresh nonce: used=%v err=%v", used, err)
	}

	first, err := ledger.MarkUsed(ctx, "0xAbC", "nonce-1")
	if err != nil || !first {
		t.Fatalf("first mark: first=%v err=%v", first, err)
	}

	// Keying is case-insensitive on the address.
	used, err = ledger.IsUsed(ctx, "0xabc", "nonce-1")
	if err != nil || !used {
		t.Fatalf("after mark: used=%v err=%v", used, err)
	}

	second, err := ledger.MarkUsed(ctx, "0xabc", "nonce-1")
	if err != nil || second {
		t.Fatalf("second mark must not be first use: first=%v err=%v", second, err)
	}

	// A different nonce for the same address is independent.
	if used, _ := ledger.IsUsed(ctx, "0xabc", "nonce-2"); used {
		t.Fatalf("unrelated nonce must be unused")
	}
}
