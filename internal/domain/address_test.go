package domain

import (
	"errors"
	"testing"
)

func TestNormalizeAddress(t *testing.T) {
	t.Parallel()

	got, err := NormalizeAddress("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B")
	if err != nil {
		t.Fatalf("normalize valid address: %v", err)
	}
	if got != "0xab5801a7d398351b8be11c439e05c5b3259aec9b" {
		t.Fatalf("expected lower-cased address, got %s", got)
	}

	if _, err := NormalizeAddress(""); !errors.Is(err, ErrAddressRequired) {
		t.Fatalf("empty address: got %v, want ErrAddressRequired", err)
	}
	for _, raw := range []string{
		"ab5801a7d398351b8be11c439e05c5b3259aec9b", // missing 0x
		"0x1234",
		"0xZZ5801a7d398351b8be11c439e05c5b3259aec9b",
	} {
		if _, err := NormalizeAddress(raw); !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("NormalizeAddress(%q): got %v, want ErrInvalidAddress", raw, err)
		}
	}
}

func TestMaskAddress(t *testing.T) {
	t.Parallel()

	masked := MaskAddress("0xab5801a7d398351b8be11c439e05c5b3259aec9b")
	if masked != "0xab58…ec9b" {
		t.Fatalf("unexpected mask: %s", masked)
	}
	if MaskAddress("0x12") == "0x12" {
		t.Fatalf("short input must not be echoed")
	}
}
