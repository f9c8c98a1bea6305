package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NormalizeAddress validates the 0x-prefixed 40-hex-char format and returns the
// canonical lower-case form used everywhere downstream (cache keys, nonce keys,
// token claims, responses).
func NormalizeAddress(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrAddressRequired
	}
	if !common.IsHexAddress(trimmed) || !strings.HasPrefix(trimmed, "0x") {
		return "", ErrInvalidAddress
	}
	return strings.ToLower(common.HexToAddress(trimmed).Hex()), nil
}

// MaskAddress renders an address for logs and telemetry.
// Addresses are linkable to financial activity, so full values never appear in
// log output.
func MaskAddress(address string) string {
	if len(address) < 10 {
		return "0x…"
	}
	return fmt.Sprintf("%s…%s", address[:6], address[len(address)-4:])
}
