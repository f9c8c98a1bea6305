package domain

import "fmt"

// ChallengeMessage is the exact byte sequence wallets sign for a proof.
// The template is fixed; any deviation breaks recovery for deployed clients.
func ChallengeMessage(address, nonce, issuedAt string) []byte {
	return []byte(fmt.Sprintf("EthosGate Score Check\nAddress: %s\nNonce: %s\nIssued At: %s",
		address, nonce, issuedAt))
}
