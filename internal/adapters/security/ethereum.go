package security

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"

	"github.com/ethosgate/reputation-gate/internal/domain"
)

// PersonalSignRecoverer recovers the signer of an EIP-191 personal_sign
// signature (the scheme wallet providers use for eth_sign prompts).
type PersonalSignRecoverer struct{}

func (PersonalSignRecoverer) Recover(message []byte, signature string) (string, error) {
	sig, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil || len(sig) != crypto.SignatureLength {
		return "", fmt.Errorf("%w: malformed signature", domain.ErrSignatureMismatch)
	}
	// Wallets emit V as 27/28; go-ethereum expects the raw recovery id.
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig = append([]byte(nil), sig...)
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return "", fmt.Errorf("%w: invalid recovery id", domain.ErrSignatureMismatch)
	}

	pub, err := crypto.SigToPub(personalDigest(message), sig)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSignatureMismatch, err)
	}
	return strings.ToLower(crypto.PubkeyToAddress(*pub).Hex()), nil
}

// personalDigest is keccak256("\x19Ethereum Signed Message:\n" + len(msg) + msg).
func personalDigest(message []byte) []byte {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte("\x19Ethereum Signed Message:\n" + strconv.Itoa(len(message))))
	hasher.Write(message)
	return hasher.Sum(nil)
}
