package ledger

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"dhruva/pkg/domain"
	dErrors "dhruva/pkg/domain-errors"
)

// CredentialHash derives the ledger key for an approval request when the
// organization does not supply one: keccak256("requester|organization|documentHash")
// over canonical addresses.
func CredentialHash(requester, organization, documentHash string) string {
	preimage := strings.Join([]string{
		domain.CanonicalAddress(requester),
		domain.CanonicalAddress(organization),
		strings.TrimSpace(documentHash),
	}, "|")
	return crypto.Keccak256Hash([]byte(preimage)).Hex()
}

// NormalizeHash validates a 0x-prefixed 32-byte hex hash and returns it
// lowercased.
func NormalizeHash(raw string) (string, error) {
	h := strings.ToLower(strings.TrimSpace(raw))
	b, err := hexutil.Decode(h)
	if err != nil || len(b) != common.HashLength {
		return "", dErrors.NewWithReason(dErrors.CodeValidation, ReasonInvalidHash,
			"credential hash must be a 0x-prefixed 32-byte hex string", err)
	}
	return h, nil
}

// IsAddress reports whether s is a 20-byte hex address.
func IsAddress(s string) bool {
	return common.IsHexAddress(strings.TrimSpace(s))
}
