// Package fingerprint builds stable transaction fingerprints for idempotent
// re-import and keeps an in-memory index for duplicate lookups.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/statement"
)

// separator joins the key parts; it cannot occur in a normalized date or amount
const separator = "|"

// Key returns the canonical fingerprint key: normalized date, amount in cents
// and NormalizeText(description).
func Key(date string, amount int64, description string) string {
	return strings.Join([]string{
		normalizer.NormalizeDate(date),
		strconv.FormatInt(amount, 10),
		normalizer.NormalizeText(description),
	}, separator)
}

// Hash returns the SHA-256 hex digest of Key. Equivalent descriptions that
// differ only in case, accents or spacing hash the same.
func Hash(date string, amount int64, description string) string {
	sum := sha256.Sum256([]byte(Key(date, amount, description)))
	return hex.EncodeToString(sum[:])
}

// SimpleHash is the short non-cryptographic variant (FNV-1a, 64 bit) for
// callers that only need an in-process key.
func SimpleHash(date string, amount int64, description string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(Key(date, amount, description)))
	return fmt.Sprintf("%016x", h.Sum64())
}

// Of hashes a parsed transaction
func Of(tx statement.ParsedTransaction) string {
	return Hash(tx.Date, tx.Amount, tx.Description)
}

// Stamp returns a copy of txs with Hash filled on every record
func Stamp(txs []statement.ParsedTransaction) []statement.ParsedTransaction {
	out := make([]statement.ParsedTransaction, len(txs))
	for i, tx := range txs {
		tx.Hash = Of(tx)
		out[i] = tx
	}
	return out
}
