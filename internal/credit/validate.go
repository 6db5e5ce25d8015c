// Package credit implements the append-only credit ledger of spec §4.7:
// deposits, spends, holds with capture/release, admin adjustments, and
// the user refund-request / admin refund-process flow. Every operation
// is idempotency-key aware and routes its atomic invariants through
// store.TransactionalOps rather than read-then-write.
package credit

import (
	"strings"

	"github.com/cedros/core/internal/apperr"
)

// allowedCurrencies is the whitelist of uppercase currency tokens a
// transaction may be denominated in (spec §4.7 "Currency/reference
// validation: both are whitelisted").
var allowedCurrencies = map[string]bool{
	"SOL":  true,
	"USD":  true,
	"USDC": true,
}

// allowedReferenceTypes is the whitelist of reference_type values a
// transaction or hold may be tagged with.
var allowedReferenceTypes = map[string]bool{
	"order":             true,
	"deposit":           true,
	"api_usage":         true,
	"manual_adjustment": true,
	"refund":            true,
}

// secretSubstrings are metadata key fragments that must never appear in
// a credit operation's metadata bag (spec §4.7).
var secretSubstrings = []string{"password", "token", "secret", "private_key", "api_key"}

func validateCurrency(currency string) error {
	if !allowedCurrencies[currency] {
		return apperr.New(apperr.Validation, "currency is not in the allowed list")
	}
	return nil
}

func validateReferenceType(refType string) error {
	if !allowedReferenceTypes[refType] {
		return apperr.New(apperr.Validation, "reference_type is not in the allowed list")
	}
	return nil
}

// ValidateMetadataNoSecrets rejects a metadata bag if any key or value
// contains a secrets-substring, case-insensitively.
func ValidateMetadataNoSecrets(metadata map[string]string) error {
	for k, v := range metadata {
		lowerK, lowerV := strings.ToLower(k), strings.ToLower(v)
		for _, s := range secretSubstrings {
			if strings.Contains(lowerK, s) || strings.Contains(lowerV, s) {
				return apperr.New(apperr.Validation, "metadata must not contain secret-like fields")
			}
		}
	}
	return nil
}

func validateAmount(amount int64) error {
	if amount <= 0 {
		return apperr.New(apperr.Validation, "amount must be positive")
	}
	return nil
}

func validateTTLMinutes(ttl int) error {
	if ttl < 1 || ttl > 60 {
		return apperr.New(apperr.Validation, "ttl_minutes must be between 1 and 60")
	}
	return nil
}
