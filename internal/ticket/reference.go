package ticket

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// ReferencePrefix starts every booking reference.
const ReferencePrefix = "BK-"

const referenceDigits = 8

var referenceSpace = big.NewInt(100_000_000)

// NewReference returns "BK-" followed by eight random decimal digits.
// Uniqueness is enforced by the store; callers retry on a collision.
func NewReference() (string, error) {
	n, err := rand.Int(rand.Reader, referenceSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%0*d", ReferencePrefix, referenceDigits, n.Int64()), nil
}

// Filename is the download name of a ticket PDF.  Characters other than
// letters, digits, '-' and '_' are replaced so the name is safe in a
// Content-Disposition header.
func Filename(reference string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, reference)
	if safe == "" {
		safe = "ticket"
	}
	return "ticket-" + safe + ".pdf"
}
