package secret

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	digitChars  = "0123456789"
	SymbolChars = "!@#$%^&*()"

	// MinPasswordLength is the shortest password Password will produce.
	MinPasswordLength = 8
	// DefaultPasswordLength matches the length of passwords handed out to new accounts.
	DefaultPasswordLength = 10
)

var allChars = upperChars + lowerChars + digitChars + SymbolChars

// Intn returns a uniform random int in [0, n) read from crypto/rand.
func Intn(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("secret: invalid bound %d", n)
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("secret: read random: %w", err)
	}
	return int(v.Int64()), nil
}

// Password generates a random password with at least one upper-case letter,
// lower-case letter, digit and symbol. length is raised to MinPasswordLength.
// The guaranteed characters are shuffled so their positions are not predictable.
func Password(length int) (string, error) {
	if length < MinPasswordLength {
		length = MinPasswordLength
	}
	buf := make([]byte, 0, length)
	for _, class := range []string{upperChars, lowerChars, digitChars, SymbolChars} {
		c, err := pick(class)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}
	for len(buf) < length {
		c, err := pick(allChars)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}
	if err := shuffle(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// Digits generates an n-digit zero-padded numeric code.
func Digits(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("secret: invalid digit count %d", n)
	}
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		c, err := pick(digitChars)
		if err != nil {
			return "", err
		}
		b.WriteByte(c)
	}
	return b.String(), nil
}

// Satisfies reports whether pw meets the policy Password generates for.
func Satisfies(pw string) bool {
	if len(pw) < MinPasswordLength {
		return false
	}
	return strings.ContainsAny(pw, upperChars) &&
		strings.ContainsAny(pw, lowerChars) &&
		strings.ContainsAny(pw, digitChars) &&
		strings.ContainsAny(pw, SymbolChars)
}

func pick(set string) (byte, error) {
	i, err := Intn(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

// shuffle is a Fisher-Yates shuffle driven by crypto/rand.
func shuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		j, err := Intn(i + 1)
		if err != nil {
			return err
		}
		b[i], b[j] = b[j], b[i]
	}
	return nil
}
