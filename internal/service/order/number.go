package order

import (
	"crypto/rand"
	"encoding/base32"
	"io"
	"time"
)

const orderNumberPrefix = "ORD-"

var suffixEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// newOrderNumber returns ORD-YYYYMMDDHHMMSS-XXXXXX. Uniqueness is enforced by
// the database; callers retry on collision.
func newOrderNumber(now time.Time, random io.Reader) (string, error) {
	buf := make([]byte, 4)
	if _, err := io.ReadFull(random, buf); err != nil {
		return "", err
	}
	return orderNumberPrefix + now.UTC().Format("20060102150405") + "-" + suffixEncoding.EncodeToString(buf)[:6], nil
}

func defaultRandom() io.Reader {
	return rand.Reader
}
