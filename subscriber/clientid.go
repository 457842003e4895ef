package subscriber

import (
	"math/big"

	"github.com/google/uuid"
)

const (
	clientIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	clientIDLength   = 22
)

// NewClientID returns a random MQTT client identifier: a version 4
// UUID encoded as a base62 integer, zero padded to 22 characters. The
// broker tracks sessions by client ID, so every connection cycle uses
// a distinct one.
func NewClientID() string {
	id := uuid.New()

	n := new(big.Int).SetBytes(id[:])
	base := big.NewInt(int64(len(clientIDAlphabet)))
	rem := new(big.Int)

	buf := make([]byte, 0, clientIDLength)
	for n.Sign() > 0 {
		n.DivMod(n, base, rem)
		buf = append(buf, clientIDAlphabet[rem.Int64()])
	}
	for len(buf) < clientIDLength {
		buf = append(buf, clientIDAlphabet[0])
	}

	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}
