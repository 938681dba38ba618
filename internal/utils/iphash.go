package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
)

// HashIP reduces a remote address to a short stable digest so runs can
// be correlated per origin without storing raw addresses.
func HashIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	sum := sha256.Sum256([]byte(host))
	return hex.EncodeToString(sum[:12])
}
