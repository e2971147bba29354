package domain

// Zero overwrites a byte slice with zeros so key material and decrypted
// secret values do not linger in memory after use.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
