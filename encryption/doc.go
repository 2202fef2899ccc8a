// Package encryption provides authenticated encryption for payload
// envelopes moving through flowkit sources.
//
// Keys are derived from passphrases with SHA-256, producing 256-bit keys
// for either AES-256-GCM (default) or ChaCha20-Poly1305. Sealed envelopes
// are raw bytes with the nonce prefixed, ready for binary transports.
//
// # Usage
//
//	enc, err := encryption.New("my-secret-passphrase")
//	sealed, err := enc.Seal(payload)
//	payload, err := enc.Open(sealed)
package encryption
