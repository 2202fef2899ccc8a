package encryption

// Encryptor seals and opens byte payloads with an AEAD cipher. Sealed
// output carries the nonce as a prefix; callers treat it as an opaque
// envelope.
type Encryptor interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(ciphertext []byte) ([]byte, error)
}

// Algorithm represents supported encryption algorithms.
type Algorithm string

const (
	// AlgorithmAESGCM is AES-256-GCM (default, widely supported).
	AlgorithmAESGCM Algorithm = "aes-256-gcm"

	// AlgorithmChaCha20 is ChaCha20-Poly1305 (modern, fast on CPUs without AES-NI).
	AlgorithmChaCha20 Algorithm = "chacha20-poly1305"
)

// Option configures the encryptor returned by New.
type Option func(*options)

type options struct {
	algorithm Algorithm
}

// WithAlgorithm selects the encryption algorithm (default: AES-256-GCM).
func WithAlgorithm(alg Algorithm) Option {
	return func(o *options) { o.algorithm = alg }
}

// New creates an Encryptor with the given key and options. The key is
// hashed to the required length for the chosen algorithm.
func New(key string, opts ...Option) (Encryptor, error) {
	o := &options{algorithm: AlgorithmAESGCM}
	for _, opt := range opts {
		opt(o)
	}

	switch o.algorithm {
	case AlgorithmChaCha20:
		return NewChaCha20(key)
	default:
		return NewAESGCM(key)
	}
}
