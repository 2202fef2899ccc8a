package source

import (
	"encoding/json"
	"fmt"

	"github.com/kbukum/flowkit/encryption"
)

// Codec translates between wire bytes and payloads. Transport sources
// use a codec to decode records fetched from brokers or HTTP bodies.
type Codec interface {
	Encode(p Payload) ([]byte, error)
	Decode(data []byte) (Payload, error)
}

// JSONCodec marshals payloads as JSON. Decoded payloads use the generic
// JSON mapping (map[string]any, []any, float64, string, bool, nil).
type JSONCodec struct{}

func (JSONCodec) Encode(p Payload) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("source: encode json: %w", err)
	}
	return data, nil
}

func (JSONCodec) Decode(data []byte) (Payload, error) {
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("source: decode json: %w", err)
	}
	return out, nil
}

// BytesCodec passes raw bytes through untouched. Encode accepts []byte
// or string payloads only.
type BytesCodec struct{}

func (BytesCodec) Encode(p Payload) ([]byte, error) {
	switch v := p.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("source: bytes codec cannot encode %T", p)
	}
}

func (BytesCodec) Decode(data []byte) (Payload, error) {
	return data, nil
}

// EncryptedCodec wraps another codec and seals its output with an
// Encryptor. Inner defaults to JSONCodec when nil.
type EncryptedCodec struct {
	Encryptor encryption.Encryptor
	Inner     Codec
}

func (c EncryptedCodec) inner() Codec {
	if c.Inner != nil {
		return c.Inner
	}
	return JSONCodec{}
}

func (c EncryptedCodec) Encode(p Payload) ([]byte, error) {
	plain, err := c.inner().Encode(p)
	if err != nil {
		return nil, err
	}
	sealed, err := c.Encryptor.Seal(plain)
	if err != nil {
		return nil, fmt.Errorf("source: seal payload: %w", err)
	}
	return sealed, nil
}

func (c EncryptedCodec) Decode(data []byte) (Payload, error) {
	plain, err := c.Encryptor.Open(data)
	if err != nil {
		return nil, fmt.Errorf("source: open payload: %w", err)
	}
	return c.inner().Decode(plain)
}
