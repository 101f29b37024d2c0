package folderkit

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20"
)

// Transform maps one chunk of bytes to the bytes written in its place.
// Transfers call it once more with an empty chunk when the source is
// exhausted.
type Transform func(chunk []byte) []byte

// Identity is the pass-through Transform.
func Identity(chunk []byte) []byte { return chunk }

// CipherAlgorithm names a stream cipher usable as a Transform
type CipherAlgorithm string

const (
	// CipherAESCTR is AES-256 in counter mode with a 16-byte IV
	CipherAESCTR CipherAlgorithm = "aes-ctr"
	// CipherChaCha20 is XChaCha20 with a 24-byte nonce
	CipherChaCha20 CipherAlgorithm = "chacha20"
)

// KeySize is the key length for every supported algorithm
const KeySize = 32

// NonceSize returns the nonce length for algorithm.
func NonceSize(algorithm CipherAlgorithm) (int, error) {
	switch algorithm {
	case CipherAESCTR:
		return aes.BlockSize, nil
	case CipherChaCha20:
		return chacha20.NonceSizeX, nil
	default:
		return 0, fmt.Errorf("%w: unsupported cipher algorithm: %s", ErrNotSupported, algorithm)
	}
}

func checkKey(algorithm CipherAlgorithm, key []byte) error {
	if _, err := NonceSize(algorithm); err != nil {
		return err
	}
	if len(key) != KeySize {
		return fmt.Errorf("%w: key must be %d bytes, got %d", ErrInvalidArgument, KeySize, len(key))
	}
	return nil
}

func newStream(algorithm CipherAlgorithm, key, nonce []byte) (cipher.Stream, error) {
	switch algorithm {
	case CipherAESCTR:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewCTR(block, nonce), nil
	case CipherChaCha20:
		return chacha20.NewUnauthenticatedCipher(key, nonce)
	default:
		return nil, fmt.Errorf("%w: unsupported cipher algorithm: %s", ErrNotSupported, algorithm)
	}
}

// DeriveKey stretches a passphrase into a KeySize key with Argon2id.
func DeriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, 1, 64*1024, 4, KeySize)
}

// ============================================================================
// Raw keystream
// ============================================================================

// StreamCipher XORs chunks with a keystream, so the same value encrypts
// and decrypts. The result does not depend on how the input is chunked.
// The finalization call rewinds the keystream to its start.
type StreamCipher struct {
	algorithm CipherAlgorithm
	key       []byte
	nonce     []byte
	stream    cipher.Stream
}

// NewStreamCipher creates a keystream transform for a fixed nonce.
func NewStreamCipher(algorithm CipherAlgorithm, key, nonce []byte) (*StreamCipher, error) {
	if err := checkKey(algorithm, key); err != nil {
		return nil, err
	}
	size, _ := NonceSize(algorithm)
	if len(nonce) != size {
		return nil, fmt.Errorf("%w: nonce must be %d bytes, got %d", ErrInvalidArgument, size, len(nonce))
	}
	c := &StreamCipher{
		algorithm: algorithm,
		key:       append([]byte(nil), key...),
		nonce:     append([]byte(nil), nonce...),
	}
	if err := c.rewind(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *StreamCipher) rewind() error {
	stream, err := newStream(c.algorithm, c.key, c.nonce)
	if err != nil {
		return err
	}
	c.stream = stream
	return nil
}

// Transform implements Transform.
func (c *StreamCipher) Transform(chunk []byte) []byte {
	if len(chunk) == 0 {
		_ = c.rewind()
		return nil
	}
	out := make([]byte, len(chunk))
	c.stream.XORKeyStream(out, chunk)
	return out
}

// ============================================================================
// Self-describing streams
// ============================================================================

// Sealer encrypts a stream under a fresh random nonce that it writes in
// front of the ciphertext. Finalization forgets the nonce, so the next
// stream gets a new one.
type Sealer struct {
	algorithm CipherAlgorithm
	key       []byte
	stream    cipher.Stream
}

// NewSealer creates an encrypting Transform.
func NewSealer(algorithm CipherAlgorithm, key []byte) (*Sealer, error) {
	if err := checkKey(algorithm, key); err != nil {
		return nil, err
	}
	return &Sealer{algorithm: algorithm, key: append([]byte(nil), key...)}, nil
}

// Transform implements Transform.
func (s *Sealer) Transform(chunk []byte) []byte {
	if len(chunk) == 0 {
		s.stream = nil
		return nil
	}
	var out []byte
	if s.stream == nil {
		size, _ := NonceSize(s.algorithm)
		nonce := make([]byte, size)
		_, _ = rand.Read(nonce)
		s.stream, _ = newStream(s.algorithm, s.key, nonce)
		out = make([]byte, 0, size+len(chunk))
		out = append(out, nonce...)
	}
	start := len(out)
	out = append(out, make([]byte, len(chunk))...)
	s.stream.XORKeyStream(out[start:], chunk)
	return out
}

// Opener decrypts what a Sealer with the same algorithm and key produced.
// Input shorter than the nonce decrypts to nothing.
type Opener struct {
	algorithm CipherAlgorithm
	key       []byte
	header    []byte
	stream    cipher.Stream
}

// NewOpener creates a decrypting Transform.
func NewOpener(algorithm CipherAlgorithm, key []byte) (*Opener, error) {
	if err := checkKey(algorithm, key); err != nil {
		return nil, err
	}
	return &Opener{algorithm: algorithm, key: append([]byte(nil), key...)}, nil
}

// Transform implements Transform.
func (o *Opener) Transform(chunk []byte) []byte {
	if len(chunk) == 0 {
		o.stream = nil
		o.header = o.header[:0]
		return nil
	}
	if o.stream == nil {
		size, _ := NonceSize(o.algorithm)
		need := size - len(o.header)
		if len(chunk) < need {
			o.header = append(o.header, chunk...)
			return nil
		}
		o.header = append(o.header, chunk[:need]...)
		chunk = chunk[need:]
		o.stream, _ = newStream(o.algorithm, o.key, o.header)
	}
	out := make([]byte, len(chunk))
	o.stream.XORKeyStream(out, chunk)
	return out
}

// Sealer returns an encrypting Transform for the configured cipher.
func (ws *Workspace) Sealer() (*Sealer, error) {
	if ws.key == nil {
		return nil, fmt.Errorf("%w: no cipher key configured", ErrInvalidArgument)
	}
	return NewSealer(ws.cipher, ws.key)
}

// Opener returns a decrypting Transform for the configured cipher.
func (ws *Workspace) Opener() (*Opener, error) {
	if ws.key == nil {
		return nil, fmt.Errorf("%w: no cipher key configured", ErrInvalidArgument)
	}
	return NewOpener(ws.cipher, ws.key)
}
