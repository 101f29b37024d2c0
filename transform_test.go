package folderkit

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = bytes.Repeat([]byte{0x42}, KeySize)

// through streams data through transform with the given chunk size.
func through(t *testing.T, ws *Workspace, data []byte, chunk int, transform Transform) []byte {
	t.Helper()
	writeHostFile(t, ws, "/docs/in", data)
	sink := &bufferSink{name: "out"}
	require.NoError(t, Transfer(ws.newFile("/docs/in"), sink, chunk, transform, nil))
	return append([]byte(nil), sink.buf.Bytes()...)
}

func TestIdentity(t *testing.T) {
	in := []byte("same")
	assert.Equal(t, in, Identity(in))
}

func TestStreamCipher(t *testing.T) {
	plain := bytes.Repeat([]byte("stream cipher payload "), 20)

	for _, alg := range []CipherAlgorithm{CipherAESCTR, CipherChaCha20} {
		t.Run(string(alg), func(t *testing.T) {
			ws := newTestWorkspace(t)
			size, err := NonceSize(alg)
			require.NoError(t, err)
			nonce := bytes.Repeat([]byte{1}, size)

			c, err := NewStreamCipher(alg, testKey, nonce)
			require.NoError(t, err)

			reference := through(t, ws, plain, len(plain), c.Transform)
			assert.NotEqual(t, plain, reference)
			assert.Len(t, reference, len(plain))

			for _, chunk := range []int{1, 3, 16, 17, 1000} {
				// The same value is reused: finalization rewinds it.
				got := through(t, ws, plain, chunk, c.Transform)
				assert.Equal(t, reference, got, "chunk %d", chunk)

				back := through(t, ws, got, chunk+2, c.Transform)
				assert.Equal(t, plain, back, "chunk %d", chunk)
			}
		})
	}
}

func TestSealerOpener(t *testing.T) {
	plain := bytes.Repeat([]byte("sealed payload "), 30)

	for _, alg := range []CipherAlgorithm{CipherAESCTR, CipherChaCha20} {
		for _, chunks := range [][2]int{{1, 1}, {3, 5}, {1024, 1}, {7, 1024}, {16, 24}} {
			t.Run(fmt.Sprintf("%s/%d-%d", alg, chunks[0], chunks[1]), func(t *testing.T) {
				ws := newTestWorkspace(t)
				sealer, err := NewSealer(alg, testKey)
				require.NoError(t, err)
				opener, err := NewOpener(alg, testKey)
				require.NoError(t, err)

				sealed := through(t, ws, plain, chunks[0], sealer.Transform)
				size, _ := NonceSize(alg)
				assert.Len(t, sealed, size+len(plain))
				assert.NotContains(t, string(sealed), "payload")

				opened := through(t, ws, sealed, chunks[1], opener.Transform)
				assert.Equal(t, plain, opened)
			})
		}
	}
}

func TestSealerUsesFreshNonce(t *testing.T) {
	ws := newTestWorkspace(t)
	sealer, err := NewSealer(CipherChaCha20, testKey)
	require.NoError(t, err)
	opener, err := NewOpener(CipherChaCha20, testKey)
	require.NoError(t, err)

	first := through(t, ws, []byte("twice"), 2, sealer.Transform)
	second := through(t, ws, []byte("twice"), 2, sealer.Transform)
	assert.NotEqual(t, first, second)

	assert.Equal(t, "twice", string(through(t, ws, first, 3, opener.Transform)))
	assert.Equal(t, "twice", string(through(t, ws, second, 3, opener.Transform)))
}

func TestCiphersReusableAfterFailedTransfer(t *testing.T) {
	plain := []byte("twenty-five bytes of text")

	for _, alg := range []CipherAlgorithm{CipherAESCTR, CipherChaCha20} {
		t.Run(string(alg), func(t *testing.T) {
			ws := newTestWorkspace(t)
			size, _ := NonceSize(alg)

			sealer, err := NewSealer(alg, testKey)
			require.NoError(t, err)
			opener, err := NewOpener(alg, testKey)
			require.NoError(t, err)

			require.Error(t, Transfer(&failingSource{data: []byte("abcdef")}, &bufferSink{}, 4, sealer.Transform, nil))
			sealed := through(t, ws, plain, 4, sealer.Transform)
			assert.Len(t, sealed, size+len(plain), "a new stream starts with its nonce")

			// The opener fails with half a nonce buffered.
			require.Error(t, Transfer(&failingSource{data: sealed[:size/2]}, &bufferSink{}, 3, opener.Transform, nil))
			assert.Equal(t, plain, through(t, ws, sealed, 5, opener.Transform))

			nonce := bytes.Repeat([]byte{1}, size)
			c, err := NewStreamCipher(alg, testKey, nonce)
			require.NoError(t, err)
			reference := through(t, ws, plain, 4, c.Transform)
			require.Error(t, Transfer(&failingSource{data: []byte("abcdef")}, &bufferSink{}, 4, c.Transform, nil))
			assert.Equal(t, reference, through(t, ws, plain, 4, c.Transform))
		})
	}
}

func TestOpenerShortInput(t *testing.T) {
	ws := newTestWorkspace(t)
	opener, err := NewOpener(CipherAESCTR, testKey)
	require.NoError(t, err)

	assert.Empty(t, through(t, ws, []byte("short"), 2, opener.Transform))
}

func TestOpenerWrongKey(t *testing.T) {
	ws := newTestWorkspace(t)
	sealer, err := NewSealer(CipherAESCTR, testKey)
	require.NoError(t, err)
	opener, err := NewOpener(CipherAESCTR, bytes.Repeat([]byte{9}, KeySize))
	require.NoError(t, err)

	sealed := through(t, ws, []byte("secret"), 4, sealer.Transform)
	assert.NotEqual(t, "secret", string(through(t, ws, sealed, 4, opener.Transform)))
}

func TestCipherValidation(t *testing.T) {
	_, err := NewStreamCipher(CipherAESCTR, testKey, []byte("short"))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewStreamCipher(CipherAESCTR, []byte("short"), make([]byte, 16))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewSealer("rot13", testKey)
	assert.ErrorIs(t, err, ErrNotSupported)

	_, err = NewOpener(CipherChaCha20, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NonceSize("rot13")
	assert.ErrorIs(t, err, ErrNotSupported)
}

func TestDeriveKey(t *testing.T) {
	a := DeriveKey("correct horse", []byte("salt-one"))
	b := DeriveKey("correct horse", []byte("salt-one"))
	c := DeriveKey("correct horse", []byte("salt-two"))

	assert.Len(t, a, KeySize)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestWorkspaceCipher(t *testing.T) {
	ws := newTestWorkspace(t)
	_, err := ws.Sealer()
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = ws.Opener()
	assert.ErrorIs(t, err, ErrInvalidArgument)

	ws = newTestWorkspace(t, WithCipher(CipherChaCha20, testKey))
	sealer, err := ws.Sealer()
	require.NoError(t, err)
	opener, err := ws.Opener()
	require.NoError(t, err)

	sealed := through(t, ws, []byte("configured"), 3, sealer.Transform)
	assert.Equal(t, "configured", string(through(t, ws, sealed, 5, opener.Transform)))
}
