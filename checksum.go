package folderkit

import (
	"crypto/md5"  //nolint:gosec // integrity only
	"crypto/sha1" //nolint:gosec // integrity only
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ChecksumAlgorithm names a supported checksum algorithm
type ChecksumAlgorithm string

const (
	// ChecksumMD5 is MD5 (128-bit, fast but not cryptographically secure)
	ChecksumMD5 ChecksumAlgorithm = "md5"
	// ChecksumSHA1 is SHA-1 (160-bit, legacy)
	ChecksumSHA1 ChecksumAlgorithm = "sha1"
	// ChecksumSHA256 is SHA-256 (256-bit, recommended)
	ChecksumSHA256 ChecksumAlgorithm = "sha256"
	// ChecksumSHA512 is SHA-512
	ChecksumSHA512 ChecksumAlgorithm = "sha512"
	// ChecksumCRC32 is CRC32 IEEE (32-bit, for integrity only)
	ChecksumCRC32 ChecksumAlgorithm = "crc32"
	// ChecksumXXHash is xxHash64
	ChecksumXXHash ChecksumAlgorithm = "xxhash"
)

var hashers = map[ChecksumAlgorithm]func() hash.Hash{
	ChecksumMD5:    md5.New,  //nolint:gosec // integrity only
	ChecksumSHA1:   sha1.New, //nolint:gosec // integrity only
	ChecksumSHA256: sha256.New,
	ChecksumSHA512: sha512.New,
	ChecksumCRC32:  func() hash.Hash { return crc32.NewIEEE() },
	ChecksumXXHash: func() hash.Hash { return xxhash.New() },
}

// ParseChecksumAlgorithm maps a case-insensitive name to its algorithm.
func ParseChecksumAlgorithm(s string) (ChecksumAlgorithm, error) {
	alg := ChecksumAlgorithm(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := hashers[alg]; !ok {
		return "", fmt.Errorf("%w: checksum algorithm %q", ErrNotSupported, s)
	}
	return alg, nil
}

// NewHasher returns a fresh hash for algorithm.
func NewHasher(algorithm ChecksumAlgorithm) (hash.Hash, error) {
	newHash, ok := hashers[algorithm]
	if !ok {
		return nil, fmt.Errorf("%w: checksum algorithm %q", ErrNotSupported, algorithm)
	}
	return newHash(), nil
}

// CalculateChecksum returns the hex digest of everything read from r.
func CalculateChecksum(r io.Reader, algorithm ChecksumAlgorithm) (string, error) {
	sums, err := CalculateChecksums(r, []ChecksumAlgorithm{algorithm})
	if err != nil {
		return "", err
	}
	return sums[algorithm], nil
}

// CalculateChecksums reads r once and returns the hex digest for every
// algorithm. Repeated algorithms are hashed once.
func CalculateChecksums(r io.Reader, algorithms []ChecksumAlgorithm) (map[ChecksumAlgorithm]string, error) {
	if len(algorithms) == 0 {
		return nil, fmt.Errorf("%w: no checksum algorithm", ErrInvalidArgument)
	}

	digests := make(map[ChecksumAlgorithm]hash.Hash, len(algorithms))
	sinks := make([]io.Writer, 0, len(algorithms))
	for _, alg := range algorithms {
		if _, dup := digests[alg]; dup {
			continue
		}
		h, err := NewHasher(alg)
		if err != nil {
			return nil, err
		}
		digests[alg] = h
		sinks = append(sinks, h)
	}

	if _, err := io.Copy(io.MultiWriter(sinks...), r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	sums := make(map[ChecksumAlgorithm]string, len(digests))
	for alg, h := range digests {
		sums[alg] = hex.EncodeToString(h.Sum(nil))
	}
	return sums, nil
}

// Checksum hashes the current content of the file.
func (f *File) Checksum(algorithm ChecksumAlgorithm) (string, error) {
	sums, err := f.checksums("checksum", []ChecksumAlgorithm{algorithm})
	if err != nil {
		return "", err
	}
	return sums[algorithm], nil
}

// Checksums hashes the file once for every algorithm.
func (f *File) Checksums(algorithms ...ChecksumAlgorithm) (map[ChecksumAlgorithm]string, error) {
	return f.checksums("checksums", algorithms)
}

func (f *File) checksums(op string, algorithms []ChecksumAlgorithm) (map[ChecksumAlgorithm]string, error) {
	if !f.IsRegularFile() {
		err := ErrNotExist
		if f.Exists() {
			err = ErrNotRegular
		}
		return nil, f.ws.fail(op, f.path, &PathError{Op: op, Path: f.path, Err: err})
	}
	r, err := f.ws.host.Open(f.path)
	if err != nil {
		return nil, f.ws.fail(op, f.path, hostError(op, f.path, err))
	}
	defer r.Close()

	sums, err := CalculateChecksums(r, algorithms)
	if err != nil {
		return nil, f.ws.fail(op, f.path, &PathError{Op: op, Path: f.path, Err: err})
	}
	return sums, nil
}
