package folderkit

import (
	"time"

	"github.com/rs/zerolog"
)

// DefaultChunkSize is the transfer chunk size used when none is configured.
const DefaultChunkSize = 1024

// Option represents a workspace configuration option
type Option func(*Options)

// Options contains everything a Workspace can be configured with
type Options struct {
	// Roots overrides the host directory a RootKind resolves to
	Roots map[RootKind]string

	// ChunkSize is the transfer chunk size used by folder-level copies
	ChunkSize int

	// Dispatcher receives progress and completion callbacks
	Dispatcher Dispatcher

	// Logger receives diagnostics for every failed operation
	Logger *zerolog.Logger

	// Cipher selects the algorithm and key behind Workspace.Sealer/Opener
	Cipher CipherAlgorithm
	Key    []byte

	// PollInterval is how often Folder.Watch polls hosts without native
	// change notifications
	PollInterval time.Duration
}

// WithRoot anchors a RootKind at dir
func WithRoot(kind RootKind, dir string) Option {
	return func(o *Options) {
		if o.Roots == nil {
			o.Roots = make(map[RootKind]string)
		}
		o.Roots[kind] = dir
	}
}

// WithChunkSize sets the default transfer chunk size
func WithChunkSize(size int) Option {
	return func(o *Options) {
		o.ChunkSize = size
	}
}

// WithDispatcher sets where progress and completion callbacks run
func WithDispatcher(d Dispatcher) Option {
	return func(o *Options) {
		o.Dispatcher = d
	}
}

// WithLogger sets the diagnostics logger
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = &logger
	}
}

// WithCipher sets the stream cipher used by Workspace.Sealer and
// Workspace.Opener
func WithCipher(algorithm CipherAlgorithm, key []byte) Option {
	return func(o *Options) {
		o.Cipher = algorithm
		o.Key = key
	}
}

// WithPollInterval sets how often folders are polled for changes on hosts
// that cannot notify
func WithPollInterval(interval time.Duration) Option {
	return func(o *Options) {
		o.PollInterval = interval
	}
}

func processOptions(options ...Option) *Options {
	opts := &Options{}
	for _, option := range options {
		option(opts)
	}
	return opts
}
