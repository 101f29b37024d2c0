package folderkit

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gobeaver/beaver-kit/config"

	"github.com/gobeaver/folderkit/internal/logging"
)

// Builder provides a way to create Workspace instances with custom prefixes
type Builder struct {
	prefix string
	logOut io.Writer
}

// WithPrefix creates a new Builder with the specified prefix
func WithPrefix(prefix string) *Builder {
	return &Builder{prefix: prefix}
}

// LogTo sends the workspace logs to w instead of stderr.
func (b *Builder) LogTo(w io.Writer) *Builder {
	b.logOut = w
	return b
}

// New creates a new Workspace using the builder's prefix
func (b *Builder) New(options ...Option) (*Workspace, error) {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return nil, err
	}
	if b.logOut != nil {
		return newWorkspace(cfg, b.logOut, options...)
	}
	return New(cfg, options...)
}

// New creates a workspace from cfg. options are applied after the ones
// derived from cfg, so they win. A nil cfg is loaded from the environment.
func New(cfg *Config, options ...Option) (*Workspace, error) {
	return newWorkspace(cfg, os.Stderr, options...)
}

func newWorkspace(cfg *Config, logOut io.Writer, options ...Option) (*Workspace, error) {
	if cfg == nil {
		var err error
		if cfg, err = GetConfig(); err != nil {
			return nil, err
		}
	}
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	host, err := CreateHost(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create host: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, logOut)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	opts := []Option{
		WithLogger(logger.With().Str("host", cfg.Host).Logger()),
		WithChunkSize(cfg.ChunkSize),
		WithPollInterval(time.Duration(cfg.PollIntervalMS) * time.Millisecond),
	}
	for kind, dir := range cfg.rootDirs() {
		opts = append(opts, WithRoot(kind, dir))
	}
	if cfg.CipherKey != "" {
		key, err := base64.StdEncoding.DecodeString(cfg.CipherKey)
		if err != nil {
			return nil, fmt.Errorf("invalid cipher key: %w", err)
		}
		opts = append(opts, WithCipher(CipherAlgorithm(cfg.CipherAlgorithm), key))
	} else if cfg.CipherAlgorithm != "" {
		opts = append(opts, WithCipher(CipherAlgorithm(cfg.CipherAlgorithm), nil))
	}

	return NewWorkspace(host, append(opts, options...)...)
}

// validateConfig checks configuration validity
func validateConfig(cfg *Config) error {
	if cfg.Host == "" {
		return errors.New("host is required")
	}
	if cfg.ChunkSize < 0 {
		return fmt.Errorf("chunk size must not be negative, got %d", cfg.ChunkSize)
	}
	if cfg.PollIntervalMS < 0 {
		return fmt.Errorf("poll interval must not be negative, got %d", cfg.PollIntervalMS)
	}
	if cfg.CipherAlgorithm != "" {
		if _, err := NonceSize(CipherAlgorithm(cfg.CipherAlgorithm)); err != nil {
			return err
		}
	}
	return nil
}
