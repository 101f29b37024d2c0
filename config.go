package folderkit

import (
	"github.com/gobeaver/beaver-kit/config"
)

type Config struct {
	// Host file system to use (local, memory)
	Host string `env:"FOLDERKIT_HOST,default:local"`

	// Root overrides; empty means the platform directory
	DocumentsDir string `env:"FOLDERKIT_DOCUMENTS_DIR"`
	CachesDir    string `env:"FOLDERKIT_CACHES_DIR"`
	TemporaryDir string `env:"FOLDERKIT_TEMPORARY_DIR"`
	AppDataDir   string `env:"FOLDERKIT_APPDATA_DIR"`
	DownloadsDir string `env:"FOLDERKIT_DOWNLOADS_DIR"`

	// Transfer settings
	ChunkSize      int `env:"FOLDERKIT_CHUNK_SIZE,default:1024"`
	PollIntervalMS int `env:"FOLDERKIT_POLL_INTERVAL_MS,default:5000"`

	// Logging
	LogLevel  string `env:"FOLDERKIT_LOG_LEVEL,default:info"`
	LogFormat string `env:"FOLDERKIT_LOG_FORMAT,default:console"`

	// Stream cipher used by Workspace.Sealer and Workspace.Opener
	CipherAlgorithm string `env:"FOLDERKIT_CIPHER_ALGORITHM,default:aes-ctr"`
	CipherKey       string `env:"FOLDERKIT_CIPHER_KEY"` // base64, 32 bytes
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// rootDirs returns the configured root overrides.
func (c *Config) rootDirs() map[RootKind]string {
	dirs := map[RootKind]string{
		RootDocuments:          c.DocumentsDir,
		RootCaches:             c.CachesDir,
		RootTemporary:          c.TemporaryDir,
		RootApplicationSupport: c.AppDataDir,
		RootDownloads:          c.DownloadsDir,
	}
	for kind, dir := range dirs {
		if dir == "" {
			delete(dirs, kind)
		}
	}
	return dirs
}
