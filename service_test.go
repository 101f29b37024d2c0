package folderkit

import (
	"bytes"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func init() {
	RegisterHost("memory", func(*Config) (afero.Fs, error) {
		return afero.NewMemMapFs(), nil
	})
	RegisterHost("broken", func(*Config) (afero.Fs, error) {
		return nil, errors.New("host unavailable")
	})
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
		errMsg  string
	}{
		{
			name:    "empty host",
			config:  Config{},
			wantErr: true,
			errMsg:  "host is required",
		},
		{
			name:    "negative chunk size",
			config:  Config{Host: "memory", ChunkSize: -1},
			wantErr: true,
			errMsg:  "chunk size",
		},
		{
			name:    "negative poll interval",
			config:  Config{Host: "memory", PollIntervalMS: -5},
			wantErr: true,
			errMsg:  "poll interval",
		},
		{
			name:    "unknown cipher",
			config:  Config{Host: "memory", CipherAlgorithm: "rot13"},
			wantErr: true,
			errMsg:  "unsupported cipher algorithm",
		},
		{
			name:    "valid",
			config:  Config{Host: "memory", ChunkSize: 512, CipherAlgorithm: "chacha20"},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfig(&tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("validateConfig() error = %v, want error containing %v", err, tt.errMsg)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	base := Config{
		Host:         "memory",
		DocumentsDir: filepath.Join(tmpDir, "docs"),
		ChunkSize:    256,
		LogLevel:     "info",
		LogFormat:    "json",
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "memory host",
			mutate: func(*Config) {},
		},
		{
			name: "with cipher key",
			mutate: func(c *Config) {
				c.CipherAlgorithm = "chacha20"
				c.CipherKey = base64.StdEncoding.EncodeToString(make([]byte, KeySize))
			},
		},
		{
			name:    "unregistered host",
			mutate:  func(c *Config) { c.Host = "ftp" },
			wantErr: true,
			errMsg:  "failed to create host",
		},
		{
			name:    "host factory failure",
			mutate:  func(c *Config) { c.Host = "broken" },
			wantErr: true,
			errMsg:  "host unavailable",
		},
		{
			name:    "invalid base64 key",
			mutate:  func(c *Config) { c.CipherKey = "not base64!" },
			wantErr: true,
			errMsg:  "invalid cipher key",
		},
		{
			name:    "short key",
			mutate:  func(c *Config) { c.CipherKey = base64.StdEncoding.EncodeToString(make([]byte, 16)) },
			wantErr: true,
			errMsg:  "key must be 32 bytes",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.LogLevel = "chatty" },
			wantErr: true,
			errMsg:  "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)

			ws, err := New(&cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("New() error = %v, want error containing %v", err, tt.errMsg)
			}
			if err == nil && ws == nil {
				t.Error("New() returned nil workspace without error")
			}
		})
	}
}

func TestNewAppliesConfig(t *testing.T) {
	docs := filepath.Join(t.TempDir(), "docs")
	ws, err := New(&Config{
		Host:         "memory",
		DocumentsDir: docs,
		ChunkSize:    64,
		LogLevel:     "info",
		LogFormat:    "json",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	root, err := ws.Root(RootDocuments)
	if err != nil {
		t.Fatalf("Root() error = %v", err)
	}
	if root != docs {
		t.Errorf("Root() = %q, want %q", root, docs)
	}
	if ws.ChunkSize() != 64 {
		t.Errorf("ChunkSize() = %d, want 64", ws.ChunkSize())
	}
	if _, err := ws.Sealer(); err == nil {
		t.Error("Sealer() without key should fail")
	}
}

func TestBuilderWithPrefix(t *testing.T) {
	docs := filepath.Join(t.TempDir(), "docs")
	env := map[string]string{
		"FOLDERKIT_HOST":          "memory",
		"FOLDERKIT_DOCUMENTS_DIR": docs,
		"FOLDERKIT_LOG_FORMAT":    "json",
	}
	for k, v := range env {
		for _, key := range []string{k, "BEAVER_" + k} {
			key := key
			os.Setenv(key, v)
			t.Cleanup(func() { os.Unsetenv(key) })
		}
	}

	var logs bytes.Buffer
	ws, err := WithPrefix("").LogTo(&logs).New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	folder, err := ws.Folder("Inbox", RootDocuments)
	if err != nil {
		t.Fatalf("Folder() error = %v", err)
	}
	if err := folder.DeleteContentByName("missing.txt"); err == nil {
		t.Fatal("DeleteContentByName() on a missing child should fail")
	}
	if !strings.Contains(logs.String(), `"op":"delete"`) {
		t.Errorf("failure was not logged: %s", logs.String())
	}
	if !strings.Contains(logs.String(), `"host":"memory"`) {
		t.Errorf("logger is missing the host field: %s", logs.String())
	}
}

func TestRegisteredHosts(t *testing.T) {
	hosts := RegisteredHosts()
	found := false
	for _, h := range hosts {
		if h == "memory" {
			found = true
		}
	}
	if !found {
		t.Errorf("RegisteredHosts() = %v, want memory", hosts)
	}
}
