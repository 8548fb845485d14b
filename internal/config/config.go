// Package config loads the tool configuration from a TOML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// DefaultFile is the config file looked up when none is given explicitly.
const DefaultFile = "dicomsync.toml"

const (
	defaultCollection = "studies"
	defaultPrefix     = "dicoms"
)

// Config holds everything needed to reach the object store and the catalog.
// It is constructed once at startup and passed into each component; nothing
// reads process-wide client state.
type Config struct {
	ProjectID       string `toml:"project_id"`
	Bucket          string `toml:"bucket"`
	Collection      string `toml:"collection"`
	StoragePrefix   string `toml:"storage_prefix"`
	CredentialsFile string `toml:"credentials_file"`
}

// Load reads the configuration from path, or from DefaultFile when path is
// empty and that file exists. DICOMSYNC_* environment variables override
// file values, so a config file is optional when the environment is
// complete.
func Load(path string) (*Config, error) {
	var cfg Config

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file; rely on the environment.
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.ProjectID = envOr("DICOMSYNC_PROJECT_ID", c.ProjectID)
	c.Bucket = envOr("DICOMSYNC_BUCKET", c.Bucket)
	c.Collection = envOr("DICOMSYNC_COLLECTION", c.Collection)
	c.StoragePrefix = envOr("DICOMSYNC_STORAGE_PREFIX", c.StoragePrefix)
	c.CredentialsFile = envOr("DICOMSYNC_CREDENTIALS_FILE", c.CredentialsFile)
}

func (c *Config) validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("project_id must be set (config file or DICOMSYNC_PROJECT_ID)")
	}
	if c.Bucket == "" {
		c.Bucket = fmt.Sprintf("%s.firebasestorage.app", c.ProjectID)
	}
	if c.Collection == "" {
		c.Collection = defaultCollection
	}
	if c.StoragePrefix == "" {
		c.StoragePrefix = defaultPrefix
	}
	return nil
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
