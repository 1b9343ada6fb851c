// Package credential resolves the Google API key. Providers are consulted in
// order on every request, so a key stored mid-run is picked up without a
// restart.
package credential

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
)

// EnvKey is the variable holding the key inside the dotenv key file.
const EnvKey = "GOOGLE_API_KEY"

// ErrNoKey is returned when no provider yields a key.
var ErrNoKey = eris.New("credential: no google api key available")

// Provider supplies the API key.
type Provider interface {
	APIKey(ctx context.Context) (string, error)
}

// Named is implemented by providers that can describe where a key came from.
type Named interface {
	Name() string
}

// Static returns a fixed key, typically from configuration.
type Static string

// APIKey implements Provider.
func (s Static) APIKey(context.Context) (string, error) {
	return strings.TrimSpace(string(s)), nil
}

// Name implements Named.
func (s Static) Name() string { return "config" }

// String keeps the key out of log lines.
func (s Static) String() string { return "credential.Static(<redacted>)" }

type fileProvider struct {
	path string
}

// FromFile reads the key from a dotenv file. A missing file yields an empty
// key, not an error.
func FromFile(path string) Provider {
	return fileProvider{path: path}
}

func (f fileProvider) APIKey(context.Context) (string, error) {
	return readKeyFile(f.path)
}

func (f fileProvider) Name() string { return "file " + f.path }

func readKeyFile(path string) (string, error) {
	env, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", eris.Wrapf(err, "credential: read key file %s", path)
	}
	return strings.TrimSpace(env[EnvKey]), nil
}

// Save writes key to a dotenv file readable only by the owner.
func Save(path, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return eris.New("credential: refusing to save an empty key")
	}
	if err := godotenv.Write(map[string]string{EnvKey: key}, path); err != nil {
		return eris.Wrapf(err, "credential: write key file %s", path)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return eris.Wrapf(err, "credential: chmod key file %s", path)
	}
	return nil
}

// ChainProvider returns the first non-empty key of its providers.
type ChainProvider struct {
	providers []Provider
}

// Chain builds a ChainProvider. Nil providers are skipped.
func Chain(providers ...Provider) *ChainProvider {
	c := &ChainProvider{}
	for _, p := range providers {
		if p != nil {
			c.providers = append(c.providers, p)
		}
	}
	return c
}

// APIKey implements Provider.
func (c *ChainProvider) APIKey(ctx context.Context) (string, error) {
	key, _, err := c.Resolve(ctx)
	return key, err
}

// Resolve returns the key and the name of the provider that supplied it.
func (c *ChainProvider) Resolve(ctx context.Context) (key, source string, err error) {
	for _, p := range c.providers {
		key, err := p.APIKey(ctx)
		if err != nil {
			return "", "", err
		}
		if key != "" {
			return key, nameOf(p), nil
		}
	}
	return "", "", ErrNoKey
}

func nameOf(p Provider) string {
	if n, ok := p.(Named); ok {
		return n.Name()
	}
	return "unknown"
}
