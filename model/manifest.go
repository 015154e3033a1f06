package model

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/stupidcoderJung/arctic-embedding-v1/pooling"
)

// ManifestFile is the optional descriptor next to the model weights.
const ManifestFile = "arctic.toml"

// Manifest describes a model directory.
type Manifest struct {
	Path      string `toml:"-"`
	Name      string `toml:"name"`
	Vocab     string `toml:"vocab"`
	Hidden    int    `toml:"hidden"`
	MaxLen    int    `toml:"max_len"`
	Pooling   string `toml:"pooling"`
	Normalize *bool  `toml:"normalize"`
}

// ReadManifest loads dir/arctic.toml. A missing file yields a manifest with
// only Path set and vocab.txt as the vocabulary.
func ReadManifest(dir string) (Manifest, error) {
	m := Manifest{Path: dir}
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return m, errors.Wrap(err, "model: read manifest")
	default:
		if err := toml.Unmarshal(data, &m); err != nil {
			return m, errors.Wrap(err, "model: parse manifest")
		}
		m.Path = dir
	}
	if m.Vocab == "" {
		m.Vocab = "vocab.txt"
	}
	if !filepath.IsAbs(m.Vocab) {
		m.Vocab = filepath.Join(dir, m.Vocab)
	}
	return m, nil
}

// Strategy returns the declared pooling strategy, empty when undeclared.
func (m Manifest) Strategy() (pooling.Strategy, error) {
	if m.Pooling == "" {
		return "", nil
	}
	return pooling.ParseStrategy(m.Pooling)
}
