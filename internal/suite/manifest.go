// Package suite runs a manifest-described corpus of example documents and
// asserts each file's expected verdict. Teaching corpora ship a lend.toml
// next to their documents; the suite is how their maintainers keep the
// deliberately broken examples broken.
package suite

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"lend/internal/diag"
)

// ManifestName is the file the suite looks for in a corpus directory.
const ManifestName = "lend.toml"

var (
	// ErrManifestMissing reports a directory without a lend.toml.
	ErrManifestMissing = errors.New("suite manifest not found")
	// ErrNoExamples reports a manifest with an empty example list.
	ErrNoExamples = errors.New("suite manifest lists no examples")
)

// Expectation is the verdict a manifest entry asserts.
type Expectation uint8

const (
	ExpectValid Expectation = iota
	ExpectInvalid
)

func (e Expectation) String() string {
	if e == ExpectInvalid {
		return "invalid"
	}
	return "valid"
}

// Example is one asserted document of the corpus.
type Example struct {
	// File is the document path relative to the manifest directory.
	File string
	// Expect is the asserted verdict.
	Expect Expectation
	// Kinds, when non-empty, asserts the exact set of finding kinds.
	Kinds []diag.Kind
}

// Manifest is a parsed lend.toml.
type Manifest struct {
	Name     string
	Dir      string
	Examples []Example
}

type manifestTOML struct {
	Suite struct {
		Name string `toml:"name"`
	} `toml:"suite"`
	Example []struct {
		File   string   `toml:"file"`
		Expect string   `toml:"expect"`
		Kinds  []string `toml:"kinds"`
	} `toml:"example"`
}

// LoadManifest parses the lend.toml in dir.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", dir, ErrManifestMissing)
		}
		return nil, err
	}
	var cfg manifestTOML
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("suite") {
		return nil, fmt.Errorf("%s: missing [suite] section", path)
	}
	if len(cfg.Example) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoExamples)
	}

	m := &Manifest{
		Name: strings.TrimSpace(cfg.Suite.Name),
		Dir:  dir,
	}
	if m.Name == "" {
		m.Name = filepath.Base(dir)
	}
	for i, ex := range cfg.Example {
		file := strings.TrimSpace(ex.File)
		if file == "" {
			return nil, fmt.Errorf("%s: example %d has no file", path, i)
		}
		entry := Example{File: file}
		switch ex.Expect {
		case "valid", "":
			entry.Expect = ExpectValid
		case "invalid":
			entry.Expect = ExpectInvalid
		default:
			return nil, fmt.Errorf("%s: example %q: unknown expect %q", path, file, ex.Expect)
		}
		for _, s := range ex.Kinds {
			kind, err := diag.ParseKind(s)
			if err != nil {
				return nil, fmt.Errorf("%s: example %q: %w", path, file, err)
			}
			entry.Kinds = append(entry.Kinds, kind)
		}
		if entry.Expect == ExpectValid && len(entry.Kinds) > 0 {
			return nil, fmt.Errorf("%s: example %q: valid entries cannot assert kinds", path, file)
		}
		m.Examples = append(m.Examples, entry)
	}
	return m, nil
}
