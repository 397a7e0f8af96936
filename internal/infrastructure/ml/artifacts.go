// Package ml loads the trained classifier and its label vocabularies.
package ml

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/bibbank/creditrisk/internal/domain/port"
	"github.com/bibbank/creditrisk/internal/domain/service"
)

// Model formats understood by LoadArtifacts.
const (
	FormatForest = "forest"
	FormatONNX   = "onnx"
)

// Manifest describes one trained model and its vocabulary file.
//
//	format: forest
//	model: forest.json
//	vocabulary: vocabulary.yaml
type Manifest struct {
	Name       string `yaml:"name"`
	Version    string `yaml:"version"`
	Format     string `yaml:"format"`
	Model      string `yaml:"model"`
	Vocabulary string `yaml:"vocabulary"`
	// FeatureNames is required for ONNX models and, when set for a forest,
	// must match the forest's own order.
	FeatureNames []string   `yaml:"feature_names"`
	ONNX         ONNXConfig `yaml:"onnx"`
}

// Artifacts are the read-only objects shared by every scoring call.
type Artifacts struct {
	Manifest   Manifest
	Classifier port.Classifier
	Vocabulary *service.LabelVocabulary
}

// Close releases native resources held by the classifier, if any.
func (a *Artifacts) Close() error {
	if c, ok := a.Classifier.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// LoadManifest reads a manifest. Relative model and vocabulary paths are
// resolved against the manifest's directory.
func LoadManifest(path string) (Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.Format == "" {
		m.Format = FormatForest
	}
	if m.Model == "" {
		return Manifest{}, errors.New("manifest: model path is required")
	}
	if m.Vocabulary == "" {
		return Manifest{}, errors.New("manifest: vocabulary path is required")
	}
	dir := filepath.Dir(path)
	m.Model = resolve(dir, m.Model)
	m.Vocabulary = resolve(dir, m.Vocabulary)
	return m, nil
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// LoadVocabulary reads a YAML map of field name to labels, in code order.
func LoadVocabulary(path string) (*service.LabelVocabulary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	var labels map[string][]string
	if err := yaml.Unmarshal(raw, &labels); err != nil {
		return nil, fmt.Errorf("parse vocabulary %s: %w", path, err)
	}
	vocab, err := service.NewLabelVocabulary(labels)
	if err != nil {
		return nil, fmt.Errorf("vocabulary %s: %w", path, err)
	}
	return vocab, nil
}

// LoadArtifacts loads the manifest at path, then its classifier and
// vocabulary.
func LoadArtifacts(path string) (*Artifacts, error) {
	m, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}
	vocab, err := LoadVocabulary(m.Vocabulary)
	if err != nil {
		return nil, err
	}

	var classifier port.Classifier
	switch m.Format {
	case FormatForest:
		forest, err := LoadForest(m.Model)
		if err != nil {
			return nil, err
		}
		if len(m.FeatureNames) > 0 && !slices.Equal(m.FeatureNames, forest.FeatureNames()) {
			return nil, errors.New("manifest feature_names disagree with the forest")
		}
		classifier = forest
	case FormatONNX:
		onnx, err := NewONNXClassifier(m.Model, m.FeatureNames, m.ONNX)
		if err != nil {
			return nil, err
		}
		classifier = onnx
	default:
		return nil, fmt.Errorf("manifest: unsupported model format %q", m.Format)
	}

	return &Artifacts{Manifest: m, Classifier: classifier, Vocabulary: vocab}, nil
}
