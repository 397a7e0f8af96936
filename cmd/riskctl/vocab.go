package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bibbank/creditrisk/internal/infrastructure/ml"
)

// modelInfo is what vocab prints about the loaded model.
type modelInfo struct {
	Name         string              `yaml:"name"`
	Version      string              `yaml:"version"`
	Format       string              `yaml:"format"`
	FeatureNames []string            `yaml:"feature_names"`
	Vocabulary   map[string][]string `yaml:"vocabulary"`
}

func vocabCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "vocab",
		Short: "Print the model's feature order and categorical vocabulary",
		Long: `Vocab prints the loaded model's feature order and, for every
categorical field, the labels in code order. Values outside these lists
are encoded as -1 when scoring.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			artifacts, err := ml.LoadArtifacts(g.manifest)
			if err != nil {
				return err
			}
			defer artifacts.Close()

			info := modelInfo{
				Name:         artifacts.Manifest.Name,
				Version:      artifacts.Manifest.Version,
				Format:       artifacts.Manifest.Format,
				FeatureNames: artifacts.Classifier.FeatureNames(),
				Vocabulary:   make(map[string][]string),
			}
			for _, field := range artifacts.Vocabulary.Fields() {
				info.Vocabulary[field] = artifacts.Vocabulary.Labels(field)
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(info); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
