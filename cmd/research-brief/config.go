// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-brief/pkg/types"
)

// configure registers the environment prefix and the pipeline defaults on v
// so that every key resolves from flag, environment, file, or default.
func configure(v *viper.Viper) {
	v.SetEnvPrefix("RESEARCH_BRIEF")
	v.AutomaticEnv()

	d := types.DefaultPipelineConfig()
	v.SetDefault("chunk_size", d.ChunkSize)
	v.SetDefault("chunk_overlap", d.ChunkOverlap)
	v.SetDefault("embedding_model", d.EmbeddingModel)
	v.SetDefault("llm_model", d.LLMModel)
	v.SetDefault("temperature", d.Temperature)
	v.SetDefault("top_k", d.TopK)
	v.SetDefault("embedder", string(d.Embedder))
	v.SetDefault("metric", string(d.Metric))
	v.SetDefault("ollama_url", d.OllamaURL)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("max_tokens", d.MaxTokens)
	v.SetDefault("log_level", "info")
}

// pipelineConfig decodes and validates the effective pipeline configuration.
func pipelineConfig(v *viper.Viper) (types.PipelineConfig, error) {
	cfg := types.DefaultPipelineConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Config resolves every pipeline option from flags, RESEARCH_BRIEF_*
environment variables, the config file, and the built-in defaults, then
prints the result. Use it to check what a run would use.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := pipelineConfig(viper.GetViper())
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
		return enc.Close()
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
