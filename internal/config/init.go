package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"gopkg.in/yaml.v3"

	"github.com/codexautotest/internal/llm"
	"github.com/codexautotest/internal/prompts"
)

// fileLayout is the on-disk shape written by InitConfig.
type fileLayout struct {
	SrcPath   string            `yaml:"src_path"`
	Language  string            `yaml:"language"`
	Framework string            `yaml:"framework"`
	Prompts   map[string]string `yaml:"prompts"`
	Model     fileModel         `yaml:"model"`
}

type fileModel struct {
	Provider    string  `yaml:"provider"`
	Name        string  `yaml:"name"`
	Temperature float64 `yaml:"temperature"`
	Timeout     string  `yaml:"timeout"`
	MaxRetries  int     `yaml:"max_retries"`
}

func defaultLayout() fileLayout {
	tpls := make(map[string]string)
	for _, t := range prompts.DefaultTemplates() {
		tpls[t.Key] = t.Body
	}
	return fileLayout{
		SrcPath:   "src",
		Language:  "python",
		Framework: "pytest",
		Prompts:   tpls,
		Model: fileModel{
			Provider:    string(llm.ProviderOpenAI),
			Name:        llm.DefaultModel(llm.ProviderOpenAI),
			Temperature: 0.2,
			Timeout:     "2m",
			MaxRetries:  3,
		},
	}
}

// DefaultFile renders the default configuration in the format implied by
// path's extension.
func DefaultFile(path string) ([]byte, error) {
	layout := defaultLayout()
	if strings.ToLower(filepath.Ext(path)) == ".toml" {
		return toml.Parser().Marshal(map[string]interface{}{
			"src_path":  layout.SrcPath,
			"language":  layout.Language,
			"framework": layout.Framework,
			"prompts":   toInterfaceMap(layout.Prompts),
			"model": map[string]interface{}{
				"provider":    layout.Model.Provider,
				"name":        layout.Model.Name,
				"temperature": layout.Model.Temperature,
				"timeout":     layout.Model.Timeout,
				"max_retries": layout.Model.MaxRetries,
			},
		})
	}
	return yaml.Marshal(layout)
}

// InitConfig writes the default configuration file. It refuses to overwrite
// an existing file.
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file %s already exists. Aborting", configPath)
	}
	if _, err := parserFor(configPath); err != nil {
		return err
	}

	content, err := DefaultFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to render default config: %w", err)
	}
	return os.WriteFile(configPath, content, 0644)
}

func toInterfaceMap(m map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
