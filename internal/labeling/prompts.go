package labeling

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"fjacquet/finance-etl/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed prompts/default.yaml
var defaultPrompts []byte

// Prompts holds the instruction blocks sent ahead of the rows.
type Prompts struct {
	Generic    string            `yaml:"generic"`
	Categories map[string]string `yaml:"categories"`
}

// DefaultPrompts returns the built-in instruction blocks.
func DefaultPrompts() (*Prompts, error) {
	return parsePrompts(defaultPrompts, "built-in prompts")
}

// LoadPrompts reads instruction blocks from a YAML file. An empty path
// selects the built-in defaults.
func LoadPrompts(path string) (*Prompts, error) {
	if path == "" {
		return DefaultPrompts()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading prompt file: %w", err)
	}
	return parsePrompts(data, path)
}

func parsePrompts(data []byte, origin string) (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", origin, err)
	}
	if strings.TrimSpace(p.Generic) == "" {
		return nil, fmt.Errorf("%s: generic prompt is empty", origin)
	}
	return &p, nil
}

// Build assembles the labeling prompt. Context rows are reference only and
// are not expected back; target rows are the ones to label.
func (p *Prompts) Build(category models.Category, reference, target []models.Transaction) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(p.Generic))
	sb.WriteString("\n")
	if specific := strings.TrimSpace(p.Categories[string(category)]); specific != "" {
		sb.WriteString(specific)
		sb.WriteString("\n")
	}

	if len(reference) > 0 {
		sb.WriteString("\nAlready labeled transactions:\n")
		writeRows(&sb, reference)
	}

	sb.WriteString("\nTransactions to label:\n")
	writeRows(&sb, target)
	return sb.String()
}

func writeRows(sb *strings.Builder, txs []models.Transaction) {
	for _, tx := range txs {
		sb.WriteString(strings.Join(tx.Row(), " | "))
		sb.WriteString("\n")
	}
}
