package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/marcelsud/webhook-relay/webhook"
	"gopkg.in/yaml.v3"
)

/* Loader manages the webhook type catalog from webhook_types.yaml
 * Keeps file order and provides in-memory lookup by slug
 */

// Config represents the structure of webhook_types.yaml
type Config struct {
	Types []TypeConfig `yaml:"types"`
}

// TypeConfig represents a single webhook type in the YAML file
type TypeConfig struct {
	Slug        string `yaml:"slug"`
	Description string `yaml:"desc"`
}

// Loader holds the loaded catalog
type Loader struct {
	order []string
	types map[string]TypeConfig
}

// NewLoader creates a new catalog loader
func NewLoader() *Loader {
	return &Loader{
		types: make(map[string]TypeConfig),
	}
}

// Load reads and parses a catalog file
func (l *Loader) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading catalog file: %w", err)
	}
	return l.Parse(data)
}

// Parse validates a catalog document; nothing is kept when any entry is invalid
func (l *Loader) Parse(data []byte) error {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("parsing catalog YAML: %w", err)
	}

	order := make([]string, 0, len(config.Types))
	types := make(map[string]TypeConfig, len(config.Types))
	for i, tc := range config.Types {
		if err := webhook.ValidateSlug(tc.Slug); err != nil {
			return fmt.Errorf("validating type %d (%q): %w", i, tc.Slug, err)
		}
		if _, dup := types[tc.Slug]; dup {
			return fmt.Errorf("duplicate slug %q", tc.Slug)
		}
		types[tc.Slug] = tc
		order = append(order, tc.Slug)
	}

	l.order = order
	l.types = types
	return nil
}

// Get retrieves a type by slug
func (l *Loader) Get(slug string) (TypeConfig, error) {
	tc, exists := l.types[slug]
	if !exists {
		return TypeConfig{}, fmt.Errorf("webhook type not found: %s", slug)
	}
	return tc, nil
}

// List returns all loaded types in file order
func (l *Loader) List() []TypeConfig {
	out := make([]TypeConfig, 0, len(l.order))
	for _, slug := range l.order {
		out = append(out, l.types[slug])
	}
	return out
}

// Exists checks if a slug is in the catalog
func (l *Loader) Exists(slug string) bool {
	_, exists := l.types[slug]
	return exists
}

// TypeStore is the part of webhook.UseCase the catalog seeds through
type TypeStore interface {
	ListWebhookTypes(ctx context.Context) ([]webhook.WebhookType, error)
	CreateWebhookType(ctx context.Context, description, slug string) (webhook.WebhookType, error)
}

// Missing returns catalog entries whose slug is not in existing
func (l *Loader) Missing(existing []webhook.WebhookType) []TypeConfig {
	present := make(map[string]bool, len(existing))
	for _, t := range existing {
		present[t.Slug] = true
	}
	var missing []TypeConfig
	for _, tc := range l.List() {
		if !present[tc.Slug] {
			missing = append(missing, tc)
		}
	}
	return missing
}

// Seed creates every catalog entry the store does not have yet
func (l *Loader) Seed(ctx context.Context, store TypeStore) ([]webhook.WebhookType, error) {
	existing, err := store.ListWebhookTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing webhook types: %w", err)
	}

	var created []webhook.WebhookType
	for _, tc := range l.Missing(existing) {
		t, err := store.CreateWebhookType(ctx, tc.Description, tc.Slug)
		if err != nil {
			return created, fmt.Errorf("creating webhook type %s: %w", tc.Slug, err)
		}
		created = append(created, t)
	}
	return created, nil
}
