package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-portal/components/portal"
)

type scaffoldCmd struct {
	Name         string   `required:"" help:"Display name for the widget."`
	ID           string   `help:"Widget id (defaults to the kebab-cased name)."`
	Description  string   `help:"One-line description shown in the widget picker."`
	Category     string   `default:"overview" help:"Picker category (overview, hr, finance, operations, personal)."`
	Size         string   `default:"medium" help:"Default size (small, medium, large, full)."`
	Role         []string `required:"" help:"Roles allowed to see the widget (repeat --role)."`
	Icon         string   `help:"Icon name."`
	ManifestPath string   `required:"" type:"path" help:"Manifest YAML file to create or update."`
	DataPath     string   `type:"path" help:"Optional JSON file with static demo data for the widget."`
	ProviderOut  string   `help:"File path for a generated provider stub."`
	Package      string   `default:"providers" help:"Package name for the generated provider stub."`
	Overwrite    bool     `help:"Replace an existing manifest entry or provider stub."`
}

func (cmd *scaffoldCmd) Run(_ context.Context, g *Globals) error {
	entry, err := cmd.entry()
	if err != nil {
		return err
	}
	manifestPath, err := filepath.Abs(cmd.ManifestPath)
	if err != nil {
		return fmt.Errorf("portalctl: resolve manifest path: %w", err)
	}
	doc, err := loadOrInitManifest(manifestPath)
	if err != nil {
		return err
	}
	replaced := false
	for idx := range doc.Widgets {
		if doc.Widgets[idx].ID != entry.ID {
			continue
		}
		if !cmd.Overwrite {
			return fmt.Errorf("portalctl: manifest already defines widget %s (use --overwrite to replace)", entry.ID)
		}
		doc.Widgets[idx] = entry
		replaced = true
		break
	}
	if !replaced {
		doc.Widgets = append(doc.Widgets, entry)
	}
	sort.Slice(doc.Widgets, func(i, j int) bool {
		return doc.Widgets[i].ID < doc.Widgets[j].ID
	})
	if err := doc.Validate(); err != nil {
		return err
	}
	if err := writeManifest(manifestPath, doc); err != nil {
		return err
	}

	if cmd.ProviderOut == "" {
		fmt.Fprintf(g.stdout(), "added %s to %s\n", entry.ID, manifestPath)
		return nil
	}
	if err := writeProviderStub(cmd.ProviderOut, cmd.Package, entry.ID, cmd.Overwrite); err != nil {
		return err
	}
	fmt.Fprintf(g.stdout(), "added %s to %s and generated %s\n", entry.ID, manifestPath, cmd.ProviderOut)
	return nil
}

func (cmd *scaffoldCmd) entry() (portal.ManifestWidget, error) {
	id := strings.TrimSpace(cmd.ID)
	if id == "" {
		id = strcase.ToKebab(cmd.Name)
	}
	if id == "" {
		return portal.ManifestWidget{}, errors.New("portalctl: widget id cannot be empty")
	}
	size, err := portal.ParseWidgetSize(cmd.Size)
	if err != nil {
		return portal.ManifestWidget{}, err
	}
	category := portal.Category(strings.ToLower(cmd.Category))
	if !category.Valid() {
		return portal.ManifestWidget{}, fmt.Errorf("portalctl: unknown category %q", cmd.Category)
	}
	roles := make([]portal.Role, 0, len(cmd.Role))
	for _, value := range cmd.Role {
		role, err := portal.ParseRole(value)
		if err != nil {
			return portal.ManifestWidget{}, err
		}
		roles = append(roles, role)
	}
	data, err := cmd.loadData()
	if err != nil {
		return portal.ManifestWidget{}, err
	}
	return portal.ManifestWidget{
		WidgetMeta: portal.WidgetMeta{
			ID:           id,
			Name:         cmd.Name,
			Description:  cmd.Description,
			Icon:         cmd.Icon,
			Category:     category,
			DefaultSize:  size,
			AllowedRoles: roles,
		},
		Data: data,
	}, nil
}

func (cmd *scaffoldCmd) loadData() (map[string]any, error) {
	if cmd.DataPath == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(cmd.DataPath)
	if err != nil {
		return nil, fmt.Errorf("portalctl: read data file: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("portalctl: parse data JSON: %w", err)
	}
	return data, nil
}

func loadOrInitManifest(path string) (*portal.ManifestDocument, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &portal.ManifestDocument{
				Version: portal.ManifestVersion,
				Source:  path,
			}, nil
		}
		return nil, fmt.Errorf("portalctl: stat manifest: %w", err)
	}
	return portal.ReadManifest(path)
}

func writeManifest(path string, doc *portal.ManifestDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("portalctl: mkdir %s: %w", filepath.Dir(path), err)
	}
	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("portalctl: create manifest %s: %w", path, err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	defer encoder.Close()
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("portalctl: write manifest: %w", err)
	}
	return nil
}

func writeProviderStub(path, pkg, id string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("portalctl: provider stub %s already exists (use --overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("portalctl: mkdir provider dir: %w", err)
	}
	name := strcase.ToPascal(id)
	content := fmt.Sprintf(`package %s

import (
	"context"

	"github.com/goliatone/go-portal/components/portal"
)

// New%[2]sProvider serves data for the %[3]s widget.
func New%[2]sProvider() portal.Provider {
	return portal.ProviderFunc(func(ctx context.Context, meta portal.WidgetContext) (portal.WidgetData, error) {
		return portal.WidgetData{
			"title": meta.Meta.NameForLocale(meta.Viewer.Locale),
		}, nil
	})
}

// Register%[2]s adds the provider to a registry.
func Register%[2]s(providers *portal.Providers) error {
	return providers.Register(%[3]q, New%[2]sProvider())
}
`, pkg, name, id)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("portalctl: write provider stub: %w", err)
	}
	return nil
}
