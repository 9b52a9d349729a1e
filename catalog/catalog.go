// Package catalog holds the static farm price lists. The catalog is loaded
// once at startup and is read-only afterwards.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"plombir/models"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is an immutable lookup of purchasable farm goods
type Catalog struct {
	animals         map[string]models.Animal
	animalOrder     []string
	protection      map[string]models.ProtectionItem
	protectionOrder []string
}

type catalogFile struct {
	Animals    []models.Animal         `yaml:"animals"`
	Protection []models.ProtectionItem `yaml:"protection"`
}

// Default returns the catalog compiled into the binary
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from path, falling back to the embedded one when path is empty
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a catalog from YAML and validates every entry
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{
		animals:    make(map[string]models.Animal, len(file.Animals)),
		protection: make(map[string]models.ProtectionItem, len(file.Protection)),
	}

	for _, a := range file.Animals {
		if a.Key == "" {
			return nil, fmt.Errorf("animal entry without key")
		}
		if a.Price <= 0 {
			return nil, fmt.Errorf("animal %s must have a positive price", a.Key)
		}
		if _, dup := c.animals[a.Key]; dup {
			return nil, fmt.Errorf("duplicate animal key %s", a.Key)
		}
		c.animals[a.Key] = a
		c.animalOrder = append(c.animalOrder, a.Key)
	}

	for _, p := range file.Protection {
		if p.Key == "" {
			return nil, fmt.Errorf("protection entry without key")
		}
		if p.Price <= 0 {
			return nil, fmt.Errorf("protection item %s must have a positive price", p.Key)
		}
		if _, dup := c.protection[p.Key]; dup {
			return nil, fmt.Errorf("duplicate protection key %s", p.Key)
		}
		c.protection[p.Key] = p
		c.protectionOrder = append(c.protectionOrder, p.Key)
	}

	return c, nil
}

// Animal looks up an animal by key
func (c *Catalog) Animal(key string) (models.Animal, bool) {
	a, ok := c.animals[key]
	return a, ok
}

// ProtectionItem looks up a protection item by key
func (c *Catalog) ProtectionItem(key string) (models.ProtectionItem, bool) {
	p, ok := c.protection[key]
	return p, ok
}

// Animals returns all animals in catalog order
func (c *Catalog) Animals() []models.Animal {
	out := make([]models.Animal, 0, len(c.animalOrder))
	for _, key := range c.animalOrder {
		out = append(out, c.animals[key])
	}
	return out
}

// ProtectionItems returns all protection items in catalog order
func (c *Catalog) ProtectionItems() []models.ProtectionItem {
	out := make([]models.ProtectionItem, 0, len(c.protectionOrder))
	for _, key := range c.protectionOrder {
		out = append(out, c.protection[key])
	}
	return out
}
