package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

//go:embed cards.yaml
var defaultFiles embed.FS

// Card is immutable reference data for one catalog entry.
type Card struct {
	ID           string `yaml:"id" json:"id"`
	Name         string `yaml:"name" json:"name"`
	HP           int    `yaml:"hp" json:"hp"`
	AttackName   string `yaml:"attack_name" json:"attack_name"`
	AttackDamage int    `yaml:"attack_damage" json:"attack_damage"`
	Rarity       string `yaml:"rarity" json:"rarity"`
}

// Catalog holds the loaded card set, keyed by id. Read-only after New.
type Catalog struct {
	byID    map[string]Card
	ordered []Card
}

// New loads the embedded default catalog; overridePath, when non-empty,
// replaces it entirely with a YAML file of the same shape.
func New(overridePath string) (*Catalog, error) {
	raw, err := fs.ReadFile(defaultFiles, "cards.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded catalog: %w", err)
	}
	if strings.TrimSpace(overridePath) != "" {
		raw, err = os.ReadFile(overridePath)
		if err != nil {
			return nil, fmt.Errorf("read catalog override: %w", err)
		}
	}
	return parse(raw)
}

func parse(raw []byte) (*Catalog, error) {
	var doc struct {
		Cards []Card `yaml:"cards"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(doc.Cards) == 0 {
		return nil, fmt.Errorf("catalog has no cards")
	}
	c := &Catalog{byID: make(map[string]Card, len(doc.Cards))}
	for _, card := range doc.Cards {
		card.ID = strings.TrimSpace(card.ID)
		if card.ID == "" {
			return nil, fmt.Errorf("catalog card %q missing id", card.Name)
		}
		if _, dup := c.byID[card.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog card id %q", card.ID)
		}
		if card.HP <= 0 || card.AttackDamage <= 0 {
			return nil, fmt.Errorf("catalog card %q has non-positive hp or damage", card.ID)
		}
		c.byID[card.ID] = card
		c.ordered = append(c.ordered, card)
	}
	return c, nil
}

// Get returns the card for id.
func (c *Catalog) Get(id string) (Card, bool) {
	card, ok := c.byID[strings.TrimSpace(id)]
	return card, ok
}

// Cards returns all cards in file order.
func (c *Catalog) Cards() []Card {
	out := make([]Card, len(c.ordered))
	copy(out, c.ordered)
	return out
}
