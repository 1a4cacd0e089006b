package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_EmbeddedCatalog(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cards := c.Cards()
	if len(cards) == 0 {
		t.Fatalf("embedded catalog is empty")
	}
	seen := map[string]bool{}
	for _, card := range cards {
		if seen[card.ID] {
			t.Fatalf("duplicate card id %q", card.ID)
		}
		seen[card.ID] = true
		if card.HP <= 0 || card.AttackDamage <= 0 {
			t.Fatalf("card %q has invalid stats: %+v", card.ID, card)
		}
	}
	got, ok := c.Get("emberling")
	if !ok {
		t.Fatalf("emberling missing from embedded catalog")
	}
	if got.HP != 50 || got.AttackDamage != 10 {
		t.Fatalf("emberling stats = hp%d/atk%d, want 50/10", got.HP, got.AttackDamage)
	}
	if _, ok := c.Get("no-such-card"); ok {
		t.Fatalf("unknown id must not resolve")
	}
}

func TestNew_OverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.yaml")
	body := "cards:\n  - id: solo\n    name: Solo\n    hp: 12\n    attack_name: Jab\n    attack_damage: 4\n    rarity: common\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	c, err := New(path)
	if err != nil {
		t.Fatalf("New with override: %v", err)
	}
	if len(c.Cards()) != 1 {
		t.Fatalf("override catalog size = %d, want 1", len(c.Cards()))
	}
	if _, ok := c.Get("emberling"); ok {
		t.Fatalf("override must replace the embedded set")
	}
}

func TestParse_RejectsInvalidCards(t *testing.T) {
	cases := map[string]string{
		"missing id":   "cards:\n  - name: NoID\n    hp: 10\n    attack_damage: 5\n",
		"zero hp":      "cards:\n  - id: x\n    name: X\n    hp: 0\n    attack_damage: 5\n",
		"duplicate id": "cards:\n  - id: x\n    name: X\n    hp: 10\n    attack_damage: 5\n  - id: x\n    name: Y\n    hp: 10\n    attack_damage: 5\n",
		"empty":        "cards: []\n",
	}
	for name, body := range cases {
		if _, err := parse([]byte(body)); err == nil {
			t.Fatalf("%s: expected parse error", name)
		}
	}
}
