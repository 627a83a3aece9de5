package missions

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/keyxmakerx/sproutfound/internal/plugins/credentials"
)

// Catalog is the immutable set of missions a board can draw from. Order is
// significant: filtered views always come back in catalog order.
type Catalog struct {
	missions []Mission
	index    map[string]int
}

// NewCatalog validates missions and builds a catalog. IDs must be unique
// and non-empty, goals and rewards positive. Missions without a progress
// function get the count/goal default.
func NewCatalog(missions []Mission) (*Catalog, error) {
	if len(missions) == 0 {
		return nil, fmt.Errorf("catalog has no missions")
	}

	c := &Catalog{
		missions: make([]Mission, 0, len(missions)),
		index:    make(map[string]int, len(missions)),
	}
	for _, m := range missions {
		m.ID = strings.TrimSpace(m.ID)
		if m.ID == "" {
			return nil, fmt.Errorf("mission %q: id is required", m.Title)
		}
		if _, dup := c.index[m.ID]; dup {
			return nil, fmt.Errorf("mission %q: duplicate id", m.ID)
		}
		if m.Goal <= 0 {
			return nil, fmt.Errorf("mission %q: goal must be positive", m.ID)
		}
		if m.Reward <= 0 {
			return nil, fmt.Errorf("mission %q: reward must be positive", m.ID)
		}
		if m.Progress == nil {
			m.Progress = CountProgress(m.ID, m.Goal)
		}
		c.index[m.ID] = len(c.missions)
		c.missions = append(c.missions, m)
	}
	return c, nil
}

// CountProgress returns the default progress function: the mission's event
// count divided by its goal.
func CountProgress(id string, goal int) ProgressFunc {
	return func(_ *credentials.UserData, progress ProgressMap) float64 {
		return float64(progress[id]) / float64(goal)
	}
}

// DefaultMissions returns the built-in mission set.
func DefaultMissions() []Mission {
	return []Mission{
		{ID: "five-transactions", Title: "Make 5 purchases", Goal: 5, Reward: 8},
		{ID: "redeem-sproutcoins", Title: "Redeem Sprout-Coins twice", Goal: 2, Reward: 6},
		{ID: "make-deposit", Title: "Make 2 deposits", Goal: 2, Reward: 6},
		{ID: "play-game", Title: "Play 3 games", Goal: 3, Reward: 5},
		{ID: "first-redeem", Title: "Redeem an investment", Goal: 1, Reward: 6},
		{ID: "two-deposits", Title: "Top up your balance twice", Goal: 2, Reward: 7},
		{ID: "buy-products", Title: "Make 2 purchases", Goal: 2, Reward: 8},
		{ID: "play-5-games", Title: "Play 5 games", Goal: 5, Reward: 10},
	}
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultMissions())
	if err != nil {
		panic(fmt.Sprintf("missions: invalid default catalog: %v", err))
	}
	return c
}

// catalogFile is the on-disk YAML layout.
type catalogFile struct {
	Missions []Mission `yaml:"missions"`
}

// LoadCatalogFile reads a YAML catalog:
//
//	missions:
//	  - id: play-game
//	    title: Play 3 games
//	    goal: 3
//	    reward: 5
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}

	c, err := NewCatalog(file.Missions)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// All returns every mission in catalog order.
func (c *Catalog) All() []Mission {
	out := make([]Mission, len(c.missions))
	copy(out, c.missions)
	return out
}

// Len returns the number of missions.
func (c *Catalog) Len() int {
	return len(c.missions)
}

// Get looks up a mission by ID.
func (c *Catalog) Get(id string) (Mission, bool) {
	i, ok := c.index[id]
	if !ok {
		return Mission{}, false
	}
	return c.missions[i], true
}

// Filter returns the missions whose IDs appear in ids, in catalog order.
// Unknown IDs are ignored.
func (c *Catalog) Filter(ids []string) []Mission {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	out := make([]Mission, 0, len(ids))
	for _, m := range c.missions {
		if want[m.ID] {
			out = append(out, m)
		}
	}
	return out
}

// Without returns the missions whose IDs do not appear in ids.
func (c *Catalog) Without(ids []string) []Mission {
	skip := make(map[string]bool, len(ids))
	for _, id := range ids {
		skip[id] = true
	}

	out := make([]Mission, 0, len(c.missions))
	for _, m := range c.missions {
		if !skip[m.ID] {
			out = append(out, m)
		}
	}
	return out
}

// ProgressOf evaluates a mission's progress, clamped to [0,1].
func ProgressOf(m Mission, user *credentials.UserData, progress ProgressMap) float64 {
	fn := m.Progress
	if fn == nil {
		fn = CountProgress(m.ID, m.Goal)
	}
	p := fn(user, progress)
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
