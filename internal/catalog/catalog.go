// Package catalog serves the static reference data: consumable prices,
// properties and the cleaner directory.
package catalog

import (
	"crypto/subtle"
	"math"

	"cleaning-session-backend/config"
	"cleaning-session-backend/internal/model"
)

// Item is a consumable and its unit price.
type Item struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Catalog is read-only after construction and safe for concurrent use.
type Catalog struct {
	items      []Item
	itemIndex  map[string]Item
	properties []model.PropertySnapshot
	propIndex  map[string]model.PropertySnapshot
	cleaners   []config.Cleaner
	cleanIndex map[string]config.Cleaner
}

// New builds a catalog from configuration. Later duplicates of an id are ignored.
func New(cfg config.CatalogConfig) *Catalog {
	c := &Catalog{
		itemIndex:  make(map[string]Item),
		propIndex:  make(map[string]model.PropertySnapshot),
		cleanIndex: make(map[string]config.Cleaner),
	}
	for _, ci := range cfg.Consumables {
		if _, dup := c.itemIndex[ci.ID]; dup || ci.ID == "" {
			continue
		}
		item := Item{ID: ci.ID, Name: ci.Name, Price: ci.Price}
		c.items = append(c.items, item)
		c.itemIndex[ci.ID] = item
	}
	for _, p := range cfg.Properties {
		if _, dup := c.propIndex[p.ID]; dup || p.ID == "" {
			continue
		}
		snap := model.PropertySnapshot{ID: p.ID, RecordID: p.RecordID, Name: p.Name, Address: p.Address, Blocked: p.Blocked}
		c.properties = append(c.properties, snap)
		c.propIndex[p.ID] = snap
	}
	for _, cl := range cfg.Cleaners {
		if _, dup := c.cleanIndex[cl.ID]; dup || cl.ID == "" {
			continue
		}
		c.cleaners = append(c.cleaners, cl)
		c.cleanIndex[cl.ID] = cl
	}
	return c
}

// Items returns the consumables in configuration order.
func (c *Catalog) Items() []Item {
	return append([]Item(nil), c.items...)
}

// ItemIDs returns the consumable ids in configuration order.
func (c *Catalog) ItemIDs() []string {
	ids := make([]string, len(c.items))
	for i, it := range c.items {
		ids[i] = it.ID
	}
	return ids
}

func (c *Catalog) Item(id string) (Item, bool) {
	it, ok := c.itemIndex[id]
	return it, ok
}

// InitialConsumables returns every known item at quantity zero.
func (c *Catalog) InitialConsumables() map[string]int {
	m := make(map[string]int, len(c.items))
	for _, it := range c.items {
		m[it.ID] = 0
	}
	return m
}

// Cost is the display-only monetary total of a quantity map, rounded to cents.
// Unknown items count as zero.
func (c *Catalog) Cost(quantities map[string]int) float64 {
	var total float64
	for id, qty := range quantities {
		if it, ok := c.itemIndex[id]; ok && qty > 0 {
			total += it.Price * float64(qty)
		}
	}
	return math.Round(total*100) / 100
}

func (c *Catalog) Properties() []model.PropertySnapshot {
	return append([]model.PropertySnapshot(nil), c.properties...)
}

func (c *Catalog) Property(id string) (model.PropertySnapshot, bool) {
	p, ok := c.propIndex[id]
	return p, ok
}

// Cleaners returns display snapshots; PINs never leave the catalog.
func (c *Catalog) Cleaners() []model.CleanerSnapshot {
	out := make([]model.CleanerSnapshot, len(c.cleaners))
	for i, cl := range c.cleaners {
		out[i] = model.CleanerSnapshot{ID: cl.ID, Name: cl.Name}
	}
	return out
}

func (c *Catalog) Cleaner(id string) (model.CleanerSnapshot, bool) {
	cl, ok := c.cleanIndex[id]
	if !ok {
		return model.CleanerSnapshot{}, false
	}
	return model.CleanerSnapshot{ID: cl.ID, Name: cl.Name}, true
}

// Authenticate checks pin against the cleaner's configured PIN.
func (c *Catalog) Authenticate(cleanerID, pin string) (model.CleanerSnapshot, bool) {
	cl, ok := c.cleanIndex[cleanerID]
	if !ok || cl.PIN == "" {
		return model.CleanerSnapshot{}, false
	}
	if subtle.ConstantTimeCompare([]byte(cl.PIN), []byte(pin)) != 1 {
		return model.CleanerSnapshot{}, false
	}
	return model.CleanerSnapshot{ID: cl.ID, Name: cl.Name}, true
}
