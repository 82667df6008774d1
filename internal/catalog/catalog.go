// Package catalog caches the user's exercise menu definitions and the global
// body-part groupings, and routes menu mutations to the right catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/claude/trainlog/internal/api"
	"github.com/claude/trainlog/internal/models"
)

var (
	// ErrEmptyName rejects create/rename with a blank menu name.
	ErrEmptyName = errors.New("menu name must not be empty")
	// ErrMenuNotFound rejects rename/delete of an id absent from both catalogs.
	ErrMenuNotFound = errors.New("menu not found")
)

// Category filter values beyond the body-part names.
const (
	CategoryAll    = "all"
	CategoryCardio = "cardio"
)

// Client is the slice of the REST client the catalog needs.
type Client interface {
	ListMenus(ctx context.Context, userID string) ([]models.MenuDefinition, error)
	ListCardioMenus(ctx context.Context, userID string) ([]models.CardioMenuDefinition, error)
	CreateMenu(ctx context.Context, userID string, req models.CreateMenuRequest) error
	CreateCardioMenu(ctx context.Context, userID string, req models.CreateMenuRequest) error
	RenameMenu(ctx context.Context, userID, menuID, name string) error
	RenameCardioMenu(ctx context.Context, userID, menuID, name string) error
	DeleteMenu(ctx context.Context, userID, menuID string) error
	DeleteCardioMenu(ctx context.Context, userID, menuID string) error
	Bodyparts(ctx context.Context) (map[string]string, error)
}

// Compile-time check: *api.Client satisfies Client.
var _ Client = (*api.Client)(nil)

// Item is one row of the merged catalog view. Cardio distinguishes which
// catalog the row came from; Bodypart is empty for cardio rows.
type Item struct {
	PubID    string
	Name     string
	Cardio   bool
	Bodypart string
}

// Catalog holds both menu catalogs and the body-part map. Rename and delete
// patch the cached state in place on success; only Refresh and Create go back
// to the server for the lists.
type Catalog struct {
	mu        sync.Mutex
	client    Client
	userID    string
	log       *slog.Logger
	menus     []models.MenuDefinition
	cardio    []models.CardioMenuDefinition
	bodyparts map[string]string
}

// New creates a Catalog for one user.
func New(client Client, userID string, log *slog.Logger) *Catalog {
	return &Catalog{client: client, userID: userID, log: log, bodyparts: map[string]string{}}
}

// Refresh re-fetches both catalogs and the body-part map, replacing the
// cached state wholesale.
func (c *Catalog) Refresh(ctx context.Context) error {
	menus, err := c.client.ListMenus(ctx, c.userID)
	if err != nil {
		return fmt.Errorf("refreshing menus: %w", err)
	}
	cardio, err := c.client.ListCardioMenus(ctx, c.userID)
	if err != nil {
		return fmt.Errorf("refreshing cardio menus: %w", err)
	}
	parts, err := c.client.Bodyparts(ctx)
	if err != nil {
		return fmt.Errorf("refreshing bodyparts: %w", err)
	}

	c.mu.Lock()
	c.menus = menus
	c.cardio = cardio
	c.bodyparts = parts
	c.mu.Unlock()

	c.log.Debug("catalog refreshed", "menus", len(menus), "cardio", len(cardio))
	return nil
}

// Menus returns a copy of the strength catalog.
func (c *Catalog) Menus() []models.MenuDefinition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.MenuDefinition(nil), c.menus...)
}

// CardioMenus returns a copy of the cardio catalog.
func (c *Catalog) CardioMenus() []models.CardioMenuDefinition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.CardioMenuDefinition(nil), c.cardio...)
}

// IsCardio reports whether the id belongs to the cardio catalog. Mutations
// dispatch on this membership test rather than carrying a type tag around.
func (c *Catalog) IsCardio(menuID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isCardioLocked(menuID)
}

func (c *Catalog) isCardioLocked(menuID string) bool {
	for _, m := range c.cardio {
		if m.PubID == menuID {
			return true
		}
	}
	return false
}

func (c *Catalog) isStrengthLocked(menuID string) bool {
	for _, m := range c.menus {
		if m.PubID == menuID {
			return true
		}
	}
	return false
}

// Filter returns the catalog rows matching a category: CategoryAll merges
// both catalogs (strength first), CategoryCardio returns cardio only, and any
// other value selects strength menus whose body-part name matches.
func (c *Catalog) Filter(category string) []Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	var items []Item
	appendStrength := func(m models.MenuDefinition) {
		item := Item{PubID: m.PubID, Name: m.Name}
		if m.Bodypart != nil {
			item.Bodypart = m.Bodypart.Name
		}
		items = append(items, item)
	}

	switch category {
	case CategoryAll:
		for _, m := range c.menus {
			appendStrength(m)
		}
		for _, m := range c.cardio {
			items = append(items, Item{PubID: m.PubID, Name: m.Name, Cardio: true})
		}
	case CategoryCardio:
		for _, m := range c.cardio {
			items = append(items, Item{PubID: m.PubID, Name: m.Name, Cardio: true})
		}
	default:
		for _, m := range c.menus {
			if m.Bodypart != nil && m.Bodypart.Name == category {
				appendStrength(m)
			}
		}
	}
	return items
}

// CategoryOptions returns the filter choices: all, cardio, then the body-part
// names in a stable order.
func (c *Catalog) CategoryOptions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.bodyparts))
	for _, name := range c.bodyparts {
		names = append(names, name)
	}
	sort.Strings(names)
	return append([]string{CategoryAll, CategoryCardio}, names...)
}

// BodypartName resolves a body-part id to its display name.
func (c *Catalog) BodypartName(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name, ok := c.bodyparts[id]
	return name, ok
}

// Create adds a menu to the catalog named by cardio. The body-part id only
// applies to strength menus; the server assigns the id, so the affected
// catalog is re-fetched afterwards.
func (c *Catalog) Create(ctx context.Context, name, bodypartID string, cardio bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	req := models.CreateMenuRequest{Name: name}
	if cardio {
		if err := c.client.CreateCardioMenu(ctx, c.userID, req); err != nil {
			return fmt.Errorf("creating cardio menu: %w", err)
		}
		menus, err := c.client.ListCardioMenus(ctx, c.userID)
		if err != nil {
			return fmt.Errorf("refreshing cardio menus: %w", err)
		}
		c.mu.Lock()
		c.cardio = menus
		c.mu.Unlock()
	} else {
		if bodypartID != "" {
			req.Bodypart = &models.MenuRef{PubID: bodypartID}
		}
		if err := c.client.CreateMenu(ctx, c.userID, req); err != nil {
			return fmt.Errorf("creating menu: %w", err)
		}
		menus, err := c.client.ListMenus(ctx, c.userID)
		if err != nil {
			return fmt.Errorf("refreshing menus: %w", err)
		}
		c.mu.Lock()
		c.menus = menus
		c.mu.Unlock()
	}

	c.log.Info("menu created", "name", name, "cardio", cardio)
	return nil
}

// Rename changes a menu's name in whichever catalog holds it, then patches
// the cached entry in place.
func (c *Catalog) Rename(ctx context.Context, menuID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	c.mu.Lock()
	cardio := c.isCardioLocked(menuID)
	known := cardio || c.isStrengthLocked(menuID)
	c.mu.Unlock()
	if !known {
		return ErrMenuNotFound
	}

	if cardio {
		if err := c.client.RenameCardioMenu(ctx, c.userID, menuID, name); err != nil {
			return fmt.Errorf("renaming cardio menu: %w", err)
		}
	} else {
		if err := c.client.RenameMenu(ctx, c.userID, menuID, name); err != nil {
			return fmt.Errorf("renaming menu: %w", err)
		}
	}

	c.mu.Lock()
	if cardio {
		for i := range c.cardio {
			if c.cardio[i].PubID == menuID {
				c.cardio[i].Name = name
			}
		}
	} else {
		for i := range c.menus {
			if c.menus[i].PubID == menuID {
				c.menus[i].Name = name
			}
		}
	}
	c.mu.Unlock()

	c.log.Info("menu renamed", "menu", menuID, "cardio", cardio)
	return nil
}

// Delete removes a menu from whichever catalog holds it, then drops the
// cached entry. Historical session records keep their snapshotted menu names.
func (c *Catalog) Delete(ctx context.Context, menuID string) error {
	c.mu.Lock()
	cardio := c.isCardioLocked(menuID)
	known := cardio || c.isStrengthLocked(menuID)
	c.mu.Unlock()
	if !known {
		return ErrMenuNotFound
	}

	if cardio {
		if err := c.client.DeleteCardioMenu(ctx, c.userID, menuID); err != nil {
			return fmt.Errorf("deleting cardio menu: %w", err)
		}
	} else {
		if err := c.client.DeleteMenu(ctx, c.userID, menuID); err != nil {
			return fmt.Errorf("deleting menu: %w", err)
		}
	}

	c.mu.Lock()
	if cardio {
		kept := c.cardio[:0]
		for _, m := range c.cardio {
			if m.PubID != menuID {
				kept = append(kept, m)
			}
		}
		c.cardio = kept
	} else {
		kept := c.menus[:0]
		for _, m := range c.menus {
			if m.PubID != menuID {
				kept = append(kept, m)
			}
		}
		c.menus = kept
	}
	c.mu.Unlock()

	c.log.Info("menu deleted", "menu", menuID, "cardio", cardio)
	return nil
}
