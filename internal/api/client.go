// Package api is the HTTP client for the arena content service. The duel
// server uses it to pull templates when it is not reading content files
// directly.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/holotable/arena/internal/content"
	"github.com/holotable/arena/internal/models"
)

var httpClient = &http.Client{Timeout: 8 * time.Second}

// Weapon templates change rarely, cache the full list to cut redundant calls.
var (
	weaponCache      []content.WeaponTemplate
	weaponCacheTime  time.Time
	weaponCacheTTL   = 5 * time.Minute
	weaponCacheMutex sync.RWMutex
)

// Config holds client configuration.
type Config struct {
	BaseURL string
}

type Client struct {
	config Config
}

func NewClient(baseURL string) *Client {
	return &Client{
		config: Config{BaseURL: baseURL},
	}
}

func (c *Client) apiGet(path string, out any) error {
	base := strings.TrimRight(c.config.BaseURL, "/")
	url := base + path
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	req.Header.Set("Accept", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return fmt.Errorf("api status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// FetchCombatants lists combatant templates. Kind is "character", "droid"
// or "vehicle"; empty lists everything.
func (c *Client) FetchCombatants(kind string) ([]content.CombatantTemplate, error) {
	path := "/api/combatants"
	if kind != "" {
		path += "?kind=" + kind
	}
	var res []content.CombatantTemplate
	if err := c.apiGet(path, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// FetchCombatant fetches one combatant template by id.
func (c *Client) FetchCombatant(id string) (*content.CombatantTemplate, error) {
	var res content.CombatantTemplate
	if err := c.apiGet("/api/combatants/"+id, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// FetchWeapons lists all weapon templates, cached.
func (c *Client) FetchWeapons() ([]content.WeaponTemplate, error) {
	weaponCacheMutex.RLock()
	if time.Since(weaponCacheTime) < weaponCacheTTL && len(weaponCache) > 0 {
		result := make([]content.WeaponTemplate, len(weaponCache))
		copy(result, weaponCache)
		weaponCacheMutex.RUnlock()
		return result, nil
	}
	weaponCacheMutex.RUnlock()

	var res []content.WeaponTemplate
	if err := c.apiGet("/api/weapons", &res); err != nil {
		return nil, err
	}

	weaponCacheMutex.Lock()
	weaponCache = make([]content.WeaponTemplate, len(res))
	copy(weaponCache, res)
	weaponCacheTime = time.Now()
	weaponCacheMutex.Unlock()

	return res, nil
}

// Weapon fetches a weapon template and builds a combat-ready weapon.
func (c *Client) Weapon(id string) (*models.Weapon, error) {
	list, err := c.FetchWeapons()
	if err != nil {
		return nil, err
	}
	for _, t := range list {
		if t.ID == id {
			return &models.Weapon{
				Name:           t.Name,
				Class:          models.WeaponClass(t.Class),
				AttackBonus:    t.AttackBonus,
				Damage:         t.Damage,
				Mount:          t.Mount,
				IgnoresShields: t.IgnoresShields,
				NoThreshold:    t.NoThreshold,
			}, nil
		}
	}
	return nil, fmt.Errorf("weapon %q not found", id)
}

// Instantiate fetches a combatant template and builds a fresh combatant
// from it.
func (c *Client) Instantiate(id string) (*models.Combatant, error) {
	t, err := c.FetchCombatant(id)
	if err != nil {
		return nil, err
	}
	return content.Instantiate(*t), nil
}

// ResetCache clears the weapon cache. Used by tests.
func ResetCache() {
	weaponCacheMutex.Lock()
	weaponCache = nil
	weaponCacheTime = time.Time{}
	weaponCacheMutex.Unlock()
}
