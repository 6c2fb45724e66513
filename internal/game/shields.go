package game

import (
	"fmt"

	"github.com/holotable/arena/internal/models"
)

// zoneFor resolves the shield zone an attack strikes. An empty name picks
// the first declared zone; a name that does not exist on the target is a
// configuration error, never a silent no-op. A target with no zones at all
// resolves to nil and absorbs nothing.
func zoneFor(c *models.Combatant, name string) (*models.ShieldZone, error) {
	if name == "" {
		if len(c.Zones) == 0 {
			return nil, nil
		}
		return c.Zones[0], nil
	}
	z := c.Zone(name)
	if z == nil {
		return nil, fmt.Errorf("%w: %q on %s", ErrUnknownZone, name, c.ID)
	}
	return z, nil
}

// absorbIntoZone reduces incoming damage by the zone's remaining capacity
// and proposes the capacity drop on the plan. Capacity never goes negative.
func absorbIntoZone(plan *models.MutationPlan, zone *models.ShieldZone, incoming int) (absorbed, remaining int) {
	if zone == nil || zone.Current <= 0 || incoming <= 0 {
		return 0, incoming
	}
	absorbed = incoming
	if absorbed > zone.Current {
		absorbed = zone.Current
	}
	plan.SetZone(zone.Name, zone.Current-absorbed)
	return absorbed, incoming - absorbed
}
