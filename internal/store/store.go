// Package store persists combatant documents and the mutation authority's
// field-level updates in SQLite.
package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/holotable/arena/internal/models"
)

// MemoryDSN opens a shared in-memory database, used by tests and
// persistence-free play.
const MemoryDSN = "file::memory:?cache=shared"

// CombatantDoc is the stored JSON document for one combatant.
type CombatantDoc struct {
	ID        string `gorm:"primaryKey"`
	Doc       string
	UpdatedAt time.Time
}

// FieldUpdate is one audit row per field change the authority committed.
type FieldUpdate struct {
	ID          uint   `gorm:"primaryKey"`
	CombatantID string `gorm:"index"`
	Path        string
	Value       string
	CreatedAt   time.Time
}

// Store implements the resolver's persistence collaborator over SQLite.
type Store struct {
	db *gorm.DB
}

// Open connects and migrates. An empty path opens an in-memory database.
func Open(path string) (*Store, error) {
	if path == "" {
		path = MemoryDSN
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := db.AutoMigrate(&CombatantDoc{}, &FieldUpdate{}); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return &Store{db: db}, nil
}

// UpdateFields records the authority's dotted-path updates in one
// transaction. Paths are written in sorted order so the audit trail is
// deterministic.
func (s *Store) UpdateFields(combatantID string, updates map[string]any) error {
	paths := make([]string, 0, len(updates))
	for p := range updates {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	rows := make([]FieldUpdate, 0, len(paths))
	for _, p := range paths {
		raw, err := json.Marshal(updates[p])
		if err != nil {
			return fmt.Errorf("encode update %s: %w", p, err)
		}
		rows = append(rows, FieldUpdate{CombatantID: combatantID, Path: p, Value: string(raw)})
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
}

// SaveCombatant upserts the full combatant document.
func (s *Store) SaveCombatant(c *models.Combatant) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode combatant %s: %w", c.ID, err)
	}
	doc := CombatantDoc{ID: c.ID, Doc: string(raw)}
	return s.db.Save(&doc).Error
}

// LoadCombatant reads a combatant document back out.
func (s *Store) LoadCombatant(id string) (*models.Combatant, error) {
	var doc CombatantDoc
	if err := s.db.First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	var c models.Combatant
	if err := json.Unmarshal([]byte(doc.Doc), &c); err != nil {
		return nil, fmt.Errorf("decode combatant %s: %w", id, err)
	}
	c.Recalculate()
	return &c, nil
}

// History returns the committed field updates for a combatant, oldest
// first.
func (s *Store) History(combatantID string) ([]FieldUpdate, error) {
	var rows []FieldUpdate
	err := s.db.Where("combatant_id = ?", combatantID).Order("id asc").Find(&rows).Error
	return rows, err
}
