package repository

import (
	"sync"

	"variants-service/internal/models"
)

// IdentityMap keeps the definitions loaded during a job pass so they are read
// once. Jobs clear it when they start and after every flush.
type IdentityMap struct {
	mu       sync.RWMutex
	families map[string]*models.Family
	variants map[string]*models.FamilyVariant
}

// NewIdentityMap creates an empty identity map
func NewIdentityMap() *IdentityMap {
	m := &IdentityMap{}
	m.Clear()
	return m
}

func (m *IdentityMap) Family(code string) (*models.Family, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.families[code]
	return f, ok
}

func (m *IdentityMap) PutFamily(f *models.Family) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.families[f.Code] = f
}

func (m *IdentityMap) FamilyVariant(code string) (*models.FamilyVariant, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fv, ok := m.variants[code]
	return fv, ok
}

func (m *IdentityMap) PutFamilyVariant(fv *models.FamilyVariant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.variants[fv.Code] = fv
}

// Len returns the number of tracked entries
func (m *IdentityMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.families) + len(m.variants)
}

// Clear forgets everything
func (m *IdentityMap) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.families = make(map[string]*models.Family)
	m.variants = make(map[string]*models.FamilyVariant)
}
