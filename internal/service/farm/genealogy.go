package farm

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/herd/internal/apperr"
	"github.com/mamadbah2/herd/internal/domain/models"
)

// roleGender is the sex each ancestor slot must have.
var roleGender = map[string]models.Gender{
	"father":              models.GenderMale,
	"mother":              models.GenderFemale,
	"paternalGrandfather": models.GenderMale,
	"paternalGrandmother": models.GenderFemale,
	"maternalGrandfather": models.GenderMale,
	"maternalGrandmother": models.GenderFemale,
}

// referenceLocked resolves a weak animal id. Ids that no longer resolve keep
// the id with the unknown placeholder tag.
func (p *Provider) referenceLocked(id string) *models.ParentReference {
	if id == "" {
		return nil
	}
	a, ok := p.state.animals.get(id)
	if !ok {
		return &models.ParentReference{ID: id, Tag: models.UnknownTag}
	}
	return &models.ParentReference{ID: a.ID, Tag: a.Tag, Name: a.Name}
}

func (p *Provider) genealogyViewLocked(g models.Genealogy) models.GenealogyView {
	return models.GenealogyView{
		AnimalID:            g.AnimalID,
		Father:              p.referenceLocked(g.FatherID),
		Mother:              p.referenceLocked(g.MotherID),
		PaternalGrandfather: p.referenceLocked(g.PaternalGrandfatherID),
		PaternalGrandmother: p.referenceLocked(g.PaternalGrandmotherID),
		MaternalGrandfather: p.referenceLocked(g.MaternalGrandfatherID),
		MaternalGrandmother: p.referenceLocked(g.MaternalGrandmotherID),
		UpdatedAt:           g.UpdatedAt,
		UpdatedBy:           g.UpdatedBy,
	}
}

// Genealogy returns the resolved ancestry of an animal. An animal without a
// genealogy document gets an empty view.
func (p *Provider) Genealogy(animalID string) (models.GenealogyView, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if _, ok := p.state.animals.get(animalID); !ok {
		return models.GenealogyView{}, apperr.NotFound("animal", animalID)
	}
	g, ok := p.state.genealogy[animalID]
	if !ok {
		return models.GenealogyView{AnimalID: animalID}, nil
	}
	return p.genealogyViewLocked(g), nil
}

// validateGenealogy trims every reference in place and checks it.
func (p *Provider) validateGenealogy(st *state, g *models.Genealogy) error {
	f := fieldErrors{}
	for role, ref := range g.Refs() {
		id := strings.TrimSpace(*ref)
		*ref = id
		if id == "" {
			continue
		}
		ancestor, ok := st.animals.get(id)
		f.check(ok, role, "animal does not exist")
		f.check(id != g.AnimalID, role, "an animal cannot be its own ancestor")
		if ok && ancestor.Gender != "" {
			f.check(ancestor.Gender == roleGender[role], role, "ancestor has the wrong gender for this role")
		}
	}
	return f.err("invalid genealogy")
}

// SaveGenealogy replaces the genealogy document of an animal.
func (p *Provider) SaveGenealogy(ctx context.Context, g models.Genealogy, updatedBy string) (models.GenealogyView, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if _, ok := p.state.animals.get(g.AnimalID); !ok {
		return models.GenealogyView{}, apperr.NotFound("animal", g.AnimalID)
	}
	if err := p.validateGenealogy(p.state, &g); err != nil {
		return models.GenealogyView{}, err
	}
	g.UpdatedAt = p.clock.Now()
	g.UpdatedBy = updatedBy

	saved, err := p.store.UpsertGenealogy(ctx, g)
	if err := p.written("genealogy", "save", err); err != nil {
		return models.GenealogyView{}, err
	}

	var view models.GenealogyView
	p.commit(func(st *state) {
		st.genealogy[saved.AnimalID] = saved
		view = p.genealogyViewLocked(saved)
	})
	return view, nil
}

// DeleteGenealogy removes the genealogy document of an animal.
func (p *Provider) DeleteGenealogy(ctx context.Context, animalID string) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if _, ok := p.state.genealogy[animalID]; !ok {
		return apperr.NotFound("genealogy", animalID)
	}

	err := p.store.DeleteGenealogy(ctx, animalID)
	if err := p.written("genealogy", "delete", err); err != nil {
		return err
	}

	p.commit(func(st *state) { delete(st.genealogy, animalID) })
	return nil
}

// MigrationResult counts what MigrateLegacyParents did.
type MigrationResult struct {
	Migrated   int `json:"migrated"`
	Skipped    int `json:"skipped"`
	Unresolved int `json:"unresolved"`
}

// legacyRefs maps the legacy parentInfo block onto genealogy roles.
func legacyRefs(info *models.ParentInfo) map[string]*models.ParentReference {
	return map[string]*models.ParentReference{
		"father":              info.Father,
		"mother":              info.Mother,
		"paternalGrandfather": info.PaternalGrandfather,
		"paternalGrandmother": info.PaternalGrandmother,
		"maternalGrandfather": info.MaternalGrandfather,
		"maternalGrandmother": info.MaternalGrandmother,
	}
}

// resolveLegacy matches a legacy reference by id, then by tag.
func resolveLegacy(st *state, ref *models.ParentReference) (string, bool) {
	if ref.IsZero() {
		return "", false
	}
	if ref.ID != "" {
		if _, ok := st.animals.get(ref.ID); ok {
			return ref.ID, true
		}
	}
	if ref.Tag != "" {
		if a, ok := st.animalByTag(ref.Tag); ok {
			return a.ID, true
		}
	}
	return "", false
}

// MigrateLegacyParents converts each animal's legacy parentInfo into a
// genealogy document when the animal has none yet. References that match no
// animal are dropped and counted as unresolved.
func (p *Provider) MigrateLegacyParents(ctx context.Context, updatedBy string) (MigrationResult, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	var result MigrationResult
	for _, a := range p.state.animals.list() {
		if a.ParentInfo == nil {
			continue
		}
		if _, exists := p.state.genealogy[a.ID]; exists {
			result.Skipped++
			continue
		}

		g := models.Genealogy{AnimalID: a.ID}
		slots := g.Refs()
		for role, ref := range legacyRefs(a.ParentInfo) {
			if ref.IsZero() {
				continue
			}
			id, ok := resolveLegacy(p.state, ref)
			if !ok || id == a.ID {
				result.Unresolved++
				continue
			}
			*slots[role] = id
		}
		if g.Empty() {
			result.Skipped++
			continue
		}
		g.UpdatedAt = p.clock.Now()
		g.UpdatedBy = updatedBy

		saved, err := p.store.UpsertGenealogy(ctx, g)
		if err := p.written("genealogy", "migrate", err); err != nil {
			return result, err
		}
		p.commit(func(st *state) { st.genealogy[saved.AnimalID] = saved })
		result.Migrated++
	}

	p.logger.Info("legacy parent info migrated",
		zap.Int("migrated", result.Migrated),
		zap.Int("skipped", result.Skipped),
		zap.Int("unresolved", result.Unresolved))
	return result, nil
}
