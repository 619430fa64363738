package filter

import (
	"sync"

	"github.com/RigelNana/vitalicio/models"
)

// Source is the read side of the catalog a View follows.
type Source interface {
	Items() []models.Material
	Subscribe(func()) (unsubscribe func())
}

// View keeps the filtered list current: it recomputes whenever the source
// changes or one of the criteria is set.
type View struct {
	src Source

	// calc serializes recomputes so a slow one never lands after a newer one.
	calc sync.Mutex

	mu       sync.RWMutex
	criteria Criteria
	visible  []models.Material

	unsubscribe func()
}

func NewView(src Source) *View {
	v := &View{
		src:      src,
		criteria: Criteria{Category: AllCategories, Tab: AllTypes},
	}
	v.recompute()
	v.unsubscribe = src.Subscribe(v.recompute)
	return v
}

func (v *View) Visible() []models.Material {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]models.Material{}, v.visible...)
}

func (v *View) Criteria() Criteria {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.criteria
}

func (v *View) SetSearch(s string) {
	v.update(func(c *Criteria) { c.Search = s })
}

func (v *View) SetCategory(category string) {
	v.update(func(c *Criteria) { c.Category = category })
}

func (v *View) SetTab(tab string) {
	v.update(func(c *Criteria) { c.Tab = tab })
}

func (v *View) Close() {
	if v.unsubscribe != nil {
		v.unsubscribe()
	}
}

func (v *View) update(fn func(*Criteria)) {
	v.mu.Lock()
	prev := v.criteria
	fn(&v.criteria)
	changed := prev != v.criteria
	v.mu.Unlock()

	if changed {
		v.recompute()
	}
}

func (v *View) recompute() {
	v.calc.Lock()
	defer v.calc.Unlock()
	items := v.src.Items()

	v.mu.Lock()
	defer v.mu.Unlock()
	v.visible = Apply(items, v.criteria)
}
