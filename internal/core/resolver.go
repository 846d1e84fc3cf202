package core

import "metacore/pkg/domain"

// TypeResolver answers "what is this id" questions against the shared node
// index. All categories live in one identifier space, so resolution is a
// single lookup rather than a probe per category.
type TypeResolver struct{}

// Resolve maps an id to its category, or ErrNotFound when no live node
// carries the id.
func (TypeResolver) Resolve(view domain.TransactionView, id string) (domain.Category, error) {
	cat, ok := view.ResolveCategory(id)
	if !ok {
		return "", domain.ErrNotFound{ID: id}
	}
	return cat, nil
}

// ResolveRef resolves an id to its display identity.
func (TypeResolver) ResolveRef(view domain.TransactionView, id string) (domain.NodeRef, error) {
	ref, ok := view.Ref(id)
	if !ok {
		return domain.NodeRef{}, domain.ErrNotFound{ID: id}
	}
	return ref, nil
}

// ResolveAs resolves an id and checks it against an expected category. A
// live node of a different category is reported as not found under the
// expected category, matching how lookups through typed finders behave.
func (r TypeResolver) ResolveAs(view domain.TransactionView, id string, want domain.Category) error {
	cat, err := r.Resolve(view, id)
	if err != nil {
		return domain.ErrNotFound{Category: want, ID: id}
	}
	if cat != want {
		return domain.ErrNotFound{Category: want, ID: id}
	}
	return nil
}
