package core

// Partition is the outcome of comparing a desired collection against the
// currently linked collection. Added elements come from the desired side,
// Removed elements from the current side, and Modified elements carry the
// desired values for keys present on both sides. A Modified element is not
// proof of a value change: retained elements are always re-applied so that
// edge attributes and nested collections converge.
type Partition[T any] struct {
	Added    []T
	Modified []T
	Removed  []T
}

// Diff partitions desired against current by key. Elements with an empty
// key are always additions. Input order is preserved within each bucket.
// Duplicate keys are not collapsed; callers reject them before diffing.
func Diff[T any](current, desired []T, key func(T) string) Partition[T] {
	currentKeys := make(map[string]struct{}, len(current))
	for _, c := range current {
		if k := key(c); k != "" {
			currentKeys[k] = struct{}{}
		}
	}
	var part Partition[T]
	desiredKeys := make(map[string]struct{}, len(desired))
	for _, d := range desired {
		k := key(d)
		if k != "" {
			desiredKeys[k] = struct{}{}
		}
		if k == "" {
			part.Added = append(part.Added, d)
			continue
		}
		if _, ok := currentKeys[k]; ok {
			part.Modified = append(part.Modified, d)
		} else {
			part.Added = append(part.Added, d)
		}
	}
	for _, c := range current {
		if _, ok := desiredKeys[key(c)]; !ok {
			part.Removed = append(part.Removed, c)
		}
	}
	return part
}
