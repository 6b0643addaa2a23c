package store

type entity interface {
	EntityID() string
}

// Collections are never modified in place. Every helper returns a new slice
// so that States handed out earlier stay intact.

func prepend[T any](list []T, item T) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, item)
	return append(out, list...)
}

func indexOf[T entity](list []T, id string) int {
	for i, item := range list {
		if item.EntityID() == id {
			return i
		}
	}
	return -1
}

// patchOne applies fn to the first item with id. It reports false when there
// is no such item.
func patchOne[T entity](list []T, id string, fn func(T) (T, error)) ([]T, bool, error) {
	i := indexOf(list, id)
	if i < 0 {
		return list, false, nil
	}
	next, err := fn(list[i])
	if err != nil {
		return list, false, err
	}
	out := make([]T, len(list))
	copy(out, list)
	out[i] = next
	return out, true, nil
}

func removeID[T entity](list []T, id string) ([]T, bool) {
	if indexOf(list, id) < 0 {
		return list, false
	}
	out := make([]T, 0, len(list)-1)
	for _, item := range list {
		if item.EntityID() != id {
			out = append(out, item)
		}
	}
	return out, true
}

func replaceAll[T any](list []T) []T {
	out := make([]T, len(list))
	copy(out, list)
	return out
}

func head[T any](list []T, n int) []T {
	if len(list) <= n {
		return list
	}
	return list[:n]
}
