package core

import (
	"fmt"
	"strings"

	"rwm/internal/domain"
)

// LoadOrder is the result of ordering installed mods by their declared
// dependencies
type LoadOrder struct {
	Mods []domain.Candidate // Dependencies before dependents
	// Missing maps a mod title to declared dependencies that are not
	// installed. DLCs and Core show up here as they never live in Mods.
	Missing map[string][]string
}

// SortLoadOrder orders mods so every dependency precedes the mods that need
// it. Among unrelated mods the input order is kept. Dependencies match a mod
// by workshop ID, title or package ID, ignoring case. Returns
// domain.ErrDependencyLoop naming the mods involved when the graph has a
// cycle.
func SortLoadOrder(mods []domain.Candidate) (*LoadOrder, error) {
	index := make(map[string]int, len(mods)*3)
	for i, m := range mods {
		if m.ID != 0 {
			index[m.IDString()] = i
		}
		if m.Title != "" {
			index[strings.ToLower(m.Title)] = i
		}
		if m.PackageID != "" {
			index[strings.ToLower(m.PackageID)] = i
		}
	}

	lookup := func(dep string) (int, bool) {
		dep = strings.TrimSpace(dep)
		if i, ok := index[dep]; ok {
			return i, true
		}
		i, ok := index[strings.ToLower(dep)]
		return i, ok
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(mods))
	order := &LoadOrder{Missing: make(map[string][]string)}
	var path []string

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: %s -> %s", domain.ErrDependencyLoop, strings.Join(path, " -> "), mods[i].Title)
		}

		state[i] = visiting
		path = append(path, mods[i].Title)
		for _, dep := range mods[i].Dependencies {
			j, ok := lookup(dep)
			if !ok {
				order.Missing[mods[i].Title] = append(order.Missing[mods[i].Title], dep)
				continue
			}
			if j == i {
				continue
			}
			if err := visit(j); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[i] = done
		order.Mods = append(order.Mods, mods[i])
		return nil
	}

	for i := range mods {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return order, nil
}
