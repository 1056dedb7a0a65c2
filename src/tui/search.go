package tui

import (
	"strings"
)

// applyFilter filters items by destination filter and search query
func (m *MainModel) applyFilter() {
	filter := m.header.GetFilter()

	// 1. Filter by destination
	var filtered []Item
	if filter == AllDestinations {
		filtered = m.items
	} else {
		for _, item := range m.items {
			if item.Flow.Destination == filter {
				filtered = append(filtered, item)
			}
		}
	}

	// 2. Filter by search query
	if m.searchQuery != "" {
		query := strings.ToLower(m.searchQuery)
		var searchFiltered []Item
		for _, item := range filtered {
			if matchesQuery(item, query) {
				searchFiltered = append(searchFiltered, item)
			}
		}
		filtered = searchFiltered
	}

	m.listView.SetItems(filtered)
	m.refreshDetail()
}

// matchesQuery searches flow name, stub, destination and contract names.
func matchesQuery(item Item, query string) bool {
	f := item.Flow
	for _, field := range []string{f.Name, f.Stub, f.Destination} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	for _, c := range f.Contracts {
		if strings.Contains(strings.ToLower(c.Name), query) {
			return true
		}
	}
	return false
}
