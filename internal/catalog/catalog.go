// Package catalog implements the shared tag-selection model used by every
// multi-value field: an ordered catalog of offerable values plus an ordered
// selection drawn from it. Values compare case-insensitively after trimming,
// and the catalog only ever grows.
package catalog

import "strings"

type Model struct {
	catalog   []string
	selection []string
}

// New builds a model from catalog options and an initial selection. Both are
// normalized: blank entries dropped, duplicates collapsed case-insensitively,
// first occurrence wins. Selected values missing from the catalog are added
// to it.
func New(options, selection []string) *Model {
	m := &Model{}
	for _, v := range options {
		v = strings.TrimSpace(v)
		if v == "" || m.inCatalog(v) {
			continue
		}
		m.catalog = append(m.catalog, v)
	}
	for _, v := range selection {
		m.Add(v)
	}
	return m
}

func norm(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func (m *Model) inCatalog(v string) bool {
	n := norm(v)
	for _, c := range m.catalog {
		if norm(c) == n {
			return true
		}
	}
	return false
}

// Selected reports whether v is currently selected.
func (m *Model) Selected(v string) bool {
	n := norm(v)
	for _, s := range m.selection {
		if norm(s) == n {
			return true
		}
	}
	return false
}

// Add trims v and appends it to the selection unless empty or already
// selected. Values unknown to the catalog are appended to it as well, so a
// created value is offered again after removal.
func (m *Model) Add(v string) {
	v = strings.TrimSpace(v)
	if v == "" || m.Selected(v) {
		return
	}
	m.selection = append(m.selection, v)
	if !m.inCatalog(v) {
		m.catalog = append(m.catalog, v)
	}
}

// Remove drops v from the selection. The catalog keeps the value.
func (m *Model) Remove(v string) {
	n := norm(v)
	out := m.selection[:0]
	for _, s := range m.selection {
		if norm(s) != n {
			out = append(out, s)
		}
	}
	m.selection = out
}

// Selection returns the selected values in selection order.
func (m *Model) Selection() []string {
	res := make([]string, len(m.selection))
	copy(res, m.selection)
	return res
}

// Catalog returns every offerable value in catalog order.
func (m *Model) Catalog() []string {
	res := make([]string, len(m.catalog))
	copy(res, m.catalog)
	return res
}

// Remaining returns catalog values not currently selected, narrowed by a
// case-insensitive substring query when non-empty.
func (m *Model) Remaining(query string) []string {
	q := norm(query)
	var res []string
	for _, c := range m.catalog {
		if m.Selected(c) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(c), q) {
			continue
		}
		res = append(res, c)
	}
	return res
}

// CanCreate reports whether query names a value absent from the catalog, i.e.
// whether the control should offer on-the-fly creation.
func (m *Model) CanCreate(query string) bool {
	query = strings.TrimSpace(query)
	return query != "" && !m.inCatalog(query)
}
