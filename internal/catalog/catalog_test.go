package catalog

import (
	"reflect"
	"testing"
)

func TestAddTrimsAndDedupes(t *testing.T) {
	m := New([]string{"Casque", "Gants"}, nil)
	m.Add("  Harnais  ")
	m.Add("harnais")
	m.Add("HARNAIS")
	if got := m.Selection(); !reflect.DeepEqual(got, []string{"Harnais"}) {
		t.Fatalf("selection = %v, want [Harnais]", got)
	}
	if got := m.Catalog(); !reflect.DeepEqual(got, []string{"Casque", "Gants", "Harnais"}) {
		t.Fatalf("catalog = %v", got)
	}
}

func TestAddIgnoresEmpty(t *testing.T) {
	m := New(nil, nil)
	m.Add("   ")
	m.Add("")
	if len(m.Selection()) != 0 || len(m.Catalog()) != 0 {
		t.Fatalf("blank values must be ignored, got selection=%v catalog=%v", m.Selection(), m.Catalog())
	}
}

func TestRemoveKeepsCatalog(t *testing.T) {
	m := New([]string{"Casque"}, nil)
	m.Add("Visière")
	m.Remove("Visière")
	if m.Selected("Visière") {
		t.Fatal("Visière still selected after remove")
	}
	if got := m.Remaining(""); !reflect.DeepEqual(got, []string{"Casque", "Visière"}) {
		t.Fatalf("removed value must be offered again, remaining = %v", got)
	}
}

func TestRemainingExcludesSelectedAndFilters(t *testing.T) {
	m := New([]string{"Harnais 2 points", "Harnais 4 points", "Longe simple"}, []string{"Longe simple"})
	if got := m.Remaining("harnais"); !reflect.DeepEqual(got, []string{"Harnais 2 points", "Harnais 4 points"}) {
		t.Fatalf("remaining(harnais) = %v", got)
	}
	if got := m.Remaining("longe"); got != nil {
		t.Fatalf("selected value must not be offered, got %v", got)
	}
}

func TestCanCreate(t *testing.T) {
	m := New([]string{"Casque"}, nil)
	if m.CanCreate("casque") {
		t.Fatal("existing value must not be creatable")
	}
	if m.CanCreate("  ") {
		t.Fatal("blank query must not be creatable")
	}
	if !m.CanCreate("Gilet haute visibilité") {
		t.Fatal("unknown value must be creatable")
	}
}

func TestNewNormalizesOptions(t *testing.T) {
	m := New([]string{" Casque ", "casque", "Gants"}, []string{"Bottes"})
	if got := m.Catalog(); !reflect.DeepEqual(got, []string{"Casque", "Gants", "Bottes"}) {
		t.Fatalf("catalog = %v", got)
	}
	if got := m.Selection(); !reflect.DeepEqual(got, []string{"Bottes"}) {
		t.Fatalf("selection = %v", got)
	}
}
