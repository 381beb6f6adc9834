package wizard

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"smartpermit/internal/domain"
)

func TestStepNavigationClamps(t *testing.T) {
	var w JMT
	if w.Step() != 1 {
		t.Fatalf("initial step = %d", w.Step())
	}
	w.Prev()
	if w.Step() != 1 {
		t.Fatalf("prev below first step = %d", w.Step())
	}
	for i := 0; i < 10; i++ {
		w.Next()
	}
	if w.Step() != JMTSteps {
		t.Fatalf("next above last step = %d", w.Step())
	}
}

func TestDetectHeightType(t *testing.T) {
	d := Detect(domain.TypeHeight, nil, []string{"hauteur"})
	if !d.WorkingAtHeight {
		t.Fatal("type height must flag working at height")
	}
	if !reflect.DeepEqual(d.SuggestedPermits, []string{PermitWorkAtHeight}) {
		t.Fatalf("suggested = %v", d.SuggestedPermits)
	}
}

func TestDetectHazardKeyword(t *testing.T) {
	d := Detect(domain.TypeElectrical, []string{"Travail en HAUTEUR"}, []string{"hauteur"})
	if !d.WorkingAtHeight {
		t.Fatal("hazard keyword must flag working at height")
	}
	d = Detect(domain.TypeElectrical, []string{"Présence électrique"}, []string{"hauteur"})
	if d.WorkingAtHeight {
		t.Fatal("unrelated hazard must not flag working at height")
	}
	if d.SuggestedPermits != nil {
		t.Fatalf("no suggestion expected, got %v", d.SuggestedPermits)
	}
}

func TestDetectScenario(t *testing.T) {
	w := JMT{Title: "Maintenance ascenseur", Zone: "Tour A", Type: domain.TypeHeight}
	d := w.Detection()
	if !d.WorkingAtHeight {
		t.Fatal("expected working at height")
	}
	if len(d.SuggestedPermits) != 1 || d.SuggestedPermits[0] != PermitWorkAtHeight {
		t.Fatalf("suggested = %v", d.SuggestedPermits)
	}
}

func TestValidateRequired(t *testing.T) {
	w := JMT{Title: "Essai", Zone: "Tour A"}
	err := w.ValidateRequired()
	if err == nil {
		t.Fatal("expected error for missing fields")
	}
	if !strings.Contains(err.Error(), "description") || !strings.Contains(err.Error(), "deadline") {
		t.Fatalf("error should name missing fields, got %v", err)
	}
	w.Description = "Remplacement câbles"
	w.Deadline = "2026-09-15"
	if err := w.ValidateRequired(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFinalizeGeneratedTitle(t *testing.T) {
	w := JMT{Zone: "Tour A"}
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	opts := w.Finalize("site-1", "actor-1", now)
	if opts.Title != "JMT 01/09/2026 — Tour A" {
		t.Fatalf("title = %q", opts.Title)
	}
}

func TestFinalizeDerivedFields(t *testing.T) {
	w := JMT{
		Title:        "Essai",
		Type:         domain.TypeHeight,
		EPISpecific:  []string{"Tenue contre Feu", "casque"},
		EPIComplete:  []string{"Casque", "Harnais"},
		EnvHazards:   []string{"Travail en hauteur"},
		RiskMeasures: []string{"Balisage de la zone"},
	}
	opts := w.Finalize("site-1", "actor-1", time.Now())
	if !reflect.DeepEqual(opts.RequiredPPE, []string{"Tenue contre Feu", "casque", "Harnais"}) {
		t.Fatalf("required ppe = %v", opts.RequiredPPE)
	}
	if !reflect.DeepEqual(opts.Risks, []string{"Travail en hauteur"}) {
		t.Fatalf("risks = %v", opts.Risks)
	}
	if !reflect.DeepEqual(opts.Controls, []string{"Balisage de la zone"}) {
		t.Fatalf("controls = %v", opts.Controls)
	}
	if opts.MethodForm == nil || !opts.MethodForm.Detection.WorkingAtHeight {
		t.Fatal("method form must carry detection")
	}
}

func TestPermitFromJMT(t *testing.T) {
	j := domain.JMT{
		ID:          "jmt-1",
		Zone:        "Tour A",
		Deadline:    "2026-09-15",
		Description: "Remplacement des câbles",
		MethodForm: &domain.MethodForm{
			Zone:            "Tour A — local machinerie",
			ResponsibleName: "C. Bernard",
		},
	}
	w := PermitFromJMT(j)
	if w.JMTID != "jmt-1" {
		t.Fatalf("jmt id = %q", w.JMTID)
	}
	if w.Place != "Tour A — local machinerie" {
		t.Fatalf("place = %q", w.Place)
	}
	if w.Date != "2026-09-15" || w.Responsible != "C. Bernard" {
		t.Fatalf("prefill = %+v", w)
	}
	opts := w.Finalize("site-1", "actor-1")
	if opts.JMTID != "jmt-1" || opts.Place != w.Place {
		t.Fatalf("finalize = %+v", opts)
	}
}
