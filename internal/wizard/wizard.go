// Package wizard holds the step-indexed draft builders behind the two
// creation flows. A wizard owns a draft and a current step; navigation is
// strictly linear and clamped, and the finished draft is assembled once by
// Finalize.
package wizard

import (
	"fmt"
	"strings"
	"time"

	"smartpermit/internal/catalog"
	"smartpermit/internal/domain"
	"smartpermit/internal/engine"
)

// PermitWorkAtHeight is the permit suggested when a height hazard is
// detected.
const PermitWorkAtHeight = "Permis de travail en hauteur"

// Detect computes the height flags from the current draft fields. The result
// is attached to the assembled payload, never stored independently.
func Detect(workType string, envHazards, keywords []string) domain.Detection {
	var d domain.Detection
	if workType == domain.TypeHeight {
		d.WorkingAtHeight = true
	}
	for _, hazard := range envHazards {
		h := strings.ToLower(hazard)
		for _, kw := range keywords {
			if strings.Contains(h, strings.ToLower(kw)) {
				d.WorkingAtHeight = true
			}
		}
	}
	if d.WorkingAtHeight {
		d.SuggestedPermits = []string{PermitWorkAtHeight}
	}
	return d
}

const JMTSteps = 6

// JMT builds a six-step analysis draft. Zero value is step 1 with an empty
// draft.
type JMT struct {
	step int

	// identity, carried across steps
	Title      string
	Type       string
	RiskLevel  string
	Deadline   string
	AssignedTo string

	// step 1: location and work order
	Zone            string
	Date            string
	WorkOrderNumber string

	// step 2: description and resources
	Description string
	Duration    string
	People      []string
	Materials   []string

	// step 3: protective equipment
	EPISpecific []string
	EPIComplete []string

	// step 4: environment hazards
	EnvHazards []string

	// step 5: risk management
	RiskMeasures []string
	LethalRows   []domain.LethalRow

	// step 6: validation
	ResponsibleName string
	ValidationDate  string

	// HeightKeywords drive auto-detection; empty means "hauteur" only.
	HeightKeywords []string
}

func (w *JMT) Step() int {
	if w.step < 1 {
		return 1
	}
	return w.step
}

func (w *JMT) Next() int {
	w.step = clamp(w.Step()+1, JMTSteps)
	return w.step
}

func (w *JMT) Prev() int {
	w.step = clamp(w.Step()-1, JMTSteps)
	return w.step
}

func clamp(step, max int) int {
	if step < 1 {
		return 1
	}
	if step > max {
		return max
	}
	return step
}

func (w *JMT) keywords() []string {
	if len(w.HeightKeywords) == 0 {
		return []string{"hauteur"}
	}
	return w.HeightKeywords
}

// Detection recomputes the height flags from the current draft.
func (w *JMT) Detection() domain.Detection {
	return Detect(w.Type, w.EnvHazards, w.keywords())
}

// ValidateRequired gates creation on the minimal required fields. Only the
// guided flow calls it; the quick flow falls back to a generated title
// instead.
func (w *JMT) ValidateRequired() error {
	var missing []string
	if strings.TrimSpace(w.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(w.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(w.Zone) == "" {
		missing = append(missing, "zone")
	}
	if strings.TrimSpace(w.Deadline) == "" {
		missing = append(missing, "deadline")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Finalize assembles the creation payload. Required PPE is the union of the
// two equipment selections, risks come from the environment hazards and
// controls from the risk measures. An empty title gets a generated one.
func (w *JMT) Finalize(siteID, actorID string, now time.Time) engine.JMTCreateOptions {
	title := strings.TrimSpace(w.Title)
	if title == "" {
		title = DefaultTitle(w.Zone, now)
	}
	form := &domain.MethodForm{
		Zone:            w.Zone,
		Date:            w.Date,
		WorkOrderNumber: w.WorkOrderNumber,
		Description:     w.Description,
		Duration:        w.Duration,
		People:          w.People,
		Materials:       w.Materials,
		EPISpecific:     w.EPISpecific,
		EPIComplete:     w.EPIComplete,
		EnvHazards:      w.EnvHazards,
		RiskMeasures:    w.RiskMeasures,
		LethalRows:      w.LethalRows,
		ResponsibleName: w.ResponsibleName,
		ValidationDate:  w.ValidationDate,
		Detection:       w.Detection(),
	}
	return engine.JMTCreateOptions{
		SiteID:          siteID,
		Title:           title,
		Description:     w.Description,
		Zone:            w.Zone,
		Type:            w.Type,
		RiskLevel:       w.RiskLevel,
		Deadline:        w.Deadline,
		AssignedTo:      w.AssignedTo,
		RequiredPPE:     union(w.EPISpecific, w.EPIComplete),
		Risks:           append([]string(nil), w.EnvHazards...),
		Controls:        append([]string(nil), w.RiskMeasures...),
		WorkOrderNumber: w.WorkOrderNumber,
		MethodForm:      form,
		ActorID:         actorID,
	}
}

// DefaultTitle is the generated title used when the quick flow leaves the
// title blank.
func DefaultTitle(zone string, now time.Time) string {
	title := fmt.Sprintf("JMT %s", now.Format("02/01/2006"))
	if strings.TrimSpace(zone) != "" {
		title += " — " + strings.TrimSpace(zone)
	}
	return title
}

func union(a, b []string) []string {
	m := catalog.New(nil, a)
	for _, v := range b {
		m.Add(v)
	}
	return m.Selection()
}

const PermitSteps = 5

// Permit builds a five-step height-work permit draft. No field gating: the
// flow accepts a fully blank draft.
type Permit struct {
	step int

	JMTID string

	// step 1: identification
	Number       string
	Place        string
	PrecisePlace string
	Date         string
	StartTime    string
	EndTime      string

	// step 2: work description
	Description   string
	Responsible   string
	Subcontractor string
	Equipment     []string
	Access        []string
	WorkModes     []string
	PersonsMax    *int
	Observations  string

	// step 3: fall protection
	FallFactor   string
	FallDistance string
	Anchorage    []string
	Lanyard      []string
	Harness      []string

	// step 4: rescue plan
	RescueMeans string
	RescueComms string
	RescueTeams string

	// step 5: conditions and comments
	ExtraConditions string
	Comments        string
}

func (w *Permit) Step() int {
	if w.step < 1 {
		return 1
	}
	return w.step
}

func (w *Permit) Next() int {
	w.step = clamp(w.Step()+1, PermitSteps)
	return w.step
}

func (w *Permit) Prev() int {
	w.step = clamp(w.Step()-1, PermitSteps)
	return w.step
}

// PermitFromJMT pre-fills a permit draft from an existing analysis: place,
// date, description and the responsible carry over, and the permit stays
// linked to its source.
func PermitFromJMT(j domain.JMT) *Permit {
	w := &Permit{
		JMTID:       j.ID,
		Place:       j.Zone,
		Date:        j.Deadline,
		Description: j.Description,
	}
	if j.MethodForm != nil {
		if j.MethodForm.Zone != "" {
			w.Place = j.MethodForm.Zone
		}
		if j.MethodForm.Description != "" {
			w.Description = j.MethodForm.Description
		}
		w.Responsible = j.MethodForm.ResponsibleName
	}
	return w
}

// Finalize assembles the permit creation payload.
func (w *Permit) Finalize(siteID, actorID string) engine.PermitCreateOptions {
	return engine.PermitCreateOptions{
		SiteID:          siteID,
		JMTID:           w.JMTID,
		Number:          w.Number,
		Place:           w.Place,
		PrecisePlace:    w.PrecisePlace,
		Date:            w.Date,
		StartTime:       w.StartTime,
		EndTime:         w.EndTime,
		Description:     w.Description,
		Responsible:     w.Responsible,
		Subcontractor:   w.Subcontractor,
		Equipment:       w.Equipment,
		Access:          w.Access,
		WorkModes:       w.WorkModes,
		PersonsMax:      w.PersonsMax,
		Observations:    w.Observations,
		FallFactor:      w.FallFactor,
		FallDistance:    w.FallDistance,
		Anchorage:       w.Anchorage,
		Lanyard:         w.Lanyard,
		Harness:         w.Harness,
		RescueMeans:     w.RescueMeans,
		RescueComms:     w.RescueComms,
		RescueTeams:     w.RescueTeams,
		ExtraConditions: w.ExtraConditions,
		Comments:        w.Comments,
		ActorID:         actorID,
	}
}
