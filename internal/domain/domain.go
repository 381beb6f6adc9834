package domain

// Roles recognised by the approval workflow.
const (
	RoleWorker     = "worker"
	RoleSupervisor = "supervisor"
	RoleDirector   = "director"
)

// JMT statuses.
const (
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
	StatusArchived   = "archived"
	StatusInProgress = "in-progress"
)

// Work types.
const (
	TypeHeight     = "height"
	TypeTower      = "tower"
	TypeConfined   = "confined"
	TypeElectrical = "electrical"
)

// Risk levels.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

type JMT struct {
	ID              string      `json:"id"`
	SiteID          string      `json:"site_id"`
	Title           string      `json:"title"`
	Description     string      `json:"description,omitempty"`
	Zone            string      `json:"zone,omitempty"`
	Type            string      `json:"type" enum:"height,tower,confined,electrical"`
	Status          string      `json:"status" enum:"pending,approved,rejected,archived,in-progress"`
	RiskLevel       string      `json:"risk_level" enum:"low,medium,high"`
	Deadline        string      `json:"deadline,omitempty"`
	AssignedTo      string      `json:"assigned_to,omitempty"`
	RequiredPPE     []string    `json:"required_ppe,omitempty"`
	Risks           []string    `json:"risks,omitempty"`
	Controls        []string    `json:"controls,omitempty"`
	Supervisor      *string     `json:"supervisor,omitempty"`
	Director        *string     `json:"director,omitempty"`
	Comments        *string     `json:"comments,omitempty"`
	WorkOrderNumber *string     `json:"work_order_number,omitempty"`
	MethodForm      *MethodForm `json:"method_form,omitempty"`
	CreatedAt       string      `json:"created_at" format:"date-time"`
}

// MethodForm is the normalized six-step analysis record attached to a JMT.
type MethodForm struct {
	Zone            string      `json:"zone,omitempty"`
	Date            string      `json:"date,omitempty"`
	WorkOrderNumber string      `json:"work_order_number,omitempty"`
	Description     string      `json:"description,omitempty"`
	Duration        string      `json:"duration,omitempty"`
	People          []string    `json:"people,omitempty"`
	Materials       []string    `json:"materials,omitempty"`
	EPISpecific     []string    `json:"epi_specific,omitempty"`
	EPIComplete     []string    `json:"epi_complete,omitempty"`
	EnvHazards      []string    `json:"env_hazards,omitempty"`
	RiskMeasures    []string    `json:"risk_measures,omitempty"`
	LethalRows      []LethalRow `json:"lethal_rows,omitempty"`
	ResponsibleName string      `json:"responsible_name,omitempty"`
	ValidationDate  string      `json:"validation_date,omitempty"`
	Detection       Detection   `json:"detection"`
}

// LethalRow pairs a lethal hazard with its mandatory controls.
type LethalRow struct {
	Danger   string   `json:"danger"`
	Controls []string `json:"controls,omitempty"`
}

// Detection is computed from the draft at assembly time, never edited directly.
type Detection struct {
	WorkingAtHeight  bool     `json:"working_at_height"`
	SuggestedPermits []string `json:"suggested_permits,omitempty"`
}

// Fall factors for height-work permits.
const (
	FallFactorF0 = "F0"
	FallFactorF1 = "F1"
	FallFactorF2 = "F2"
)

type Permit struct {
	ID                 string      `json:"id"`
	SiteID             string      `json:"site_id"`
	JMTID              *string     `json:"jmt_id,omitempty"`
	Number             string      `json:"number"`
	Place              string      `json:"place,omitempty"`
	PrecisePlace       string      `json:"precise_place,omitempty"`
	Date               string      `json:"date,omitempty"`
	StartTime          string      `json:"start_time,omitempty"`
	EndTime            string      `json:"end_time,omitempty"`
	Description        string      `json:"description,omitempty"`
	Responsible        string      `json:"responsible,omitempty"`
	Subcontractor      string      `json:"subcontractor,omitempty"`
	Equipment          []string    `json:"equipment,omitempty"`
	Access             []string    `json:"access,omitempty"`
	WorkModes          []string    `json:"work_modes,omitempty"`
	PersonsMax         *int        `json:"persons_max,omitempty"`
	Observations       string      `json:"observations,omitempty"`
	FallFactor         string      `json:"fall_factor,omitempty" enum:"F0,F1,F2"`
	FallDistance       string      `json:"fall_distance,omitempty"`
	Anchorage          []string    `json:"anchorage,omitempty"`
	Lanyard            []string    `json:"lanyard,omitempty"`
	Harness            []string    `json:"harness,omitempty"`
	RescueMeans        string      `json:"rescue_means,omitempty"`
	RescueComms        string      `json:"rescue_comms,omitempty"`
	RescueTeams        string      `json:"rescue_teams,omitempty"`
	ExtraConditions    string      `json:"extra_conditions,omitempty"`
	Comments           string      `json:"comments,omitempty"`
	Status             string      `json:"status" enum:"pending,approved,rejected,archived,in-progress"`
	Signatures         []Signature `json:"signatures"`
	SupervisorApproval *Approval   `json:"supervisor_approval,omitempty"`
	DirectorApproval   *Approval   `json:"director_approval,omitempty"`
	CreatedAt          string      `json:"created_at" format:"date-time"`
}

// Signature is one of the four fixed signature slots on a permit.
type Signature struct {
	Role     string  `json:"role"`
	Name     string  `json:"name,omitempty"`
	SignedAt *string `json:"signed_at,omitempty" format:"date-time"`
}

// SignatureRoles is the fixed slot order on every permit.
var SignatureRoles = []string{
	"Responsable LHM",
	"Émetteur du permis",
	"Responsable du sous-traitant",
	"Fin des travaux",
}

// Approval records one role's sign-off on a permit. A permit carries at most
// one per role, selected explicitly by the caller's role.
type Approval struct {
	Approved bool   `json:"approved"`
	Date     string `json:"date" format:"date-time"`
	Name     string `json:"name"`
	Comments string `json:"comments,omitempty"`
}

// Notification severities.
const (
	NotifInfo    = "info"
	NotifWarning = "warning"
	NotifSuccess = "success"
	NotifError   = "error"
)

type Notification struct {
	ID        string `json:"id"`
	SiteID    string `json:"site_id"`
	Kind      string `json:"kind" enum:"info,warning,success,error"`
	Title     string `json:"title"`
	Message   string `json:"message,omitempty"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// Ack is the transient acknowledgment emitted after a mutation, independent
// of the persisted notification feed.
type Ack struct {
	Title    string `json:"title"`
	Message  string `json:"message,omitempty"`
	Severity string `json:"severity" enum:"info,warning,success,error"`
}

type CatalogValue struct {
	SiteID    string `json:"site_id"`
	Kind      string `json:"kind"`
	Value     string `json:"value"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	SiteID     string `json:"site_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Role      string `json:"role" enum:"worker,supervisor,director"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Site struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
