package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"smartpermit/internal/catalog"
	"smartpermit/internal/config"
	"smartpermit/internal/domain"
	"smartpermit/internal/events"
	"smartpermit/internal/repo"
)

// AckSink receives transient acknowledgments after mutations. Implementations
// must not block; delivery is best effort.
type AckSink interface {
	Publish(ctx context.Context, ack domain.Ack)
}

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
	Acks   AckSink
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) ack(ctx context.Context, severity, title, message string) {
	if e.Acks == nil {
		return
	}
	e.Acks.Publish(ctx, domain.Ack{Title: title, Message: message, Severity: severity})
}

// InitSite initializes a site with its default config and catalog seeds.
// Migrations must already have run.
func (e Engine) InitSite(ctx context.Context, siteID, name, actorID string) (domain.Site, error) {
	if siteID == "" {
		return domain.Site{}, errors.New("site id is required")
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Site{}, err
	}
	defer tx.Rollback()

	s := domain.Site{
		ID:        siteID,
		Name:      name,
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	if err := e.Repo.InsertSiteTx(ctx, tx, s); err != nil {
		return domain.Site{}, fmt.Errorf("insert site: %w", err)
	}
	cfg := e.Config
	if cfg == nil {
		cfg = config.Default(siteID)
	}
	if err := e.Repo.UpsertSiteConfigTx(ctx, tx, siteID, cfg); err != nil {
		return domain.Site{}, fmt.Errorf("insert site config: %w", err)
	}
	if err := e.seedCatalogsTx(ctx, tx, siteID, cfg); err != nil {
		return domain.Site{}, fmt.Errorf("seed catalogs: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "site.init", siteID, "site", siteID, actorID, events.EventPayload{"name": name}); err != nil {
		return domain.Site{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Site{}, err
	}
	return s, nil
}

func (e Engine) seedCatalogsTx(ctx context.Context, tx *sql.Tx, siteID string, cfg *config.Config) error {
	now := e.now().UTC().Format(time.RFC3339)
	for _, kind := range config.CatalogKinds {
		for _, value := range cfg.Catalogs[kind] {
			if _, err := e.Repo.InsertCatalogValueTx(ctx, tx, domain.CatalogValue{
				SiteID: siteID, Kind: kind, Value: value, CreatedAt: now,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// JMTCreateOptions are parameters for creating a JMT. Status is always forced
// to pending regardless of the draft.
type JMTCreateOptions struct {
	SiteID          string
	Title           string
	Description     string
	Zone            string
	Type            string
	RiskLevel       string
	Deadline        string
	AssignedTo      string
	RequiredPPE     []string
	Risks           []string
	Controls        []string
	WorkOrderNumber string
	MethodForm      *domain.MethodForm
	ActorID         string
}

func (e Engine) CreateJMT(ctx context.Context, opts JMTCreateOptions) (domain.JMT, error) {
	if opts.SiteID == "" {
		return domain.JMT{}, errors.New("site is required")
	}
	if opts.Type == "" {
		opts.Type = domain.TypeHeight
	}
	if opts.RiskLevel == "" {
		opts.RiskLevel = domain.RiskMedium
	}
	if _, err := e.Repo.GetSite(ctx, opts.SiteID); err != nil {
		return domain.JMT{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.JMT{}, err
	}
	defer tx.Rollback()

	now := e.now().UTC().Format(time.RFC3339)
	j := domain.JMT{
		ID:          uuid.New().String(),
		SiteID:      opts.SiteID,
		Title:       opts.Title,
		Description: opts.Description,
		Zone:        opts.Zone,
		Type:        opts.Type,
		Status:      domain.StatusPending,
		RiskLevel:   opts.RiskLevel,
		Deadline:    opts.Deadline,
		AssignedTo:  opts.AssignedTo,
		RequiredPPE: opts.RequiredPPE,
		Risks:       opts.Risks,
		Controls:    opts.Controls,
		MethodForm:  opts.MethodForm,
		CreatedAt:   now,
	}
	if opts.WorkOrderNumber != "" {
		j.WorkOrderNumber = &opts.WorkOrderNumber
	}
	if err := e.Repo.InsertJMTTx(ctx, tx, j); err != nil {
		return domain.JMT{}, fmt.Errorf("insert jmt: %w", err)
	}
	if err := e.notifyTx(ctx, tx, opts.SiteID, domain.NotifInfo, "Nouvelle JMT créée",
		fmt.Sprintf("La JMT \"%s\" a été créée et attend validation.", j.Title)); err != nil {
		return domain.JMT{}, err
	}
	if err := e.Events.Append(ctx, tx, "jmt.created", j.SiteID, "jmt", j.ID, opts.ActorID,
		events.EventPayload{"title": j.Title, "type": j.Type, "risk_level": j.RiskLevel}); err != nil {
		return domain.JMT{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.JMT{}, err
	}
	e.ack(ctx, domain.NotifSuccess, "JMT créée", fmt.Sprintf("La JMT \"%s\" a été créée avec succès.", j.Title))
	return j, nil
}

// JMTUpdate carries a partial field merge. Nil fields are left untouched.
type JMTUpdate struct {
	Title           *string
	Description     *string
	Zone            *string
	Type            *string
	Status          *string
	RiskLevel       *string
	Deadline        *string
	AssignedTo      *string
	RequiredPPE     []string
	Risks           []string
	Controls        []string
	Comments        *string
	WorkOrderNumber *string
	MethodForm      *domain.MethodForm
}

// UpdateJMT merges changes into an existing JMT. An unknown id is a silent
// no-op; the acknowledgment is emitted either way.
func (e Engine) UpdateJMT(ctx context.Context, id string, changes JMTUpdate, actorID string) (domain.JMT, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.JMT{}, err
	}
	defer tx.Rollback()

	j, err := e.Repo.GetJMTTx(ctx, tx, id)
	if errors.Is(err, repo.ErrNotFound) {
		e.ack(ctx, domain.NotifSuccess, "JMT mise à jour", "Les modifications ont été enregistrées.")
		return domain.JMT{}, nil
	}
	if err != nil {
		return domain.JMT{}, err
	}
	if changes.Title != nil {
		j.Title = *changes.Title
	}
	if changes.Description != nil {
		j.Description = *changes.Description
	}
	if changes.Zone != nil {
		j.Zone = *changes.Zone
	}
	if changes.Type != nil {
		j.Type = *changes.Type
	}
	if changes.Status != nil {
		j.Status = *changes.Status
	}
	if changes.RiskLevel != nil {
		j.RiskLevel = *changes.RiskLevel
	}
	if changes.Deadline != nil {
		j.Deadline = *changes.Deadline
	}
	if changes.AssignedTo != nil {
		j.AssignedTo = *changes.AssignedTo
	}
	if changes.RequiredPPE != nil {
		j.RequiredPPE = changes.RequiredPPE
	}
	if changes.Risks != nil {
		j.Risks = changes.Risks
	}
	if changes.Controls != nil {
		j.Controls = changes.Controls
	}
	if changes.Comments != nil {
		j.Comments = changes.Comments
	}
	if changes.WorkOrderNumber != nil {
		j.WorkOrderNumber = changes.WorkOrderNumber
	}
	if changes.MethodForm != nil {
		j.MethodForm = changes.MethodForm
	}
	if err := e.Repo.UpdateJMTTx(ctx, tx, j); err != nil {
		return domain.JMT{}, fmt.Errorf("update jmt: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "jmt.updated", j.SiteID, "jmt", j.ID, actorID, nil); err != nil {
		return domain.JMT{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.JMT{}, err
	}
	e.ack(ctx, domain.NotifSuccess, "JMT mise à jour", "Les modifications ont été enregistrées.")
	return j, nil
}

// DeleteJMT removes a JMT. Unknown ids are silent no-ops.
func (e Engine) DeleteJMT(ctx context.Context, id, actorID string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	j, err := e.Repo.GetJMTTx(ctx, tx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := e.Repo.DeleteJMTTx(ctx, tx, id); err != nil {
		return fmt.Errorf("delete jmt: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "jmt.deleted", j.SiteID, "jmt", j.ID, actorID, nil); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	e.ack(ctx, domain.NotifInfo, "JMT supprimée", fmt.Sprintf("La JMT \"%s\" a été supprimée.", j.Title))
	return nil
}

func approverRole(role string) error {
	switch role {
	case domain.RoleSupervisor, domain.RoleDirector:
		return nil
	default:
		return fmt.Errorf("role %s cannot approve or reject", role)
	}
}

// ApproveJMT marks a JMT approved and stamps the configured approver name for
// the caller's role. Only the field matching the role changes. Unknown ids
// are silent no-ops.
func (e Engine) ApproveJMT(ctx context.Context, id, role, comments, actorID string) (domain.JMT, error) {
	return e.decideJMT(ctx, id, role, comments, actorID, domain.StatusApproved)
}

// RejectJMT marks a JMT rejected. The engine itself does not require a
// comment; callers gate on it before invoking the action.
func (e Engine) RejectJMT(ctx context.Context, id, role, comments, actorID string) (domain.JMT, error) {
	return e.decideJMT(ctx, id, role, comments, actorID, domain.StatusRejected)
}

func (e Engine) decideJMT(ctx context.Context, id, role, comments, actorID, status string) (domain.JMT, error) {
	if err := approverRole(role); err != nil {
		return domain.JMT{}, err
	}
	if e.Config == nil {
		return domain.JMT{}, errors.New("config not loaded")
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.JMT{}, err
	}
	defer tx.Rollback()

	j, err := e.Repo.GetJMTTx(ctx, tx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.JMT{}, nil
	}
	if err != nil {
		return domain.JMT{}, err
	}
	j.Status = status
	name := e.Config.ApproverName(role)
	switch role {
	case domain.RoleSupervisor:
		j.Supervisor = &name
	case domain.RoleDirector:
		j.Director = &name
	}
	if comments != "" {
		j.Comments = &comments
	}
	if err := e.Repo.UpdateJMTTx(ctx, tx, j); err != nil {
		return domain.JMT{}, fmt.Errorf("update jmt: %w", err)
	}
	evtType := "jmt.approved"
	notifKind := domain.NotifSuccess
	notifTitle := "JMT approuvée"
	notifMsg := fmt.Sprintf("La JMT \"%s\" a été approuvée par %s.", j.Title, name)
	if status == domain.StatusRejected {
		evtType = "jmt.rejected"
		notifKind = domain.NotifWarning
		notifTitle = "JMT rejetée"
		notifMsg = fmt.Sprintf("La JMT \"%s\" a été rejetée par %s.", j.Title, name)
	}
	if err := e.notifyTx(ctx, tx, j.SiteID, notifKind, notifTitle, notifMsg); err != nil {
		return domain.JMT{}, err
	}
	if err := e.Events.Append(ctx, tx, evtType, j.SiteID, "jmt", j.ID, actorID,
		events.EventPayload{"role": role, "approver": name}); err != nil {
		return domain.JMT{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.JMT{}, err
	}
	e.ack(ctx, notifKind, notifTitle, notifMsg)
	return j, nil
}

func (e Engine) GetJMT(ctx context.Context, id string) (domain.JMT, error) {
	return e.Repo.GetJMT(ctx, id)
}

// Views for JMT listing.
const (
	ViewMain       = "main"
	ViewValidation = "validation"
)

type JMTListOptions struct {
	SiteID    string
	Role      string
	View      string
	Query     string
	Status    string
	RiskLevel string
}

// ListJMTs applies the per-role visibility matrix, then the optional status,
// risk and free-text filters. Text matches title, description and zone,
// case-insensitively.
func (e Engine) ListJMTs(ctx context.Context, opts JMTListOptions) ([]domain.JMT, error) {
	f := repo.JMTFilters{SiteID: opts.SiteID, Query: opts.Query}
	validation := opts.View == ViewValidation
	switch {
	case validation && opts.Role == domain.RoleSupervisor:
		f.Statuses = []string{domain.StatusPending}
	case validation && opts.Role == domain.RoleDirector:
		f.Statuses = []string{domain.StatusPending, domain.StatusApproved}
	case validation:
		return nil, nil
	case opts.Role == domain.RoleSupervisor:
		f.Statuses = []string{domain.StatusPending, domain.StatusApproved}
	}
	if opts.Status != "" {
		f.Statuses = []string{opts.Status}
	}
	if opts.RiskLevel != "" {
		f.RiskLevels = []string{opts.RiskLevel}
	}
	res, err := e.Repo.ListJMTs(ctx, f)
	if err != nil {
		return nil, err
	}
	if validation && opts.Role == domain.RoleDirector {
		out := res[:0]
		for _, j := range res {
			if j.Status == domain.StatusPending || (j.Status == domain.StatusApproved && j.RiskLevel == domain.RiskHigh) {
				out = append(out, j)
			}
		}
		res = out
	}
	return res, nil
}

// PermitCreateOptions are parameters for creating a height-work permit.
type PermitCreateOptions struct {
	SiteID          string
	JMTID           string
	Number          string
	Place           string
	PrecisePlace    string
	Date            string
	StartTime       string
	EndTime         string
	Description     string
	Responsible     string
	Subcontractor   string
	Equipment       []string
	Access          []string
	WorkModes       []string
	PersonsMax      *int
	Observations    string
	FallFactor      string
	FallDistance    string
	Anchorage       []string
	Lanyard         []string
	Harness         []string
	RescueMeans     string
	RescueComms     string
	RescueTeams     string
	ExtraConditions string
	Comments        string
	ActorID         string
}

func (e Engine) CreatePermit(ctx context.Context, opts PermitCreateOptions) (domain.Permit, error) {
	if opts.SiteID == "" {
		return domain.Permit{}, errors.New("site is required")
	}
	if _, err := e.Repo.GetSite(ctx, opts.SiteID); err != nil {
		return domain.Permit{}, err
	}
	if opts.JMTID != "" {
		if _, err := e.Repo.GetJMT(ctx, opts.JMTID); err != nil {
			return domain.Permit{}, fmt.Errorf("jmt %s: %w", opts.JMTID, err)
		}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Permit{}, err
	}
	defer tx.Rollback()

	now := e.now().UTC()
	number := opts.Number
	if number == "" {
		number = fmt.Sprintf("PTH-%s-%s", now.Format("20060102"), strings.ToUpper(uuid.New().String()[:8]))
	}
	p := domain.Permit{
		ID:              uuid.New().String(),
		SiteID:          opts.SiteID,
		Number:          number,
		Place:           opts.Place,
		PrecisePlace:    opts.PrecisePlace,
		Date:            opts.Date,
		StartTime:       opts.StartTime,
		EndTime:         opts.EndTime,
		Description:     opts.Description,
		Responsible:     opts.Responsible,
		Subcontractor:   opts.Subcontractor,
		Equipment:       opts.Equipment,
		Access:          opts.Access,
		WorkModes:       opts.WorkModes,
		PersonsMax:      opts.PersonsMax,
		Observations:    opts.Observations,
		FallFactor:      opts.FallFactor,
		FallDistance:    opts.FallDistance,
		Anchorage:       opts.Anchorage,
		Lanyard:         opts.Lanyard,
		Harness:         opts.Harness,
		RescueMeans:     opts.RescueMeans,
		RescueComms:     opts.RescueComms,
		RescueTeams:     opts.RescueTeams,
		ExtraConditions: opts.ExtraConditions,
		Comments:        opts.Comments,
		Status:          domain.StatusPending,
		CreatedAt:       now.Format(time.RFC3339),
	}
	if opts.JMTID != "" {
		p.JMTID = &opts.JMTID
	}
	for _, role := range domain.SignatureRoles {
		p.Signatures = append(p.Signatures, domain.Signature{Role: role})
	}
	if opts.Responsible != "" {
		p.Signatures[0].Name = opts.Responsible
	}
	if err := e.Repo.InsertPermitTx(ctx, tx, p); err != nil {
		return domain.Permit{}, fmt.Errorf("insert permit: %w", err)
	}
	if err := e.notifyTx(ctx, tx, p.SiteID, domain.NotifInfo, "Nouveau permis créé",
		fmt.Sprintf("Le permis de travail en hauteur %s a été créé.", p.Number)); err != nil {
		return domain.Permit{}, err
	}
	if err := e.Events.Append(ctx, tx, "permit.created", p.SiteID, "permit", p.ID, opts.ActorID,
		events.EventPayload{"number": p.Number, "jmt_id": opts.JMTID}); err != nil {
		return domain.Permit{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Permit{}, err
	}
	e.ack(ctx, domain.NotifSuccess, "Permis créé", fmt.Sprintf("Le permis %s a été créé avec succès.", p.Number))
	return p, nil
}

// ApprovePermit marks a permit approved and attaches the approval record for
// the caller's role. Each role has its own slot; approving as supervisor
// never touches the director slot.
func (e Engine) ApprovePermit(ctx context.Context, id, role, comments, actorID string) (domain.Permit, error) {
	if err := approverRole(role); err != nil {
		return domain.Permit{}, err
	}
	if e.Config == nil {
		return domain.Permit{}, errors.New("config not loaded")
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Permit{}, err
	}
	defer tx.Rollback()

	p, err := e.Repo.GetPermitTx(ctx, tx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.Permit{}, nil
	}
	if err != nil {
		return domain.Permit{}, err
	}
	approval := &domain.Approval{
		Approved: true,
		Date:     e.now().UTC().Format(time.RFC3339),
		Name:     e.Config.ApproverName(role),
		Comments: comments,
	}
	switch role {
	case domain.RoleSupervisor:
		p.SupervisorApproval = approval
	case domain.RoleDirector:
		p.DirectorApproval = approval
	}
	p.Status = domain.StatusApproved
	if err := e.Repo.UpdatePermitTx(ctx, tx, p); err != nil {
		return domain.Permit{}, fmt.Errorf("update permit: %w", err)
	}
	if err := e.notifyTx(ctx, tx, p.SiteID, domain.NotifSuccess, "Permis approuvé",
		fmt.Sprintf("Le permis %s a été approuvé par %s.", p.Number, approval.Name)); err != nil {
		return domain.Permit{}, err
	}
	if err := e.Events.Append(ctx, tx, "permit.approved", p.SiteID, "permit", p.ID, actorID,
		events.EventPayload{"role": role, "approver": approval.Name}); err != nil {
		return domain.Permit{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Permit{}, err
	}
	e.ack(ctx, domain.NotifSuccess, "Permis approuvé", fmt.Sprintf("Le permis %s a été approuvé.", p.Number))
	return p, nil
}

func (e Engine) GetPermit(ctx context.Context, id string) (domain.Permit, error) {
	return e.Repo.GetPermit(ctx, id)
}

type PermitListOptions struct {
	SiteID string
	JMTID  string
	Status string
	Query  string
}

func (e Engine) ListPermits(ctx context.Context, opts PermitListOptions) ([]domain.Permit, error) {
	f := repo.PermitFilters{SiteID: opts.SiteID, JMTID: opts.JMTID, Query: opts.Query}
	if opts.Status != "" {
		f.Statuses = []string{opts.Status}
	}
	return e.Repo.ListPermits(ctx, f)
}

func (e Engine) notifyTx(ctx context.Context, tx *sql.Tx, siteID, kind, title, message string) error {
	n := domain.Notification{
		ID:        uuid.New().String(),
		SiteID:    siteID,
		Kind:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	if err := e.Repo.InsertNotificationTx(ctx, tx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// MarkNotificationRead marks one notification read. Unknown ids are silent
// no-ops.
func (e Engine) MarkNotificationRead(ctx context.Context, id, actorID string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = e.Repo.MarkNotificationReadTx(ctx, tx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "notification.read", "", "notification", id, actorID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

func (e Engine) ListNotifications(ctx context.Context, siteID string, unreadOnly bool) ([]domain.Notification, error) {
	return e.Repo.ListNotifications(ctx, siteID, unreadOnly)
}

// AddCatalogValue appends a value to a named catalog. Blank values and
// case-insensitive duplicates are ignored; the catalog never shrinks.
func (e Engine) AddCatalogValue(ctx context.Context, siteID, kind, value, actorID string) error {
	if !validCatalogKind(kind) {
		return fmt.Errorf("unknown catalog %s", kind)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	inserted, err := e.Repo.InsertCatalogValueTx(ctx, tx, domain.CatalogValue{
		SiteID: siteID, Kind: kind, Value: value,
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("insert catalog value: %w", err)
	}
	if !inserted {
		return nil
	}
	if err := e.Events.Append(ctx, tx, "catalog.value.added", siteID, "catalog", kind, actorID,
		events.EventPayload{"value": value}); err != nil {
		return err
	}
	return tx.Commit()
}

func validCatalogKind(kind string) bool {
	for _, k := range config.CatalogKinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (e Engine) ListCatalog(ctx context.Context, siteID, kind string) ([]string, error) {
	if !validCatalogKind(kind) {
		return nil, fmt.Errorf("unknown catalog %s", kind)
	}
	return e.Repo.ListCatalogValues(ctx, siteID, kind)
}

// CatalogOptions is what a multi-select control needs to render its
// dropdown: the values still offerable, and whether the query names a value
// worth creating on the fly.
type CatalogOptions struct {
	Values    []string `json:"values"`
	CanCreate bool     `json:"can_create"`
}

// RemainingCatalog returns the catalog values not already selected, narrowed
// by a case-insensitive substring query.
func (e Engine) RemainingCatalog(ctx context.Context, siteID, kind string, selected []string, query string) (CatalogOptions, error) {
	values, err := e.ListCatalog(ctx, siteID, kind)
	if err != nil {
		return CatalogOptions{}, err
	}
	m := catalog.New(values, selected)
	return CatalogOptions{
		Values:    m.Remaining(query),
		CanCreate: m.CanCreate(query),
	}, nil
}

// DashboardStats aggregates counters for the overview screens.
type DashboardStats struct {
	JMTsByStatus        map[string]int `json:"jmts_by_status"`
	PermitsByStatus     map[string]int `json:"permits_by_status"`
	UnreadNotifications int            `json:"unread_notifications"`
}

func (e Engine) Dashboard(ctx context.Context, siteID string) (DashboardStats, error) {
	jmts, err := e.Repo.CountJMTsByStatus(ctx, siteID)
	if err != nil {
		return DashboardStats{}, err
	}
	permits, err := e.Repo.CountPermitsByStatus(ctx, siteID)
	if err != nil {
		return DashboardStats{}, err
	}
	unread, err := e.Repo.CountUnreadNotifications(ctx, siteID)
	if err != nil {
		return DashboardStats{}, err
	}
	return DashboardStats{JMTsByStatus: jmts, PermitsByStatus: permits, UnreadNotifications: unread}, nil
}
