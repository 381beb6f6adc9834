package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"smartpermit/internal/config"
	"smartpermit/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func (r Repo) InsertSite(ctx context.Context, s domain.Site) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO sites(id,name,created_at) VALUES (?,?,?)`,
		s.ID, s.Name, s.CreatedAt)
	return err
}

func (r Repo) InsertSiteTx(ctx context.Context, tx *sql.Tx, s domain.Site) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO sites(id,name,created_at) VALUES (?,?,?)`,
		s.ID, s.Name, s.CreatedAt)
	return err
}

func (r Repo) GetSite(ctx context.Context, id string) (domain.Site, error) {
	var s domain.Site
	err := r.DB.QueryRowContext(ctx, `SELECT id,name,created_at FROM sites WHERE id=?`, id).
		Scan(&s.ID, &s.Name, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	return s, err
}

func (r Repo) SingleSite(ctx context.Context) (domain.Site, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,created_at FROM sites`)
	if err != nil {
		return domain.Site{}, err
	}
	defer rows.Close()
	var sites []domain.Site
	for rows.Next() {
		var s domain.Site
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return domain.Site{}, err
		}
		sites = append(sites, s)
	}
	if len(sites) == 0 {
		return domain.Site{}, ErrNotFound
	}
	if len(sites) > 1 {
		return domain.Site{}, fmt.Errorf("multiple sites exist; specify --site")
	}
	return sites[0], nil
}

func (r Repo) ListSites(ctx context.Context) ([]domain.Site, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,created_at FROM sites ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Site
	for rows.Next() {
		var s domain.Site
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, nil
}

func (r Repo) UpsertSiteConfig(ctx context.Context, siteID string, cfg *config.Config) error {
	return upsertSiteConfig(ctx, r.DB, nil, siteID, cfg)
}

func (r Repo) UpsertSiteConfigTx(ctx context.Context, tx *sql.Tx, siteID string, cfg *config.Config) error {
	return upsertSiteConfig(ctx, nil, tx, siteID, cfg)
}

func upsertSiteConfig(ctx context.Context, db *sql.DB, tx *sql.Tx, siteID string, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config nil")
	}
	cfg.Site.ID = siteID
	if err := cfg.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	exec := func(query string, args ...any) (sql.Result, error) {
		if tx != nil {
			return tx.ExecContext(ctx, query, args...)
		}
		return db.ExecContext(ctx, query, args...)
	}
	_, err = exec(`INSERT INTO site_configs(site_id,config_json,created_at,updated_at) VALUES (?,?,?,?)
ON CONFLICT(site_id) DO UPDATE SET config_json=excluded.config_json, updated_at=excluded.updated_at`, siteID, string(payload), now, now)
	return err
}

func (r Repo) GetSiteConfig(ctx context.Context, siteID string) (*config.Config, error) {
	var payload string
	err := r.DB.QueryRowContext(ctx, `SELECT config_json FROM site_configs WHERE site_id=?`, siteID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var cfg config.Config
	if err := json.Unmarshal([]byte(payload), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

const jmtColumns = `id,site_id,title,description,zone,type,status,risk_level,deadline,assigned_to,required_ppe,risks,controls,supervisor,director,comments,work_order_number,method_form,created_at`

func (r Repo) InsertJMTTx(ctx context.Context, tx *sql.Tx, j domain.JMT) error {
	form, err := marshalMethodForm(j.MethodForm)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO jmts(`+jmtColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		j.ID, j.SiteID, j.Title, j.Description, j.Zone, j.Type, j.Status, j.RiskLevel,
		j.Deadline, j.AssignedTo,
		marshalStrings(j.RequiredPPE), marshalStrings(j.Risks), marshalStrings(j.Controls),
		j.Supervisor, j.Director, j.Comments, j.WorkOrderNumber, form, j.CreatedAt)
	return err
}

func (r Repo) UpdateJMTTx(ctx context.Context, tx *sql.Tx, j domain.JMT) error {
	form, err := marshalMethodForm(j.MethodForm)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE jmts SET title=?,description=?,zone=?,type=?,status=?,risk_level=?,deadline=?,assigned_to=?,required_ppe=?,risks=?,controls=?,supervisor=?,director=?,comments=?,work_order_number=?,method_form=? WHERE id=?`,
		j.Title, j.Description, j.Zone, j.Type, j.Status, j.RiskLevel, j.Deadline, j.AssignedTo,
		marshalStrings(j.RequiredPPE), marshalStrings(j.Risks), marshalStrings(j.Controls),
		j.Supervisor, j.Director, j.Comments, j.WorkOrderNumber, form, j.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteJMTTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM jmts WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetJMT(ctx context.Context, id string) (domain.JMT, error) {
	return scanJMT(r.DB.QueryRowContext(ctx, `SELECT `+jmtColumns+` FROM jmts WHERE id=?`, id))
}

func (r Repo) GetJMTTx(ctx context.Context, tx *sql.Tx, id string) (domain.JMT, error) {
	return scanJMT(tx.QueryRowContext(ctx, `SELECT `+jmtColumns+` FROM jmts WHERE id=?`, id))
}

type JMTFilters struct {
	SiteID     string
	Statuses   []string
	RiskLevels []string
	Types      []string
	Query      string
}

func (f JMTFilters) clause() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.SiteID != "" {
		conds = append(conds, "site_id=?")
		args = append(args, f.SiteID)
	}
	if len(f.Statuses) > 0 {
		conds = append(conds, "status IN ("+placeholders(len(f.Statuses))+")")
		for _, s := range f.Statuses {
			args = append(args, s)
		}
	}
	if len(f.RiskLevels) > 0 {
		conds = append(conds, "risk_level IN ("+placeholders(len(f.RiskLevels))+")")
		for _, l := range f.RiskLevels {
			args = append(args, l)
		}
	}
	if len(f.Types) > 0 {
		conds = append(conds, "type IN ("+placeholders(len(f.Types))+")")
		for _, t := range f.Types {
			args = append(args, t)
		}
	}
	if f.Query != "" {
		conds = append(conds, "(instr(lower(title),?) > 0 OR instr(lower(description),?) > 0 OR instr(lower(zone),?) > 0)")
		q := strings.ToLower(f.Query)
		args = append(args, q, q, q)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListJMTs returns JMTs newest first.
func (r Repo) ListJMTs(ctx context.Context, f JMTFilters) ([]domain.JMT, error) {
	where, args := f.clause()
	rows, err := r.DB.QueryContext(ctx, `SELECT `+jmtColumns+` FROM jmts`+where+` ORDER BY seq DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.JMT
	for rows.Next() {
		j, err := scanJMTRows(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, j)
	}
	return res, rows.Err()
}

func (r Repo) CountJMTsByStatus(ctx context.Context, siteID string) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM jmts WHERE site_id=? GROUP BY status`, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJMT(row *sql.Row) (domain.JMT, error) {
	j, err := scanJMTFrom(row)
	if err == sql.ErrNoRows {
		return j, ErrNotFound
	}
	return j, err
}

func scanJMTRows(rows *sql.Rows) (domain.JMT, error) {
	return scanJMTFrom(rows)
}

func scanJMTFrom(row rowScanner) (domain.JMT, error) {
	var (
		j                              domain.JMT
		ppe, risks, controls           sql.NullString
		supervisor, director, comments sql.NullString
		workOrder, form                sql.NullString
	)
	err := row.Scan(&j.ID, &j.SiteID, &j.Title, &j.Description, &j.Zone, &j.Type, &j.Status,
		&j.RiskLevel, &j.Deadline, &j.AssignedTo, &ppe, &risks, &controls,
		&supervisor, &director, &comments, &workOrder, &form, &j.CreatedAt)
	if err != nil {
		return j, err
	}
	j.RequiredPPE = unmarshalStrings(ppe)
	j.Risks = unmarshalStrings(risks)
	j.Controls = unmarshalStrings(controls)
	j.Supervisor = nullableStringPtr(supervisor)
	j.Director = nullableStringPtr(director)
	j.Comments = nullableStringPtr(comments)
	j.WorkOrderNumber = nullableStringPtr(workOrder)
	if form.Valid && form.String != "" {
		var mf domain.MethodForm
		if err := json.Unmarshal([]byte(form.String), &mf); err != nil {
			return j, fmt.Errorf("decode method form for %s: %w", j.ID, err)
		}
		j.MethodForm = &mf
	}
	return j, nil
}

const permitColumns = `id,site_id,jmt_id,number,place,precise_place,date,start_time,end_time,description,responsible,subcontractor,equipment,access,work_modes,persons_max,observations,fall_factor,fall_distance,anchorage,lanyard,harness,rescue_means,rescue_comms,rescue_teams,extra_conditions,comments,status,signatures,supervisor_approval,director_approval,created_at`

func (r Repo) InsertPermitTx(ctx context.Context, tx *sql.Tx, p domain.Permit) error {
	sigs, err := json.Marshal(p.Signatures)
	if err != nil {
		return fmt.Errorf("marshal signatures: %w", err)
	}
	sup, err := marshalApproval(p.SupervisorApproval)
	if err != nil {
		return err
	}
	dir, err := marshalApproval(p.DirectorApproval)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO permits(`+permitColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.SiteID, p.JMTID, p.Number, p.Place, p.PrecisePlace, p.Date, p.StartTime, p.EndTime,
		p.Description, p.Responsible, p.Subcontractor,
		marshalStrings(p.Equipment), marshalStrings(p.Access), marshalStrings(p.WorkModes),
		p.PersonsMax, p.Observations, p.FallFactor, p.FallDistance,
		marshalStrings(p.Anchorage), marshalStrings(p.Lanyard), marshalStrings(p.Harness),
		p.RescueMeans, p.RescueComms, p.RescueTeams, p.ExtraConditions, p.Comments,
		p.Status, string(sigs), sup, dir, p.CreatedAt)
	return err
}

func (r Repo) UpdatePermitTx(ctx context.Context, tx *sql.Tx, p domain.Permit) error {
	sigs, err := json.Marshal(p.Signatures)
	if err != nil {
		return fmt.Errorf("marshal signatures: %w", err)
	}
	sup, err := marshalApproval(p.SupervisorApproval)
	if err != nil {
		return err
	}
	dir, err := marshalApproval(p.DirectorApproval)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE permits SET place=?,precise_place=?,date=?,start_time=?,end_time=?,description=?,responsible=?,subcontractor=?,equipment=?,access=?,work_modes=?,persons_max=?,observations=?,fall_factor=?,fall_distance=?,anchorage=?,lanyard=?,harness=?,rescue_means=?,rescue_comms=?,rescue_teams=?,extra_conditions=?,comments=?,status=?,signatures=?,supervisor_approval=?,director_approval=? WHERE id=?`,
		p.Place, p.PrecisePlace, p.Date, p.StartTime, p.EndTime, p.Description, p.Responsible,
		p.Subcontractor, marshalStrings(p.Equipment), marshalStrings(p.Access), marshalStrings(p.WorkModes),
		p.PersonsMax, p.Observations, p.FallFactor, p.FallDistance,
		marshalStrings(p.Anchorage), marshalStrings(p.Lanyard), marshalStrings(p.Harness),
		p.RescueMeans, p.RescueComms, p.RescueTeams, p.ExtraConditions, p.Comments,
		p.Status, string(sigs), sup, dir, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetPermit(ctx context.Context, id string) (domain.Permit, error) {
	p, err := scanPermitFrom(r.DB.QueryRowContext(ctx, `SELECT `+permitColumns+` FROM permits WHERE id=?`, id))
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	return p, err
}

func (r Repo) GetPermitTx(ctx context.Context, tx *sql.Tx, id string) (domain.Permit, error) {
	p, err := scanPermitFrom(tx.QueryRowContext(ctx, `SELECT `+permitColumns+` FROM permits WHERE id=?`, id))
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	return p, err
}

type PermitFilters struct {
	SiteID   string
	JMTID    string
	Statuses []string
	Query    string
}

func (f PermitFilters) clause() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.SiteID != "" {
		conds = append(conds, "site_id=?")
		args = append(args, f.SiteID)
	}
	if f.JMTID != "" {
		conds = append(conds, "jmt_id=?")
		args = append(args, f.JMTID)
	}
	if len(f.Statuses) > 0 {
		conds = append(conds, "status IN ("+placeholders(len(f.Statuses))+")")
		for _, s := range f.Statuses {
			args = append(args, s)
		}
	}
	if f.Query != "" {
		conds = append(conds, "(instr(lower(number),?) > 0 OR instr(lower(place),?) > 0 OR instr(lower(description),?) > 0)")
		q := strings.ToLower(f.Query)
		args = append(args, q, q, q)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListPermits returns permits newest first.
func (r Repo) ListPermits(ctx context.Context, f PermitFilters) ([]domain.Permit, error) {
	where, args := f.clause()
	rows, err := r.DB.QueryContext(ctx, `SELECT `+permitColumns+` FROM permits`+where+` ORDER BY seq DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Permit
	for rows.Next() {
		p, err := scanPermitFrom(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r Repo) CountPermitsByStatus(ctx context.Context, siteID string) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM permits WHERE site_id=? GROUP BY status`, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func scanPermitFrom(row rowScanner) (domain.Permit, error) {
	var (
		p                                    domain.Permit
		jmtID                                sql.NullString
		equipment, access, workModes         sql.NullString
		personsMax                           sql.NullInt64
		anchorage, lanyard, harness          sql.NullString
		signatures, supApproval, dirApproval sql.NullString
	)
	err := row.Scan(&p.ID, &p.SiteID, &jmtID, &p.Number, &p.Place, &p.PrecisePlace, &p.Date,
		&p.StartTime, &p.EndTime, &p.Description, &p.Responsible, &p.Subcontractor,
		&equipment, &access, &workModes, &personsMax, &p.Observations, &p.FallFactor,
		&p.FallDistance, &anchorage, &lanyard, &harness, &p.RescueMeans, &p.RescueComms,
		&p.RescueTeams, &p.ExtraConditions, &p.Comments, &p.Status, &signatures,
		&supApproval, &dirApproval, &p.CreatedAt)
	if err != nil {
		return p, err
	}
	p.JMTID = nullableStringPtr(jmtID)
	p.Equipment = unmarshalStrings(equipment)
	p.Access = unmarshalStrings(access)
	p.WorkModes = unmarshalStrings(workModes)
	if personsMax.Valid {
		n := int(personsMax.Int64)
		p.PersonsMax = &n
	}
	p.Anchorage = unmarshalStrings(anchorage)
	p.Lanyard = unmarshalStrings(lanyard)
	p.Harness = unmarshalStrings(harness)
	if signatures.Valid && signatures.String != "" {
		if err := json.Unmarshal([]byte(signatures.String), &p.Signatures); err != nil {
			return p, fmt.Errorf("decode signatures for %s: %w", p.ID, err)
		}
	}
	if p.SupervisorApproval, err = unmarshalApproval(supApproval); err != nil {
		return p, fmt.Errorf("decode supervisor approval for %s: %w", p.ID, err)
	}
	if p.DirectorApproval, err = unmarshalApproval(dirApproval); err != nil {
		return p, fmt.Errorf("decode director approval for %s: %w", p.ID, err)
	}
	return p, nil
}

func (r Repo) InsertNotificationTx(ctx context.Context, tx *sql.Tx, n domain.Notification) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO notifications(id,site_id,kind,title,message,read,created_at) VALUES (?,?,?,?,?,?,?)`,
		n.ID, n.SiteID, n.Kind, n.Title, n.Message, boolToInt(n.Read), n.CreatedAt)
	return err
}

// ListNotifications returns notifications newest first.
func (r Repo) ListNotifications(ctx context.Context, siteID string, unreadOnly bool) ([]domain.Notification, error) {
	query := `SELECT id,site_id,kind,title,message,read,created_at FROM notifications WHERE site_id=?`
	if unreadOnly {
		query += ` AND read=0`
	}
	query += ` ORDER BY seq DESC`
	rows, err := r.DB.QueryContext(ctx, query, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var read int
		if err := rows.Scan(&n.ID, &n.SiteID, &n.Kind, &n.Title, &n.Message, &read, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Read = read != 0
		res = append(res, n)
	}
	return res, rows.Err()
}

func (r Repo) MarkNotificationReadTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `UPDATE notifications SET read=1 WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) CountUnreadNotifications(ctx context.Context, siteID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE site_id=? AND read=0`, siteID).Scan(&n)
	return n, err
}

// InsertCatalogValueTx appends a value to a named catalog unless an equal
// value already exists (compared case-insensitively). Returns true when a row
// was inserted.
func (r Repo) InsertCatalogValueTx(ctx context.Context, tx *sql.Tx, v domain.CatalogValue) (bool, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO catalog_values(site_id,kind,value,created_at)
SELECT ?,?,?,? WHERE NOT EXISTS(
    SELECT 1 FROM catalog_values WHERE site_id=? AND kind=? AND lower(value)=lower(?))`,
		v.SiteID, v.Kind, v.Value, v.CreatedAt, v.SiteID, v.Kind, v.Value)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListCatalogValues returns catalog values in insertion order.
func (r Repo) ListCatalogValues(ctx context.Context, siteID, kind string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT value FROM catalog_values WHERE site_id=? AND kind=? ORDER BY rowid`, siteID, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, rows.Err()
}

func (r Repo) ListCatalogs(ctx context.Context, siteID string) (map[string][]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT kind,value FROM catalog_values WHERE site_id=? ORDER BY rowid`, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string][]string{}
	for rows.Next() {
		var kind, value string
		if err := rows.Scan(&kind, &value); err != nil {
			return nil, err
		}
		res[kind] = append(res[kind], value)
	}
	return res, rows.Err()
}

// ListEvents returns the most recent events for a site, newest first.
func (r Repo) ListEvents(ctx context.Context, siteID string, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT id,ts,type,COALESCE(site_id,''),entity_kind,COALESCE(entity_id,''),actor_id,payload_json FROM events WHERE site_id=? OR site_id IS NULL ORDER BY id DESC LIMIT ?`, siteID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.SiteID, &e.EntityKind, &e.EntityID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func marshalStrings(values []string) *string {
	if len(values) == 0 {
		return nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil
	}
	s := string(data)
	return &s
}

func unmarshalStrings(v sql.NullString) []string {
	if !v.Valid || v.String == "" {
		return nil
	}
	var res []string
	if err := json.Unmarshal([]byte(v.String), &res); err != nil {
		return nil
	}
	return res
}

func marshalMethodForm(mf *domain.MethodForm) (*string, error) {
	if mf == nil {
		return nil, nil
	}
	data, err := json.Marshal(mf)
	if err != nil {
		return nil, fmt.Errorf("marshal method form: %w", err)
	}
	s := string(data)
	return &s, nil
}

func marshalApproval(a *domain.Approval) (*string, error) {
	if a == nil {
		return nil, nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal approval: %w", err)
	}
	s := string(data)
	return &s, nil
}

func unmarshalApproval(v sql.NullString) (*domain.Approval, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	var a domain.Approval
	if err := json.Unmarshal([]byte(v.String), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func nullableStringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
