package engine_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"smartpermit/internal/config"
	"smartpermit/internal/db"
	"smartpermit/internal/domain"
	"smartpermit/internal/engine"
	"smartpermit/internal/migrate"
)

type ackRecorder struct {
	acks []domain.Ack
}

func (r *ackRecorder) Publish(_ context.Context, ack domain.Ack) {
	r.acks = append(r.acks, ack)
}

type testEnv struct {
	Engine engine.Engine
	Acks   *ackRecorder
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default("site-1")
	eng := engine.New(conn, cfg)
	eng.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	rec := &ackRecorder{}
	eng.Acks = rec
	ctx := context.Background()
	if _, err := eng.InitSite(ctx, "site-1", "Usine Nord", "tester"); err != nil {
		t.Fatalf("init site: %v", err)
	}
	return testEnv{Engine: eng, Acks: rec, Ctx: ctx}
}

func createJMT(t *testing.T, env testEnv, opts engine.JMTCreateOptions) domain.JMT {
	t.Helper()
	if opts.SiteID == "" {
		opts.SiteID = "site-1"
	}
	if opts.ActorID == "" {
		opts.ActorID = "tester"
	}
	j, err := env.Engine.CreateJMT(env.Ctx, opts)
	if err != nil {
		t.Fatalf("create jmt: %v", err)
	}
	return j
}

func TestCreateJMTForcesPending(t *testing.T) {
	env := newTestEnv(t)
	j := createJMT(t, env, engine.JMTCreateOptions{Title: "Maintenance ascenseur", Zone: "Tour A"})
	if j.Status != domain.StatusPending {
		t.Fatalf("status = %q, want pending", j.Status)
	}
	if j.Type != domain.TypeHeight || j.RiskLevel != domain.RiskMedium {
		t.Fatalf("defaults not applied: type=%q risk=%q", j.Type, j.RiskLevel)
	}
	notifs, err := env.Engine.ListNotifications(env.Ctx, "site-1", true)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifs) != 1 || notifs[0].Title != "Nouvelle JMT créée" {
		t.Fatalf("unexpected notifications: %+v", notifs)
	}
}

func TestCreateJMTUniqueIDsNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	// Same title under a frozen clock: ids must still differ and the list
	// must return the most recent creation first.
	first := createJMT(t, env, engine.JMTCreateOptions{Title: "Inspection"})
	second := createJMT(t, env, engine.JMTCreateOptions{Title: "Inspection"})
	if first.ID == second.ID {
		t.Fatalf("ids collide: %s", first.ID)
	}
	items, err := env.Engine.ListJMTs(env.Ctx, engine.JMTListOptions{SiteID: "site-1", Role: domain.RoleWorker})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].ID != second.ID {
		t.Fatalf("expected newest first, got %+v", items)
	}
}

func TestApproveSetsRoleSlot(t *testing.T) {
	env := newTestEnv(t)
	j := createJMT(t, env, engine.JMTCreateOptions{Title: "Travaux toiture"})

	j2, err := env.Engine.ApproveJMT(env.Ctx, j.ID, domain.RoleSupervisor, "", "sup-1")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if j2.Status != domain.StatusApproved {
		t.Fatalf("status = %q, want approved", j2.Status)
	}
	if j2.Supervisor == nil || *j2.Supervisor != "M. Dupont" {
		t.Fatalf("supervisor slot = %v, want M. Dupont", j2.Supervisor)
	}
	if j2.Director != nil {
		t.Fatalf("director slot should stay empty, got %v", *j2.Director)
	}

	j3, err := env.Engine.ApproveJMT(env.Ctx, j.ID, domain.RoleDirector, "RAS", "dir-1")
	if err != nil {
		t.Fatalf("approve as director: %v", err)
	}
	if j3.Director == nil || *j3.Director != "M. Martin" {
		t.Fatalf("director slot = %v, want M. Martin", j3.Director)
	}
	if j3.Supervisor == nil {
		t.Fatalf("supervisor slot lost on director approval")
	}
	if j3.Comments == nil || *j3.Comments != "RAS" {
		t.Fatalf("comments = %v", j3.Comments)
	}
}

func TestWorkerCannotApprove(t *testing.T) {
	env := newTestEnv(t)
	j := createJMT(t, env, engine.JMTCreateOptions{Title: "Nacelle"})
	if _, err := env.Engine.ApproveJMT(env.Ctx, j.ID, domain.RoleWorker, "", "w-1"); err == nil {
		t.Fatalf("expected role error")
	}
	if _, err := env.Engine.RejectJMT(env.Ctx, j.ID, "visitor", "non", "w-1"); err == nil {
		t.Fatalf("expected role error for unknown role")
	}
}

func TestRejectUnknownIDIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	j, err := env.Engine.RejectJMT(env.Ctx, "missing", domain.RoleSupervisor, "incomplet", "sup-1")
	if err != nil {
		t.Fatalf("reject unknown id: %v", err)
	}
	if j.ID != "" {
		t.Fatalf("expected zero JMT, got %+v", j)
	}
}

func TestRejectWithoutCommentAllowedAtEngine(t *testing.T) {
	env := newTestEnv(t)
	j := createJMT(t, env, engine.JMTCreateOptions{Title: "Echafaudage"})
	j2, err := env.Engine.RejectJMT(env.Ctx, j.ID, domain.RoleDirector, "", "dir-1")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if j2.Status != domain.StatusRejected {
		t.Fatalf("status = %q, want rejected", j2.Status)
	}
	if j2.Comments != nil {
		t.Fatalf("comments should stay empty, got %v", *j2.Comments)
	}
}

func TestUpdateUnknownIDStillAcks(t *testing.T) {
	env := newTestEnv(t)
	env.Acks.acks = nil
	title := "Nouveau titre"
	j, err := env.Engine.UpdateJMT(env.Ctx, "missing", engine.JMTUpdate{Title: &title}, "tester")
	if err != nil {
		t.Fatalf("update unknown id: %v", err)
	}
	if j.ID != "" {
		t.Fatalf("expected zero JMT, got %+v", j)
	}
	if len(env.Acks.acks) != 1 || env.Acks.acks[0].Title != "JMT mise à jour" {
		t.Fatalf("expected update ack, got %+v", env.Acks.acks)
	}
}

func TestRoleVisibilityMatrix(t *testing.T) {
	env := newTestEnv(t)
	pending := createJMT(t, env, engine.JMTCreateOptions{Title: "pending", RiskLevel: domain.RiskLow})
	approvedLow := createJMT(t, env, engine.JMTCreateOptions{Title: "approved low", RiskLevel: domain.RiskLow})
	approvedHigh := createJMT(t, env, engine.JMTCreateOptions{Title: "approved high", RiskLevel: domain.RiskHigh})
	rejected := createJMT(t, env, engine.JMTCreateOptions{Title: "rejected"})
	if _, err := env.Engine.ApproveJMT(env.Ctx, approvedLow.ID, domain.RoleSupervisor, "", "sup"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.ApproveJMT(env.Ctx, approvedHigh.ID, domain.RoleSupervisor, "", "sup"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.RejectJMT(env.Ctx, rejected.ID, domain.RoleSupervisor, "incomplet", "sup"); err != nil {
		t.Fatal(err)
	}

	list := func(role, view string) map[string]bool {
		t.Helper()
		items, err := env.Engine.ListJMTs(env.Ctx, engine.JMTListOptions{SiteID: "site-1", Role: role, View: view})
		if err != nil {
			t.Fatalf("list %s/%s: %v", role, view, err)
		}
		ids := map[string]bool{}
		for _, j := range items {
			ids[j.ID] = true
		}
		return ids
	}

	worker := list(domain.RoleWorker, engine.ViewMain)
	if len(worker) != 4 {
		t.Fatalf("worker main view: got %d items, want 4", len(worker))
	}
	sup := list(domain.RoleSupervisor, engine.ViewMain)
	if len(sup) != 3 || sup[rejected.ID] {
		t.Fatalf("supervisor main view: %v", sup)
	}
	supVal := list(domain.RoleSupervisor, engine.ViewValidation)
	if len(supVal) != 1 || !supVal[pending.ID] {
		t.Fatalf("supervisor validation view: %v", supVal)
	}
	dirVal := list(domain.RoleDirector, engine.ViewValidation)
	if len(dirVal) != 2 || !dirVal[pending.ID] || !dirVal[approvedHigh.ID] {
		t.Fatalf("director validation view: %v", dirVal)
	}
	director := list(domain.RoleDirector, engine.ViewMain)
	if len(director) != 4 {
		t.Fatalf("director main view: got %d items, want 4", len(director))
	}
}

func TestCatalogAddDeduplicates(t *testing.T) {
	env := newTestEnv(t)
	before, err := env.Engine.ListCatalog(env.Ctx, "site-1", "epi_complete")
	if err != nil {
		t.Fatalf("list catalog: %v", err)
	}
	// "Casque" is seeded; a case variant must not create a duplicate.
	if err := env.Engine.AddCatalogValue(env.Ctx, "site-1", "epi_complete", "  CASQUE  ", "tester"); err != nil {
		t.Fatalf("add duplicate: %v", err)
	}
	after, err := env.Engine.ListCatalog(env.Ctx, "site-1", "epi_complete")
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != len(before) {
		t.Fatalf("duplicate appended: %v", after)
	}
	if err := env.Engine.AddCatalogValue(env.Ctx, "site-1", "epi_complete", "Gilet haute visibilité", "tester"); err != nil {
		t.Fatalf("add new value: %v", err)
	}
	after, err = env.Engine.ListCatalog(env.Ctx, "site-1", "epi_complete")
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != len(before)+1 || after[len(after)-1] != "Gilet haute visibilité" {
		t.Fatalf("new value not appended last: %v", after)
	}
	if err := env.Engine.AddCatalogValue(env.Ctx, "site-1", "unknown_kind", "x", "tester"); err == nil {
		t.Fatalf("expected unknown catalog error")
	}
}

func TestCatalogRemainingOptions(t *testing.T) {
	env := newTestEnv(t)
	// Seeded epi_complete: Casque, Gants, Harnais, Chaussures S3. A selection
	// is excluded case-insensitively.
	opts, err := env.Engine.RemainingCatalog(env.Ctx, "site-1", "epi_complete", []string{"casque"}, "")
	if err != nil {
		t.Fatalf("remaining catalog: %v", err)
	}
	for _, v := range opts.Values {
		if v == "Casque" {
			t.Fatalf("selected value still offered: %v", opts.Values)
		}
	}
	if len(opts.Values) != 3 {
		t.Fatalf("values = %v, want 3 remaining", opts.Values)
	}
	if opts.CanCreate {
		t.Fatalf("empty query must not offer creation")
	}

	opts, err = env.Engine.RemainingCatalog(env.Ctx, "site-1", "epi_complete", nil, "ha")
	if err != nil {
		t.Fatal(err)
	}
	if len(opts.Values) != 2 {
		// Chaussures S3 and Harnais both contain "ha".
		t.Fatalf("filtered values = %v", opts.Values)
	}

	opts, err = env.Engine.RemainingCatalog(env.Ctx, "site-1", "epi_complete", nil, "Gilet")
	if err != nil {
		t.Fatal(err)
	}
	if !opts.CanCreate {
		t.Fatalf("unknown query must offer creation")
	}
	opts, err = env.Engine.RemainingCatalog(env.Ctx, "site-1", "epi_complete", nil, "gants")
	if err != nil {
		t.Fatal(err)
	}
	if opts.CanCreate {
		t.Fatalf("known value must not offer creation")
	}

	if _, err := env.Engine.RemainingCatalog(env.Ctx, "site-1", "unknown_kind", nil, ""); err == nil {
		t.Fatalf("expected unknown catalog error")
	}
}

func TestCreateJMTAcceptsEmptyDraft(t *testing.T) {
	env := newTestEnv(t)
	j := createJMT(t, env, engine.JMTCreateOptions{})
	if j.Title != "" {
		t.Fatalf("title = %q, want empty", j.Title)
	}
	if j.Status != domain.StatusPending {
		t.Fatalf("status = %q, want pending", j.Status)
	}
	got, err := env.Engine.GetJMT(env.Ctx, j.ID)
	if err != nil {
		t.Fatalf("get jmt: %v", err)
	}
	if got.Title != "" {
		t.Fatalf("stored title = %q, want empty", got.Title)
	}
}

func TestPermitSignatureSlotsAndApproval(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.Engine.CreatePermit(env.Ctx, engine.PermitCreateOptions{
		SiteID:      "site-1",
		Place:       "Tour A",
		Responsible: "J. Bernard",
		ActorID:     "tester",
	})
	if err != nil {
		t.Fatalf("create permit: %v", err)
	}
	if len(p.Signatures) != len(domain.SignatureRoles) {
		t.Fatalf("signature slots = %d, want %d", len(p.Signatures), len(domain.SignatureRoles))
	}
	if p.Signatures[0].Role != "Responsable LHM" || p.Signatures[0].Name != "J. Bernard" {
		t.Fatalf("first slot: %+v", p.Signatures[0])
	}
	if !strings.HasPrefix(p.Number, "PTH-20240101-") {
		t.Fatalf("generated number = %q", p.Number)
	}

	p2, err := env.Engine.ApprovePermit(env.Ctx, p.ID, domain.RoleSupervisor, "", "sup-1")
	if err != nil {
		t.Fatalf("approve permit: %v", err)
	}
	if p2.SupervisorApproval == nil || !p2.SupervisorApproval.Approved {
		t.Fatalf("supervisor approval missing: %+v", p2)
	}
	if p2.SupervisorApproval.Name != "M. Dupont" {
		t.Fatalf("supervisor approval name = %q", p2.SupervisorApproval.Name)
	}
	if p2.DirectorApproval != nil {
		t.Fatalf("director slot touched by supervisor approval")
	}
	if p2.Status != domain.StatusApproved {
		t.Fatalf("status = %q, want approved", p2.Status)
	}

	p3, err := env.Engine.ApprovePermit(env.Ctx, p.ID, domain.RoleDirector, "ok", "dir-1")
	if err != nil {
		t.Fatalf("approve as director: %v", err)
	}
	if p3.DirectorApproval == nil || p3.SupervisorApproval == nil {
		t.Fatalf("both slots expected after both approvals: %+v", p3)
	}
}

func TestPermitRequiresKnownJMT(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.CreatePermit(env.Ctx, engine.PermitCreateOptions{
		SiteID: "site-1", JMTID: "missing", ActorID: "tester",
	})
	if err == nil {
		t.Fatalf("expected unknown jmt error")
	}
}

func TestDashboardAndNotifications(t *testing.T) {
	env := newTestEnv(t)
	a := createJMT(t, env, engine.JMTCreateOptions{Title: "a"})
	createJMT(t, env, engine.JMTCreateOptions{Title: "b"})
	if _, err := env.Engine.ApproveJMT(env.Ctx, a.ID, domain.RoleSupervisor, "", "sup"); err != nil {
		t.Fatal(err)
	}
	stats, err := env.Engine.Dashboard(env.Ctx, "site-1")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if stats.JMTsByStatus[domain.StatusPending] != 1 || stats.JMTsByStatus[domain.StatusApproved] != 1 {
		t.Fatalf("stats = %+v", stats.JMTsByStatus)
	}
	// two creations plus one approval
	if stats.UnreadNotifications != 3 {
		t.Fatalf("unread = %d, want 3", stats.UnreadNotifications)
	}

	notifs, err := env.Engine.ListNotifications(env.Ctx, "site-1", true)
	if err != nil {
		t.Fatal(err)
	}
	if err := env.Engine.MarkNotificationRead(env.Ctx, notifs[0].ID, "tester"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	// unknown id is a silent no-op
	if err := env.Engine.MarkNotificationRead(env.Ctx, "missing", "tester"); err != nil {
		t.Fatalf("mark read unknown id: %v", err)
	}
	stats, err = env.Engine.Dashboard(env.Ctx, "site-1")
	if err != nil {
		t.Fatal(err)
	}
	if stats.UnreadNotifications != 2 {
		t.Fatalf("unread after read = %d, want 2", stats.UnreadNotifications)
	}
}

func TestSearchMatchesCaseInsensitively(t *testing.T) {
	env := newTestEnv(t)
	createJMT(t, env, engine.JMTCreateOptions{Title: "Maintenance ascenseur", Zone: "Tour A"})
	createJMT(t, env, engine.JMTCreateOptions{Title: "Inspection antenne", Zone: "Toit B"})
	items, err := env.Engine.ListJMTs(env.Ctx, engine.JMTListOptions{
		SiteID: "site-1", Role: domain.RoleWorker, Query: "ASCENSEUR",
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Maintenance ascenseur" {
		t.Fatalf("search results: %+v", items)
	}
}

func TestEventAppendOnStateChanges(t *testing.T) {
	env := newTestEnv(t)
	j := createJMT(t, env, engine.JMTCreateOptions{Title: "evented"})
	if _, err := env.Engine.ApproveJMT(env.Ctx, j.ID, domain.RoleSupervisor, "", "sup"); err != nil {
		t.Fatal(err)
	}
	if err := env.Engine.DeleteJMT(env.Ctx, j.ID, "tester"); err != nil {
		t.Fatal(err)
	}
	events, err := env.Engine.Repo.ListEvents(env.Ctx, "site-1", 0)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	seen := map[string]bool{}
	for _, ev := range events {
		if ev.EntityID == j.ID {
			seen[ev.Type] = true
		}
	}
	for _, want := range []string{"jmt.created", "jmt.approved", "jmt.deleted"} {
		if !seen[want] {
			t.Fatalf("missing event %s in %v", want, seen)
		}
	}
}

func TestSeedDemo(t *testing.T) {
	env := newTestEnv(t)
	if err := env.Engine.SeedDemo(env.Ctx, "site-1", "tester"); err != nil {
		t.Fatalf("seed demo: %v", err)
	}
	items, err := env.Engine.ListJMTs(env.Ctx, engine.JMTListOptions{SiteID: "site-1", Role: domain.RoleWorker})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("demo jmts = %d, want 3", len(items))
	}
}
