package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"smartpermit/internal/app"
	"smartpermit/internal/catalog"
	"smartpermit/internal/config"
	"smartpermit/internal/db"
	"smartpermit/internal/domain"
	"smartpermit/internal/engine"
	"smartpermit/internal/export"
	"smartpermit/internal/migrate"
	"smartpermit/internal/repo"
	"smartpermit/internal/server"
	"smartpermit/internal/wizard"
)

var rootCmd = &cobra.Command{
	Use:   "sp",
	Short: "SmartPermit CLI",
	Long: `SmartPermit manages workplace safety analyses (JMT), height-work permits
and their approval workflow.

- Workspace: your .smartpermit directory holding the database; site config is
  stored in the DB and seeded from smartpermit.yml defaults.
- JMT: a job method analysis with zone, risk level, protective equipment and
  the six-step method form. Created pending; supervisors and directors
  approve or reject it.
- Permit: a height-work permit, optionally pre-filled from an approved JMT,
  with fall protection, rescue plan and four fixed signature slots.
- Catalogs: the shared value lists (zones, equipment, hazards...) behind
  every multi-select field; they grow as people add values and never shrink.
- Event log: diary of changes, view with 'sp log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("SMARTPERMIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().String("role", "worker", "acting role (worker, supervisor, director)")
	rootCmd.PersistentFlags().String("site", "", "site id (overrides single-site default)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("role", rootCmd.PersistentFlags().Lookup("role"))
	_ = viper.BindPFlag("site", rootCmd.PersistentFlags().Lookup("site"))
}

func registerCommands() {
	rootCmd.AddCommand(siteCmd())
	rootCmd.AddCommand(jmtCmd())
	rootCmd.AddCommand(permitCmd())
	rootCmd.AddCommand(notifCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(keysCmd())
	rootCmd.AddCommand(serveCmd())
}

// ackPrinter surfaces mutation acknowledgments on the terminal, mirroring the
// toast feed a UI would show.
type ackPrinter struct{}

func (ackPrinter) Publish(_ context.Context, ack domain.Ack) {
	if viper.GetBool("json") {
		return
	}
	fmt.Printf("[%s] %s — %s\n", ack.Severity, ack.Title, ack.Message)
}

func siteCmd() *cobra.Command {
	site := &cobra.Command{Use: "site", Short: "Manage sites"}
	site.AddCommand(siteInitCmd())
	site.AddCommand(siteListCmd())
	site.AddCommand(siteSeedDemoCmd())
	site.AddCommand(siteConfigCmd())
	return site
}

func siteInitCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "init <site-id>",
		Short: "Initialize a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			e := engine.New(conn, config.Default(args[0]))
			e.Acks = ackPrinter{}
			s, err := e.InitSite(cmd.Context(), args[0], name, viper.GetString("actor-id"))
			if err != nil {
				return err
			}
			return printJSONOrTable(s)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

func siteListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sites",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListSites(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
}

func siteSeedDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-demo",
		Short: "Load the demonstration dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.SeedDemo(ctx, e.Config.Site.ID, viper.GetString("actor-id"))
			})
		},
	}
}

func siteConfigCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect site config",
		Long:  "Config holds the approver display names, height-detection keywords and the seed values for every catalog. Import from smartpermit.yml if desired.",
	}
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show loaded config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return printJSONOrTable(e.Config)
			})
		},
	})
	cfg.AddCommand(configValidateCmd())
	cfg.AddCommand(configImportCmd())
	return cfg
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate stored config",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.Config.Validate()
			})
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
}

func configImportCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import config from YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromFile(file)
			if err != nil {
				return err
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				siteID, _, err := app.ResolveSiteAndConfig(ctx, viper.GetString("workspace"), viper.GetString("site"), r)
				if err != nil {
					return err
				}
				return r.UpsertSiteConfig(ctx, siteID, cfg)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to YAML config")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func jmtCmd() *cobra.Command {
	jmt := &cobra.Command{Use: "jmt", Short: "Manage JMT safety analyses"}
	jmt.AddCommand(jmtCreateCmd())
	jmt.AddCommand(jmtListCmd())
	jmt.AddCommand(jmtShowCmd())
	jmt.AddCommand(jmtUpdateCmd())
	jmt.AddCommand(jmtDeleteCmd())
	jmt.AddCommand(jmtApproveCmd())
	jmt.AddCommand(jmtRejectCmd())
	jmt.AddCommand(jmtExportCmd())
	return jmt
}

func jmtCreateCmd() *cobra.Command {
	var w wizard.JMT
	var strict bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a JMT",
		Long:  "Builds the six-step analysis from flags and creates it pending. With --strict the minimal required fields (title, description, zone, deadline) are checked first; without it a missing title is generated from the date and zone.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if strict {
					if err := w.ValidateRequired(); err != nil {
						return err
					}
				}
				w.HeightKeywords = e.Config.Detection.HeightKeywords
				opts := w.Finalize(e.Config.Site.ID, viper.GetString("actor-id"), time.Now())
				j, err := e.CreateJMT(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(j)
			})
		},
	}
	cmd.Flags().StringVar(&w.Title, "title", "", "title")
	cmd.Flags().StringVar(&w.Description, "description", "", "work description")
	cmd.Flags().StringVar(&w.Zone, "zone", "", "work zone")
	cmd.Flags().StringVar(&w.Type, "type", "height", "work type (height, tower, confined, electrical)")
	cmd.Flags().StringVar(&w.RiskLevel, "risk", "medium", "risk level (low, medium, high)")
	cmd.Flags().StringVar(&w.Deadline, "deadline", "", "deadline (YYYY-MM-DD)")
	cmd.Flags().StringVar(&w.AssignedTo, "assigned-to", "", "assignee")
	cmd.Flags().StringVar(&w.WorkOrderNumber, "work-order", "", "work order number")
	cmd.Flags().StringVar(&w.Duration, "duration", "", "planned duration")
	cmd.Flags().StringSliceVar(&w.People, "people", nil, "people involved")
	cmd.Flags().StringSliceVar(&w.Materials, "materials", nil, "materials")
	cmd.Flags().StringSliceVar(&w.EPISpecific, "epi-specific", nil, "job-specific protective equipment")
	cmd.Flags().StringSliceVar(&w.EPIComplete, "epi-complete", nil, "standard protective equipment")
	cmd.Flags().StringSliceVar(&w.EnvHazards, "env-hazards", nil, "environment hazards")
	cmd.Flags().StringSliceVar(&w.RiskMeasures, "risk-measures", nil, "risk management measures")
	cmd.Flags().StringVar(&w.ResponsibleName, "responsible", "", "validating responsible")
	cmd.Flags().BoolVar(&strict, "strict", false, "require title, description, zone and deadline")
	return cmd
}

func jmtListCmd() *cobra.Command {
	var view, status, risk, query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List JMTs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListJMTs(ctx, engine.JMTListOptions{
					SiteID:    e.Config.Site.ID,
					Role:      viper.GetString("role"),
					View:      view,
					Query:     query,
					Status:    status,
					RiskLevel: risk,
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Zone", "Type", "Risk", "Status", "Deadline"})
				for _, j := range items {
					tw.AppendRow(table.Row{j.ID, j.Title, j.Zone, j.Type, j.RiskLevel, j.Status, j.Deadline})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&view, "view", "main", "view (main, validation)")
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	cmd.Flags().StringVar(&risk, "risk", "", "risk level filter")
	cmd.Flags().StringVarP(&query, "query", "q", "", "text filter on title, description and zone")
	return cmd
}

func jmtShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a JMT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				j, err := e.GetJMT(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(j)
			})
		},
	}
}

func jmtUpdateCmd() *cobra.Command {
	var title, description, zone, status, risk, deadline, assignedTo string
	var addPPE, removePPE []string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a JMT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changes := engine.JMTUpdate{}
			if cmd.Flags().Changed("title") {
				changes.Title = &title
			}
			if cmd.Flags().Changed("description") {
				changes.Description = &description
			}
			if cmd.Flags().Changed("zone") {
				changes.Zone = &zone
			}
			if cmd.Flags().Changed("status") {
				changes.Status = &status
			}
			if cmd.Flags().Changed("risk") {
				changes.RiskLevel = &risk
			}
			if cmd.Flags().Changed("deadline") {
				changes.Deadline = &deadline
			}
			if cmd.Flags().Changed("assigned-to") {
				changes.AssignedTo = &assignedTo
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				actor := viper.GetString("actor-id")
				if len(addPPE) > 0 || len(removePPE) > 0 {
					if current, err := e.GetJMT(ctx, args[0]); err == nil {
						options, err := e.ListCatalog(ctx, current.SiteID, "epi_complete")
						if err != nil {
							return err
						}
						m := catalog.New(options, current.RequiredPPE)
						for _, v := range addPPE {
							m.Add(v)
							if err := e.AddCatalogValue(ctx, current.SiteID, "epi_complete", v, actor); err != nil {
								return err
							}
						}
						for _, v := range removePPE {
							m.Remove(v)
						}
						changes.RequiredPPE = m.Selection()
					} else if !errors.Is(err, repo.ErrNotFound) {
						return err
					}
				}
				j, err := e.UpdateJMT(ctx, args[0], changes, actor)
				if err != nil {
					return err
				}
				return printJSONOrTable(j)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&zone, "zone", "", "zone")
	cmd.Flags().StringVar(&status, "status", "", "status")
	cmd.Flags().StringVar(&risk, "risk", "", "risk level")
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline")
	cmd.Flags().StringVar(&assignedTo, "assigned-to", "", "assignee")
	cmd.Flags().StringSliceVar(&addPPE, "add-ppe", nil, "PPE values to select")
	cmd.Flags().StringSliceVar(&removePPE, "remove-ppe", nil, "PPE values to deselect")
	return cmd
}

func jmtDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a JMT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteJMT(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
}

func jmtApproveCmd() *cobra.Command {
	var comments string
	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a JMT as the acting role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				j, err := e.ApproveJMT(ctx, args[0], viper.GetString("role"), comments, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(j)
			})
		},
	}
	cmd.Flags().StringVar(&comments, "comments", "", "optional comments")
	return cmd
}

func jmtRejectCmd() *cobra.Command {
	var comments string
	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a JMT as the acting role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Rejection without an explanation is not actionable.
			if strings.TrimSpace(comments) == "" {
				return errors.New("comments are required to reject")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				j, err := e.RejectJMT(ctx, args[0], viper.GetString("role"), comments, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(j)
			})
		},
	}
	cmd.Flags().StringVar(&comments, "comments", "", "rejection reason")
	return cmd
}

func jmtExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write the printable JMT document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				j, err := e.GetJMT(ctx, args[0])
				if err != nil {
					return err
				}
				doc, err := export.Render(j, export.Options{})
				if err != nil {
					return err
				}
				path := out
				if path == "" {
					path = export.Filename(j, time.Now())
				}
				if err := os.WriteFile(path, doc, 0o644); err != nil {
					return err
				}
				fmt.Println(path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (defaults to a generated name)")
	return cmd
}

func permitCmd() *cobra.Command {
	permit := &cobra.Command{Use: "permit", Short: "Manage height-work permits"}
	permit.AddCommand(permitCreateCmd())
	permit.AddCommand(permitFromJMTCmd())
	permit.AddCommand(permitListCmd())
	permit.AddCommand(permitShowCmd())
	permit.AddCommand(permitApproveCmd())
	return permit
}

func permitFlags(cmd *cobra.Command, w *wizard.Permit) {
	cmd.Flags().StringVar(&w.Number, "number", "", "permit number (generated when empty)")
	cmd.Flags().StringVar(&w.Place, "place", "", "place")
	cmd.Flags().StringVar(&w.PrecisePlace, "precise-place", "", "precise place")
	cmd.Flags().StringVar(&w.Date, "date", "", "date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&w.StartTime, "start", "", "start time")
	cmd.Flags().StringVar(&w.EndTime, "end", "", "end time")
	cmd.Flags().StringVar(&w.Description, "description", "", "work description")
	cmd.Flags().StringVar(&w.Responsible, "responsible", "", "site responsible")
	cmd.Flags().StringVar(&w.Subcontractor, "subcontractor", "", "subcontractor")
	cmd.Flags().StringSliceVar(&w.Equipment, "equipment", nil, "work equipment")
	cmd.Flags().StringSliceVar(&w.Access, "access", nil, "access means")
	cmd.Flags().StringSliceVar(&w.WorkModes, "work-modes", nil, "work modes")
	cmd.Flags().StringVar(&w.FallFactor, "fall-factor", "", "fall factor (F0, F1, F2)")
	cmd.Flags().StringVar(&w.FallDistance, "fall-distance", "", "clearance distance")
	cmd.Flags().StringSliceVar(&w.Anchorage, "anchorage", nil, "anchorage points")
	cmd.Flags().StringSliceVar(&w.Lanyard, "lanyard", nil, "lanyards")
	cmd.Flags().StringSliceVar(&w.Harness, "harness", nil, "harnesses")
	cmd.Flags().StringVar(&w.RescueMeans, "rescue-means", "", "rescue means")
	cmd.Flags().StringVar(&w.RescueComms, "rescue-comms", "", "rescue communication")
	cmd.Flags().StringVar(&w.RescueTeams, "rescue-teams", "", "rescue teams")
	cmd.Flags().StringVar(&w.ExtraConditions, "conditions", "", "extra conditions")
	cmd.Flags().StringVar(&w.Comments, "comments", "", "comments")
}

func permitCreateCmd() *cobra.Command {
	var w wizard.Permit
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a height-work permit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.CreatePermit(ctx, w.Finalize(e.Config.Site.ID, viper.GetString("actor-id")))
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	permitFlags(cmd, &w)
	cmd.Flags().StringVar(&w.JMTID, "jmt", "", "linked JMT id")
	return cmd
}

func permitFromJMTCmd() *cobra.Command {
	var w wizard.Permit
	cmd := &cobra.Command{
		Use:   "from-jmt <jmt-id>",
		Short: "Create a permit pre-filled from a JMT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				j, err := e.GetJMT(ctx, args[0])
				if err != nil {
					return err
				}
				draft := wizard.PermitFromJMT(j)
				// Explicit flags win over the pre-filled values.
				if w.Place != "" {
					draft.Place = w.Place
				}
				if w.Date != "" {
					draft.Date = w.Date
				}
				if w.Description != "" {
					draft.Description = w.Description
				}
				if w.Responsible != "" {
					draft.Responsible = w.Responsible
				}
				draft.Number = w.Number
				p, err := e.CreatePermit(ctx, draft.Finalize(e.Config.Site.ID, viper.GetString("actor-id")))
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	permitFlags(cmd, &w)
	return cmd
}

func permitListCmd() *cobra.Command {
	var jmtID, status, query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List permits",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListPermits(ctx, engine.PermitListOptions{
					SiteID: e.Config.Site.ID,
					JMTID:  jmtID,
					Status: status,
					Query:  query,
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Number", "Place", "Date", "Status", "JMT"})
				for _, p := range items {
					jmt := ""
					if p.JMTID != nil {
						jmt = *p.JMTID
					}
					tw.AppendRow(table.Row{p.ID, p.Number, p.Place, p.Date, p.Status, jmt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&jmtID, "jmt", "", "filter by linked JMT")
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	cmd.Flags().StringVarP(&query, "query", "q", "", "text filter on number, place and description")
	return cmd
}

func permitShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a permit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.GetPermit(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
}

func permitApproveCmd() *cobra.Command {
	var comments string
	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a permit as the acting role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.ApprovePermit(ctx, args[0], viper.GetString("role"), comments, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&comments, "comments", "", "optional comments")
	return cmd
}

func notifCmd() *cobra.Command {
	notif := &cobra.Command{Use: "notif", Short: "Manage notifications"}
	notif.AddCommand(notifListCmd())
	notif.AddCommand(notifReadCmd())
	return notif
}

func notifListCmd() *cobra.Command {
	var unread bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListNotifications(ctx, e.Config.Site.ID, unread)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Kind", "Title", "Read", "Created"})
				for _, n := range items {
					tw.AppendRow(table.Row{n.ID, n.Kind, n.Title, n.Read, n.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "unread only")
	return cmd
}

func notifReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.MarkNotificationRead(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
}

func catalogCmd() *cobra.Command {
	cat := &cobra.Command{Use: "catalog", Short: "Manage value catalogs"}
	cat.AddCommand(catalogListCmd())
	cat.AddCommand(catalogAddCmd())
	cat.AddCommand(catalogOptionsCmd())
	return cat
}

func catalogListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [kind]",
		Short: "List catalog values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if len(args) == 1 {
					values, err := e.ListCatalog(ctx, e.Config.Site.ID, args[0])
					if err != nil {
						return err
					}
					return printJSONOrTable(values)
				}
				catalogs, err := e.Repo.ListCatalogs(ctx, e.Config.Site.ID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(catalogs)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Kind", "Values"})
				for _, kind := range config.CatalogKinds {
					tw.AppendRow(table.Row{kind, strings.Join(catalogs[kind], ", ")})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func catalogAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <kind> <value>",
		Short: "Append a value to a catalog",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.AddCatalogValue(ctx, e.Config.Site.ID, args[0], args[1], viper.GetString("actor-id"))
			})
		},
	}
}

func catalogOptionsCmd() *cobra.Command {
	var selected []string
	var query string
	cmd := &cobra.Command{
		Use:   "options <kind>",
		Short: "Values still offerable given a current selection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts, err := e.RemainingCatalog(ctx, e.Config.Site.ID, args[0], selected, query)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(opts)
				}
				for _, v := range opts.Values {
					fmt.Println(v)
				}
				if opts.CanCreate {
					fmt.Printf("%q is not in the catalog yet; use `sp catalog add %s %q` to create it.\n", query, args[0], query)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&selected, "selected", nil, "values already selected")
	cmd.Flags().StringVarP(&query, "query", "q", "", "substring filter")
	return cmd
}

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"status"},
		Short:   "Workflow counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				stats, err := e.Dashboard(ctx, e.Config.Site.ID)
				if err != nil {
					return err
				}
				return printJSONOrTable(stats)
			})
		},
	}
}

func logCmd() *cobra.Command {
	log := &cobra.Command{Use: "log", Short: "Inspect the event log"}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				events, err := e.Repo.ListEvents(ctx, e.Config.Site.ID, n)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	return cmd
}

func keysCmd() *cobra.Command {
	keys := &cobra.Command{Use: "keys", Short: "Manage API keys"}
	keys.AddCommand(keysCreateCmd())
	keys.AddCommand(keysListCmd())
	keys.AddCommand(keysDeleteCmd())
	return keys
}

func keysCreateCmd() *cobra.Command {
	var name, role string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				secret := uuid.New().String()
				key := domain.APIKey{
					ID:      uuid.New().String(),
					ActorID: viper.GetString("actor-id"),
					Role:    role,
					Name:    name,
					KeyHash: repo.HashAPIKey(secret),
				}
				if err := r.InsertAPIKey(ctx, nil, key); err != nil {
					return err
				}
				// The secret is only shown once.
				return printJSONOrTable(map[string]string{"id": key.ID, "key": secret, "role": key.Role})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "key label")
	cmd.Flags().StringVar(&role, "key-role", "worker", "role carried by the key")
	return cmd
}

func keysListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListAPIKeys(ctx, "")
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
}

func keysDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeleteAPIKey(ctx, args[0])
			})
		},
	}
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			r := repo.Repo{DB: conn}
			_, cfg, err := app.ResolveSiteAndConfig(cmd.Context(), workspace, viper.GetString("site"), r)
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			authCfg := server.AuthConfig{JWTSecret: os.Getenv("SMARTPERMIT_JWT_SECRET")}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("SMARTPERMIT_JWT_SECRET is required for bearer auth")
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving SmartPermit API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	_, cfg, err := app.ResolveSiteAndConfig(ctx, workspace, viper.GetString("site"), r)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	e.Acks = ackPrinter{}
	return fn(ctx, e)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
