package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"smartpermit/internal/domain"
	"smartpermit/internal/engine"
	"smartpermit/internal/export"
	"smartpermit/internal/repo"
	"smartpermit/internal/wizard"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"bad_request"`
	Message string         `json:"message" example:"comment is required"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true" example:"{\"field\":\"comments\"}"`
}

type requestKey struct{}
type bodyBytesKey struct{}

// apiError models the required error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the SmartPermit API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the requested envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema/request validation errors should be 400 bad_request
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			ctx := context.WithValue(r.Context(), requestKey{}, r)
			ctx = context.WithValue(ctx, bodyBytesKey{}, bodyBytes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Use(newAuthMiddleware(basePath, cfg.Auth, cfg.Engine.Repo))
	hcfg := huma.DefaultConfig("SmartPermit API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerStatus(group, cfg.Engine)
	registerJMTs(group, cfg.Engine)
	registerPermits(group, cfg.Engine)
	registerNotifications(group, cfg.Engine)
	registerCatalogs(group, cfg.Engine)
	registerDetect(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerMe(group)
	registerDevAuth(group, cfg.Auth)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "cannot approve"):
		return newAPIError(http.StatusForbidden, "forbidden", msg, nil)
	case strings.Contains(lowered, "invalid") || strings.Contains(lowered, "missing") || strings.Contains(lowered, "required") || strings.Contains(lowered, "unknown catalog"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func bodyBytes(ctx context.Context) []byte {
	if b, ok := ctx.Value(bodyBytesKey{}).([]byte); ok {
		return b
	}
	return nil
}

func siteID(e engine.Engine) string {
	if e.Config != nil {
		return e.Config.Site.ID
	}
	return ""
}

func heightKeywords(e engine.Engine) []string {
	if e.Config != nil && len(e.Config.Detection.HeightKeywords) > 0 {
		return e.Config.Detection.HeightKeywords
	}
	return []string{"hauteur"}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{Ref: "#/components/schemas/ApiError"},
					},
				},
			}
		}
	}
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	oas.Components.SecuritySchemes["apiKeyAuth"] = &huma.SecurityScheme{
		Type: "apiKey",
		In:   "header",
		Name: "X-Api-Key",
	}
	security := []map[string][]string{
		{"bearerAuth": {}},
		{"apiKeyAuth": {}},
	}
	oas.Security = security
	healthPath := path.Join(basePath, "health")
	devLoginPath := path.Join(basePath, "auth/dev/login")
	if !strings.HasPrefix(healthPath, "/") {
		healthPath = "/" + healthPath
	}
	if !strings.HasPrefix(devLoginPath, "/") {
		devLoginPath = "/" + devLoginPath
	}
	for route, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if route == healthPath || route == devLoginPath {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>SmartPermit API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt; or X-Api-Key.
    </p>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerStatus(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "dashboard",
		Method:      http.MethodGet,
		Path:        "/dashboard",
		Summary:     "Workflow counters",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body DashboardResponse `json:"body"`
	}, error) {
		stats, err := e.Dashboard(ctx, siteID(e))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DashboardResponse `json:"body"`
		}{Body: dashboardResponse(stats)}, nil
	})
}

func registerJMTs(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-jmt",
		Method:        http.MethodPost,
		Path:          "/jmts",
		Summary:       "Create JMT",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateJMTRequest `json:"body"`
	}) (*struct {
		Body JMTResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		req := input.Body
		if req.Strict {
			var missing []string
			for field, value := range map[string]string{
				"title": req.Title, "description": req.Description,
				"zone": req.Zone, "deadline": req.Deadline,
			} {
				if strings.TrimSpace(value) == "" {
					missing = append(missing, field)
				}
			}
			if len(missing) > 0 {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "missing required fields", map[string]any{"fields": missing})
			}
		}
		if strings.TrimSpace(req.Title) == "" {
			req.Title = wizard.DefaultTitle(req.Zone, time.Now())
		}
		if req.MethodForm != nil {
			// Detection is always recomputed server side.
			req.MethodForm.Detection = wizard.Detect(req.Type, req.MethodForm.EnvHazards, heightKeywords(e))
		}
		j, err := e.CreateJMT(ctx, engine.JMTCreateOptions{
			SiteID:          siteID(e),
			Title:           req.Title,
			Description:     req.Description,
			Zone:            req.Zone,
			Type:            req.Type,
			RiskLevel:       req.RiskLevel,
			Deadline:        req.Deadline,
			AssignedTo:      req.AssignedTo,
			RequiredPPE:     req.RequiredPPE,
			Risks:           req.Risks,
			Controls:        req.Controls,
			WorkOrderNumber: req.WorkOrderNumber,
			MethodForm:      req.MethodForm,
			ActorID:         actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body JMTResponse `json:"body"`
		}{Body: jmtResponse(j)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-jmts",
		Method:      http.MethodGet,
		Path:        "/jmts",
		Summary:     "List JMTs",
	}, func(ctx context.Context, input *struct {
		View   string `query:"view" enum:"main,validation" default:"main"`
		Status string `query:"status"`
		Risk   string `query:"risk"`
		Query  string `query:"q"`
	}) (*struct {
		Body []JMTResponse `json:"body"`
	}, error) {
		items, err := e.ListJMTs(ctx, engine.JMTListOptions{
			SiteID:    siteID(e),
			Role:      roleFromContext(ctx),
			View:      input.View,
			Query:     input.Query,
			Status:    input.Status,
			RiskLevel: input.Risk,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []JMTResponse `json:"body"`
		}{Body: mapJMTs(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-jmt",
		Method:      http.MethodGet,
		Path:        "/jmts/{jmt_id}",
		Summary:     "Get JMT",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		JMTID string `path:"jmt_id"`
	}) (*struct {
		Body JMTResponse `json:"body"`
	}, error) {
		j, err := e.GetJMT(ctx, input.JMTID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body JMTResponse `json:"body"`
		}{Body: jmtResponse(j)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-jmt",
		Method:      http.MethodPatch,
		Path:        "/jmts/{jmt_id}",
		Summary:     "Update JMT",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		JMTID string           `path:"jmt_id"`
		Body  UpdateJMTRequest `json:"body"`
	}) (*struct {
		Body JMTResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		j, err := e.UpdateJMT(ctx, input.JMTID, engine.JMTUpdate{
			Title:           input.Body.Title,
			Description:     input.Body.Description,
			Zone:            input.Body.Zone,
			Type:            input.Body.Type,
			Status:          input.Body.Status,
			RiskLevel:       input.Body.RiskLevel,
			Deadline:        input.Body.Deadline,
			AssignedTo:      input.Body.AssignedTo,
			RequiredPPE:     input.Body.RequiredPPE,
			Risks:           input.Body.Risks,
			Controls:        input.Body.Controls,
			Comments:        input.Body.Comments,
			WorkOrderNumber: input.Body.WorkOrderNumber,
			MethodForm:      input.Body.MethodForm,
		}, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body JMTResponse `json:"body"`
		}{Body: jmtResponse(j)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-jmt",
		Method:        http.MethodDelete,
		Path:          "/jmts/{jmt_id}",
		Summary:       "Delete JMT",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		JMTID string `path:"jmt_id"`
	}) (*struct{}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteJMT(ctx, input.JMTID, actorID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "approve-jmt",
		Method:      http.MethodPost,
		Path:        "/jmts/{jmt_id}/approve",
		Summary:     "Approve JMT",
		Errors:      []int{http.StatusForbidden, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		JMTID string          `path:"jmt_id"`
		Body  DecisionRequest `json:"body"`
	}) (*struct {
		Body JMTResponse `json:"body"`
	}, error) {
		if err := requireApprover(ctx); err != nil {
			return nil, err
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		j, err := e.ApproveJMT(ctx, input.JMTID, roleFromContext(ctx), input.Body.Comments, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body JMTResponse `json:"body"`
		}{Body: jmtResponse(j)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reject-jmt",
		Method:      http.MethodPost,
		Path:        "/jmts/{jmt_id}/reject",
		Summary:     "Reject JMT",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		JMTID string          `path:"jmt_id"`
		Body  DecisionRequest `json:"body"`
	}) (*struct {
		Body JMTResponse `json:"body"`
	}, error) {
		if err := requireApprover(ctx); err != nil {
			return nil, err
		}
		// The store itself stays permissive; the comment gate lives here,
		// where the action is triggered.
		if strings.TrimSpace(input.Body.Comments) == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "comment is required to reject", map[string]any{"field": "comments"})
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		j, err := e.RejectJMT(ctx, input.JMTID, roleFromContext(ctx), input.Body.Comments, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body JMTResponse `json:"body"`
		}{Body: jmtResponse(j)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "jmt-permit-draft",
		Method:      http.MethodGet,
		Path:        "/jmts/{jmt_id}/permit-draft",
		Summary:     "Pre-filled permit draft from a JMT",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		JMTID string `path:"jmt_id"`
	}) (*struct {
		Body PermitDraftResponse `json:"body"`
	}, error) {
		j, err := e.GetJMT(ctx, input.JMTID)
		if err != nil {
			return nil, handleError(err)
		}
		w := wizard.PermitFromJMT(j)
		return &struct {
			Body PermitDraftResponse `json:"body"`
		}{Body: PermitDraftResponse{
			JMTID:       w.JMTID,
			Place:       w.Place,
			Date:        w.Date,
			Description: w.Description,
			Responsible: w.Responsible,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "jmt-document",
		Method:      http.MethodGet,
		Path:        "/jmts/{jmt_id}/document",
		Summary:     "Printable JMT document",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		JMTID string `path:"jmt_id"`
	}) (*struct {
		ContentType        string `header:"Content-Type"`
		ContentDisposition string `header:"Content-Disposition"`
		Body               []byte
	}, error) {
		j, err := e.GetJMT(ctx, input.JMTID)
		if err != nil {
			return nil, handleError(err)
		}
		doc, err := export.Render(j, export.Options{})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			ContentType        string `header:"Content-Type"`
			ContentDisposition string `header:"Content-Disposition"`
			Body               []byte
		}{
			ContentType:        "text/html; charset=utf-8",
			ContentDisposition: fmt.Sprintf("attachment; filename=%q", export.Filename(j, time.Now())),
			Body:               doc,
		}, nil
	})
}

func registerPermits(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-permit",
		Method:        http.MethodPost,
		Path:          "/permits",
		Summary:       "Create height-work permit",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body CreatePermitRequest `json:"body"`
	}) (*struct {
		Body PermitResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		req := input.Body
		p, err := e.CreatePermit(ctx, engine.PermitCreateOptions{
			SiteID:          siteID(e),
			JMTID:           req.JMTID,
			Number:          req.Number,
			Place:           req.Place,
			PrecisePlace:    req.PrecisePlace,
			Date:            req.Date,
			StartTime:       req.StartTime,
			EndTime:         req.EndTime,
			Description:     req.Description,
			Responsible:     req.Responsible,
			Subcontractor:   req.Subcontractor,
			Equipment:       req.Equipment,
			Access:          req.Access,
			WorkModes:       req.WorkModes,
			PersonsMax:      req.PersonsMax,
			Observations:    req.Observations,
			FallFactor:      req.FallFactor,
			FallDistance:    req.FallDistance,
			Anchorage:       req.Anchorage,
			Lanyard:         req.Lanyard,
			Harness:         req.Harness,
			RescueMeans:     req.RescueMeans,
			RescueComms:     req.RescueComms,
			RescueTeams:     req.RescueTeams,
			ExtraConditions: req.ExtraConditions,
			Comments:        req.Comments,
			ActorID:         actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body PermitResponse `json:"body"`
		}{Body: permitResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-permits",
		Method:      http.MethodGet,
		Path:        "/permits",
		Summary:     "List permits",
	}, func(ctx context.Context, input *struct {
		JMTID  string `query:"jmt_id"`
		Status string `query:"status"`
		Query  string `query:"q"`
	}) (*struct {
		Body []PermitResponse `json:"body"`
	}, error) {
		items, err := e.ListPermits(ctx, engine.PermitListOptions{
			SiteID: siteID(e),
			JMTID:  input.JMTID,
			Status: input.Status,
			Query:  input.Query,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []PermitResponse `json:"body"`
		}{Body: mapPermits(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-permit",
		Method:      http.MethodGet,
		Path:        "/permits/{permit_id}",
		Summary:     "Get permit",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		PermitID string `path:"permit_id"`
	}) (*struct {
		Body PermitResponse `json:"body"`
	}, error) {
		p, err := e.GetPermit(ctx, input.PermitID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body PermitResponse `json:"body"`
		}{Body: permitResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "approve-permit",
		Method:      http.MethodPost,
		Path:        "/permits/{permit_id}/approve",
		Summary:     "Approve permit",
		Errors:      []int{http.StatusForbidden, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		PermitID string          `path:"permit_id"`
		Body     DecisionRequest `json:"body"`
	}) (*struct {
		Body PermitResponse `json:"body"`
	}, error) {
		if err := requireApprover(ctx); err != nil {
			return nil, err
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.ApprovePermit(ctx, input.PermitID, roleFromContext(ctx), input.Body.Comments, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body PermitResponse `json:"body"`
		}{Body: permitResponse(p)}, nil
	})
}

func registerNotifications(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-notifications",
		Method:      http.MethodGet,
		Path:        "/notifications",
		Summary:     "List notifications",
	}, func(ctx context.Context, input *struct {
		Unread bool `query:"unread"`
	}) (*struct {
		Body []NotificationResponse `json:"body"`
	}, error) {
		items, err := e.ListNotifications(ctx, siteID(e), input.Unread)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []NotificationResponse `json:"body"`
		}{Body: mapNotifications(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "read-notification",
		Method:        http.MethodPost,
		Path:          "/notifications/{notification_id}/read",
		Summary:       "Mark notification read",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		NotificationID string `path:"notification_id"`
	}) (*struct{}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.MarkNotificationRead(ctx, input.NotificationID, actorID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerCatalogs(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-catalogs",
		Method:      http.MethodGet,
		Path:        "/catalogs",
		Summary:     "List all catalogs",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string][]string `json:"body"`
	}, error) {
		catalogs, err := e.Repo.ListCatalogs(ctx, siteID(e))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string][]string `json:"body"`
		}{Body: catalogs}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-catalog",
		Method:      http.MethodGet,
		Path:        "/catalogs/{kind}",
		Summary:     "List one catalog",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Kind string `path:"kind"`
	}) (*struct {
		Body []string `json:"body"`
	}, error) {
		values, err := e.ListCatalog(ctx, siteID(e), input.Kind)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []string `json:"body"`
		}{Body: values}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "catalog-options",
		Method:      http.MethodGet,
		Path:        "/catalogs/{kind}/options",
		Summary:     "Offerable catalog values minus a current selection",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Kind     string   `path:"kind"`
		Selected []string `query:"selected"`
		Query    string   `query:"q"`
	}) (*struct {
		Body engine.CatalogOptions `json:"body"`
	}, error) {
		opts, err := e.RemainingCatalog(ctx, siteID(e), input.Kind, input.Selected, input.Query)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.CatalogOptions `json:"body"`
		}{Body: opts}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-catalog-value",
		Method:        http.MethodPost,
		Path:          "/catalogs/{kind}/values",
		Summary:       "Append a catalog value",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Kind string                 `path:"kind"`
		Body AddCatalogValueRequest `json:"body"`
	}) (*struct{}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.AddCatalogValue(ctx, siteID(e), input.Kind, input.Body.Value, actorID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerDetect(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "detect",
		Method:      http.MethodPost,
		Path:        "/detect",
		Summary:     "Height-work detection for a draft",
	}, func(ctx context.Context, input *struct {
		Body struct {
			Type       string   `json:"type,omitempty" enum:"height,tower,confined,electrical"`
			EnvHazards []string `json:"env_hazards,omitempty"`
		} `json:"body"`
	}) (*struct {
		Body domain.Detection `json:"body"`
	}, error) {
		return &struct {
			Body domain.Detection `json:"body"`
		}{Body: wizard.Detect(input.Body.Type, input.Body.EnvHazards, heightKeywords(e))}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Recent events",
	}, func(ctx context.Context, input *struct {
		Limit int `query:"limit" default:"50"`
	}) (*struct {
		Body []EventResponse `json:"body"`
	}, error) {
		items, err := e.Repo.ListEvents(ctx, siteID(e), input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []EventResponse `json:"body"`
		}{Body: mapEvents(items)}, nil
	})
}

func registerMe(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Authenticated principal",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		p, ok := principalFromContext(ctx)
		if !ok {
			return nil, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		}
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{
			"actor_id": p.ActorID,
			"role":     p.Role,
			"source":   p.Source,
		}}, nil
	})
}

func registerDevAuth(api huma.API, cfg AuthConfig) {
	huma.Register(api, huma.Operation{
		OperationID: "dev-login",
		Method:      http.MethodPost,
		Path:        "/auth/dev/login",
		Summary:     "Issue a development token",
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body DevLoginRequest `json:"body"`
	}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		if strings.TrimSpace(cfg.JWTSecret) == "" {
			return nil, newAPIError(http.StatusInternalServerError, "internal_error", "jwt secret not configured", nil)
		}
		if strings.TrimSpace(input.Body.ActorID) == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "actor_id is required", nil)
		}
		role := input.Body.Role
		if role == "" {
			role = domain.RoleWorker
		}
		if !validRole(role) {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid role", map[string]any{"role": role})
		}
		now := time.Now()
		claims := jwtClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   input.Body.ActorID,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(12 * time.Hour)),
			},
			Role: role,
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"token": token, "role": role}}, nil
	})
}
