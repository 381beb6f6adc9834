package server

import (
	"smartpermit/internal/domain"
	"smartpermit/internal/engine"
)

// Request payloads

type CreateJMTRequest struct {
	Title           string             `json:"title,omitempty"`
	Description     string             `json:"description,omitempty"`
	Zone            string             `json:"zone,omitempty"`
	Type            string             `json:"type,omitempty" enum:"height,tower,confined,electrical"`
	RiskLevel       string             `json:"risk_level,omitempty" enum:"low,medium,high"`
	Deadline        string             `json:"deadline,omitempty"`
	AssignedTo      string             `json:"assigned_to,omitempty"`
	RequiredPPE     []string           `json:"required_ppe,omitempty"`
	Risks           []string           `json:"risks,omitempty"`
	Controls        []string           `json:"controls,omitempty"`
	WorkOrderNumber string             `json:"work_order_number,omitempty"`
	MethodForm      *domain.MethodForm `json:"method_form,omitempty"`
	// Strict enables the required-fields gate used by the guided flow.
	Strict bool `json:"strict,omitempty"`
}

type UpdateJMTRequest struct {
	Title           *string            `json:"title,omitempty"`
	Description     *string            `json:"description,omitempty"`
	Zone            *string            `json:"zone,omitempty"`
	Type            *string            `json:"type,omitempty" enum:"height,tower,confined,electrical"`
	Status          *string            `json:"status,omitempty" enum:"pending,approved,rejected,archived,in-progress"`
	RiskLevel       *string            `json:"risk_level,omitempty" enum:"low,medium,high"`
	Deadline        *string            `json:"deadline,omitempty"`
	AssignedTo      *string            `json:"assigned_to,omitempty"`
	RequiredPPE     []string           `json:"required_ppe,omitempty"`
	Risks           []string           `json:"risks,omitempty"`
	Controls        []string           `json:"controls,omitempty"`
	Comments        *string            `json:"comments,omitempty"`
	WorkOrderNumber *string            `json:"work_order_number,omitempty"`
	MethodForm      *domain.MethodForm `json:"method_form,omitempty"`
}

type DecisionRequest struct {
	Comments string `json:"comments,omitempty"`
}

type CreatePermitRequest struct {
	JMTID           string   `json:"jmt_id,omitempty"`
	Number          string   `json:"number,omitempty"`
	Place           string   `json:"place,omitempty"`
	PrecisePlace    string   `json:"precise_place,omitempty"`
	Date            string   `json:"date,omitempty"`
	StartTime       string   `json:"start_time,omitempty"`
	EndTime         string   `json:"end_time,omitempty"`
	Description     string   `json:"description,omitempty"`
	Responsible     string   `json:"responsible,omitempty"`
	Subcontractor   string   `json:"subcontractor,omitempty"`
	Equipment       []string `json:"equipment,omitempty"`
	Access          []string `json:"access,omitempty"`
	WorkModes       []string `json:"work_modes,omitempty"`
	PersonsMax      *int     `json:"persons_max,omitempty"`
	Observations    string   `json:"observations,omitempty"`
	FallFactor      string   `json:"fall_factor,omitempty" enum:"F0,F1,F2"`
	FallDistance    string   `json:"fall_distance,omitempty"`
	Anchorage       []string `json:"anchorage,omitempty"`
	Lanyard         []string `json:"lanyard,omitempty"`
	Harness         []string `json:"harness,omitempty"`
	RescueMeans     string   `json:"rescue_means,omitempty"`
	RescueComms     string   `json:"rescue_comms,omitempty"`
	RescueTeams     string   `json:"rescue_teams,omitempty"`
	ExtraConditions string   `json:"extra_conditions,omitempty"`
	Comments        string   `json:"comments,omitempty"`
}

type AddCatalogValueRequest struct {
	Value string `json:"value"`
}

type DevLoginRequest struct {
	ActorID string `json:"actor_id"`
	Role    string `json:"role,omitempty" enum:"worker,supervisor,director"`
}

// Response payloads

type JMTResponse struct {
	ID              string             `json:"id"`
	SiteID          string             `json:"site_id"`
	Title           string             `json:"title"`
	Description     string             `json:"description,omitempty"`
	Zone            string             `json:"zone,omitempty"`
	Type            string             `json:"type" enum:"height,tower,confined,electrical"`
	Status          string             `json:"status" enum:"pending,approved,rejected,archived,in-progress"`
	RiskLevel       string             `json:"risk_level" enum:"low,medium,high"`
	Deadline        string             `json:"deadline,omitempty"`
	AssignedTo      string             `json:"assigned_to,omitempty"`
	RequiredPPE     []string           `json:"required_ppe,omitempty"`
	Risks           []string           `json:"risks,omitempty"`
	Controls        []string           `json:"controls,omitempty"`
	Supervisor      *string            `json:"supervisor,omitempty"`
	Director        *string            `json:"director,omitempty"`
	Comments        *string            `json:"comments,omitempty"`
	WorkOrderNumber *string            `json:"work_order_number,omitempty"`
	MethodForm      *domain.MethodForm `json:"method_form,omitempty"`
	CreatedAt       string             `json:"created_at" format:"date-time"`
}

func jmtResponse(j domain.JMT) JMTResponse {
	return JMTResponse{
		ID:              j.ID,
		SiteID:          j.SiteID,
		Title:           j.Title,
		Description:     j.Description,
		Zone:            j.Zone,
		Type:            j.Type,
		Status:          j.Status,
		RiskLevel:       j.RiskLevel,
		Deadline:        j.Deadline,
		AssignedTo:      j.AssignedTo,
		RequiredPPE:     j.RequiredPPE,
		Risks:           j.Risks,
		Controls:        j.Controls,
		Supervisor:      j.Supervisor,
		Director:        j.Director,
		Comments:        j.Comments,
		WorkOrderNumber: j.WorkOrderNumber,
		MethodForm:      j.MethodForm,
		CreatedAt:       j.CreatedAt,
	}
}

func mapJMTs(items []domain.JMT) []JMTResponse {
	res := make([]JMTResponse, 0, len(items))
	for _, j := range items {
		res = append(res, jmtResponse(j))
	}
	return res
}

type PermitResponse struct {
	ID                 string             `json:"id"`
	SiteID             string             `json:"site_id"`
	JMTID              *string            `json:"jmt_id,omitempty"`
	Number             string             `json:"number"`
	Place              string             `json:"place,omitempty"`
	PrecisePlace       string             `json:"precise_place,omitempty"`
	Date               string             `json:"date,omitempty"`
	StartTime          string             `json:"start_time,omitempty"`
	EndTime            string             `json:"end_time,omitempty"`
	Description        string             `json:"description,omitempty"`
	Responsible        string             `json:"responsible,omitempty"`
	Subcontractor      string             `json:"subcontractor,omitempty"`
	Equipment          []string           `json:"equipment,omitempty"`
	Access             []string           `json:"access,omitempty"`
	WorkModes          []string           `json:"work_modes,omitempty"`
	PersonsMax         *int               `json:"persons_max,omitempty"`
	Observations       string             `json:"observations,omitempty"`
	FallFactor         string             `json:"fall_factor,omitempty" enum:"F0,F1,F2"`
	FallDistance       string             `json:"fall_distance,omitempty"`
	Anchorage          []string           `json:"anchorage,omitempty"`
	Lanyard            []string           `json:"lanyard,omitempty"`
	Harness            []string           `json:"harness,omitempty"`
	RescueMeans        string             `json:"rescue_means,omitempty"`
	RescueComms        string             `json:"rescue_comms,omitempty"`
	RescueTeams        string             `json:"rescue_teams,omitempty"`
	ExtraConditions    string             `json:"extra_conditions,omitempty"`
	Comments           string             `json:"comments,omitempty"`
	Status             string             `json:"status" enum:"pending,approved,rejected,archived,in-progress"`
	Signatures         []domain.Signature `json:"signatures"`
	SupervisorApproval *domain.Approval   `json:"supervisor_approval,omitempty"`
	DirectorApproval   *domain.Approval   `json:"director_approval,omitempty"`
	CreatedAt          string             `json:"created_at" format:"date-time"`
}

func permitResponse(p domain.Permit) PermitResponse {
	return PermitResponse{
		ID:                 p.ID,
		SiteID:             p.SiteID,
		JMTID:              p.JMTID,
		Number:             p.Number,
		Place:              p.Place,
		PrecisePlace:       p.PrecisePlace,
		Date:               p.Date,
		StartTime:          p.StartTime,
		EndTime:            p.EndTime,
		Description:        p.Description,
		Responsible:        p.Responsible,
		Subcontractor:      p.Subcontractor,
		Equipment:          p.Equipment,
		Access:             p.Access,
		WorkModes:          p.WorkModes,
		PersonsMax:         p.PersonsMax,
		Observations:       p.Observations,
		FallFactor:         p.FallFactor,
		FallDistance:       p.FallDistance,
		Anchorage:          p.Anchorage,
		Lanyard:            p.Lanyard,
		Harness:            p.Harness,
		RescueMeans:        p.RescueMeans,
		RescueComms:        p.RescueComms,
		RescueTeams:        p.RescueTeams,
		ExtraConditions:    p.ExtraConditions,
		Comments:           p.Comments,
		Status:             p.Status,
		Signatures:         p.Signatures,
		SupervisorApproval: p.SupervisorApproval,
		DirectorApproval:   p.DirectorApproval,
		CreatedAt:          p.CreatedAt,
	}
}

func mapPermits(items []domain.Permit) []PermitResponse {
	res := make([]PermitResponse, 0, len(items))
	for _, p := range items {
		res = append(res, permitResponse(p))
	}
	return res
}

type PermitDraftResponse struct {
	JMTID       string `json:"jmt_id"`
	Place       string `json:"place,omitempty"`
	Date        string `json:"date,omitempty"`
	Description string `json:"description,omitempty"`
	Responsible string `json:"responsible,omitempty"`
}

type NotificationResponse struct {
	ID        string `json:"id"`
	Kind      string `json:"kind" enum:"info,warning,success,error"`
	Title     string `json:"title"`
	Message   string `json:"message,omitempty"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

func mapNotifications(items []domain.Notification) []NotificationResponse {
	res := make([]NotificationResponse, 0, len(items))
	for _, n := range items {
		res = append(res, NotificationResponse{
			ID: n.ID, Kind: n.Kind, Title: n.Title, Message: n.Message,
			Read: n.Read, CreatedAt: n.CreatedAt,
		})
	}
	return res
}

type DashboardResponse struct {
	JMTsByStatus        map[string]int `json:"jmts_by_status"`
	PermitsByStatus     map[string]int `json:"permits_by_status"`
	UnreadNotifications int            `json:"unread_notifications"`
}

func dashboardResponse(s engine.DashboardStats) DashboardResponse {
	return DashboardResponse{
		JMTsByStatus:        s.JMTsByStatus,
		PermitsByStatus:     s.PermitsByStatus,
		UnreadNotifications: s.UnreadNotifications,
	}
}

type EventResponse struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

func mapEvents(items []domain.Event) []EventResponse {
	res := make([]EventResponse, 0, len(items))
	for _, e := range items {
		res = append(res, EventResponse{
			ID: e.ID, TS: e.TS, Type: e.Type, EntityKind: e.EntityKind,
			EntityID: e.EntityID, ActorID: e.ActorID, Payload: e.Payload,
		})
	}
	return res
}
