package engine

import (
	"context"
	"fmt"

	"smartpermit/internal/domain"
)

// SeedDemo loads a small demonstration dataset into a site: three JMTs in
// different workflow states and a matching notification feed.
func (e Engine) SeedDemo(ctx context.Context, siteID, actorID string) error {
	if e.Config == nil {
		return fmt.Errorf("config not loaded")
	}

	jmts := []JMTCreateOptions{
		{
			SiteID:      siteID,
			Title:       "Maintenance ascenseur Tour A",
			Description: "Remplacement des câbles de traction de l'ascenseur principal",
			Zone:        "Tour A",
			Type:        domain.TypeHeight,
			RiskLevel:   domain.RiskHigh,
			Deadline:    "2026-09-15",
			AssignedTo:  "Équipe maintenance",
			RequiredPPE: []string{"Casque", "Harnais", "Chaussures S3"},
			Risks:       []string{"Travail en hauteur", "Présence électrique"},
			Controls:    []string{"Consignation électrique", "Ligne de vie temporaire"},
			ActorID:     actorID,
		},
		{
			SiteID:      siteID,
			Title:       "Inspection antenne télécoms",
			Description: "Contrôle annuel de l'antenne relais du bâtiment B",
			Zone:        "Toiture bâtiment B",
			Type:        domain.TypeTower,
			RiskLevel:   domain.RiskMedium,
			Deadline:    "2026-09-30",
			AssignedTo:  "Sous-traitant Altitude Services",
			RequiredPPE: []string{"Casque", "Harnais"},
			Risks:       []string{"Travail en hauteur"},
			Controls:    []string{"Balisage de la zone"},
			ActorID:     actorID,
		},
		{
			SiteID:      siteID,
			Title:       "Réparation éclairage",
			Description: "Remplacement des luminaires du quai de chargement",
			Zone:        "Quai de chargement",
			Type:        domain.TypeElectrical,
			RiskLevel:   domain.RiskLow,
			Deadline:    "2026-09-10",
			AssignedTo:  "Équipe électrique",
			RequiredPPE: []string{"Casque", "Gants"},
			Risks:       []string{"Présence électrique"},
			Controls:    []string{"Consignation électrique"},
			ActorID:     actorID,
		},
	}

	created := make([]domain.JMT, 0, len(jmts))
	for _, opts := range jmts {
		j, err := e.CreateJMT(ctx, opts)
		if err != nil {
			return fmt.Errorf("seed jmt %q: %w", opts.Title, err)
		}
		created = append(created, j)
	}

	// The inspection is already validated and the lighting job underway.
	if _, err := e.ApproveJMT(ctx, created[1].ID, domain.RoleSupervisor, "", actorID); err != nil {
		return fmt.Errorf("seed approve: %w", err)
	}
	inProgress := domain.StatusInProgress
	if _, err := e.UpdateJMT(ctx, created[2].ID, JMTUpdate{Status: &inProgress}, actorID); err != nil {
		return fmt.Errorf("seed status: %w", err)
	}
	return nil
}
