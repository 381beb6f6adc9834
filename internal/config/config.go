package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CatalogKinds lists every named catalog the application knows about, in
// display order.
var CatalogKinds = []string{
	"zones",
	"durations",
	"people",
	"materials",
	"epi_specific",
	"epi_complete",
	"environment_hazards",
	"risk_measures",
	"equipment",
	"access",
	"work_modes",
	"anchorage",
	"lanyard",
	"harness",
}

// Config models smartpermit.yml.
type Config struct {
	Site struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"site"`
	Approvers struct {
		Supervisor string `yaml:"supervisor"`
		Director   string `yaml:"director"`
	} `yaml:"approvers"`
	Detection struct {
		HeightKeywords []string `yaml:"height_keywords"`
	} `yaml:"detection"`
	Catalogs map[string][]string `yaml:"catalogs"`
}

// ApproverName returns the configured display name for an approving role.
func (c *Config) ApproverName(role string) string {
	switch role {
	case "director":
		return c.Approvers.Director
	default:
		return c.Approvers.Supervisor
	}
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; import with sp site config import --file <path>", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Site.ID == "" {
		return fmt.Errorf("config.site.id is required")
	}
	if c.Approvers.Supervisor == "" {
		return fmt.Errorf("config.approvers.supervisor is required")
	}
	if c.Approvers.Director == "" {
		return fmt.Errorf("config.approvers.director is required")
	}
	known := map[string]bool{}
	for _, kind := range CatalogKinds {
		known[kind] = true
	}
	for kind, values := range c.Catalogs {
		if !known[kind] {
			return fmt.Errorf("config.catalogs contains unknown kind %s", kind)
		}
		for _, v := range values {
			if v == "" {
				return fmt.Errorf("catalog %s has empty value", kind)
			}
		}
	}
	for _, kw := range c.Detection.HeightKeywords {
		if kw == "" {
			return fmt.Errorf("config.detection.height_keywords contains empty keyword")
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "smartpermit.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault(siteID string) string {
	return fmt.Sprintf(defaultTemplate, siteID)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct for a site.
func Default(siteID string) *Config {
	var cfg Config
	cfg.Site.ID = siteID
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, siteID))).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `site:
  id: %s
  name: "Site principal"

approvers:
  supervisor: "M. Dupont"
  director: "M. Martin"

detection:
  height_keywords: [hauteur]

catalogs:
  zones:
    - "Zone de production A"
    - "Zone de production B"
    - "Atelier maintenance"
    - "Toiture bâtiment principal"
    - "Local électrique"
    - "Quai de chargement"

  durations:
    - "1 heure"
    - "2 heures"
    - "Demi-journée"
    - "1 jour"
    - "2 jours"
    - "1 semaine"

  people:
    - "1 personne"
    - "2 personnes"
    - "3 personnes"
    - "4 personnes et plus"

  materials:
    - "Échafaudage"
    - "Nacelle élévatrice"
    - "Échelle"
    - "Outillage électroportatif"
    - "Poste à souder"
    - "Treuil"

  epi_specific:
    - "Tenue contre Feu"
    - "Masque respiratoire"
    - "Protection auditive"
    - "Écran facial"

  epi_complete:
    - "Casque"
    - "Gants"
    - "Harnais"
    - "Chaussures S3"

  environment_hazards:
    - "Travail en hauteur"
    - "Espace confiné"
    - "Présence électrique"
    - "Circulation d'engins"
    - "Atmosphère explosive"
    - "Produits chimiques"

  risk_measures:
    - "Balisage de la zone"
    - "Consignation électrique"
    - "Ventilation forcée"
    - "Surveillance permanente"
    - "Ligne de vie temporaire"

  equipment:
    - "Échafaudage fixe"
    - "Échafaudage roulant"
    - "Nacelle"
    - "Plateforme individuelle"

  access:
    - "Échelle d'accès"
    - "Escalier provisoire"
    - "Trappe"

  work_modes:
    - "Travail en appui"
    - "Travail en suspension"
    - "Travail en retenue"

  anchorage:
    - "Point d'ancrage fixe"
    - "Ligne de vie horizontale"
    - "Ligne de vie verticale"

  lanyard:
    - "Longe simple"
    - "Longe double"
    - "Longe avec absorbeur"

  harness:
    - "Harnais 2 points"
    - "Harnais 4 points"
    - "Harnais avec ceinture de maintien"
`
