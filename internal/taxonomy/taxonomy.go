// Package taxonomy maps free-form sector and stage labels onto the
// canonical vocabulary the scorer operates on.
package taxonomy

import "strings"

// Sector is a canonical sector label.
type Sector string

const (
	SectorAI        Sector = "ai"
	SectorSaaS      Sector = "saas"
	SectorFintech   Sector = "fintech"
	SectorHealth    Sector = "health"
	SectorConsumer  Sector = "consumer"
	SectorRobotics  Sector = "robotics"
	SectorCrypto    Sector = "crypto"
	SectorClimate   Sector = "climate"
	SectorGaming    Sector = "gaming"
	SectorEdtech    Sector = "edtech"
	SectorDefense   Sector = "defense"
	SectorSpacetech Sector = "spacetech"
	SectorDeeptech  Sector = "deeptech"
	SectorMaterials Sector = "materials"
	SectorEnergy    Sector = "energy"
	SectorOther     Sector = "other"
)

// sectorRule maps any of its keywords (substring match on the lowercased
// label) to a canonical sector. Rules are evaluated in order; the first
// matching rule wins, so more specific keywords come first.
type sectorRule struct {
	sector   Sector
	keywords []string
}

var sectorRules = []sectorRule{
	{SectorFintech, []string{"fintech", "financ", "payment", "banking", "insur", "lending", "wealth"}},
	{SectorCrypto, []string{"crypto", "blockchain", "web3", "defi", "nft", "token"}},
	{SectorHealth, []string{"health", "biotech", "medical", "medtech", "pharma", "diagnost", "therapeut", "life science"}},
	{SectorClimate, []string{"climate", "cleantech", "carbon", "sustainab", "greentech"}},
	{SectorEnergy, []string{"energy", "solar", "battery", "grid", "nuclear", "fusion"}},
	{SectorRobotics, []string{"robot", "automation", "autonomous", "drone"}},
	{SectorSpacetech, []string{"space", "satellite", "aerospace", "launch"}},
	{SectorDefense, []string{"defense", "defence", "military", "security tech"}},
	{SectorGaming, []string{"gaming", "game", "esports", "metaverse"}},
	{SectorEdtech, []string{"edtech", "education", "e-learning", "tutoring"}},
	{SectorMaterials, []string{"material", "chemistry", "nanotech", "semiconductor"}},
	{SectorDeeptech, []string{"deeptech", "deep tech", "quantum", "photonic"}},
	{SectorConsumer, []string{"consumer", "d2c", "dtc", "ecommerce", "e-commerce", "marketplace", "retail", "food", "fashion", "travel", "social"}},
	// AI after the verticals above so "healthcare AI" lands in health.
	// Short tokens are space-padded to avoid matching inside other words.
	{SectorAI, []string{"artificial intelligence", " ai ", " ml ", " llm", "machine learning", "genai", "generative", "computer vision", " nlp", "data science"}},
	{SectorSaaS, []string{"saas", "software", "b2b", "enterprise", "cloud", "devtool", "developer tool", "infrastructure", "api", "platform", "analytics", "productivity", "hr tech", "legal tech", "proptech", "logistics", "supply chain"}},
}

// NormalizeSector maps a raw sector label to its canonical sector.
// Unrecognized labels map to SectorOther, never to an error.
func NormalizeSector(raw string) Sector {
	label := strings.ToLower(strings.TrimSpace(raw))
	if label == "" {
		return SectorOther
	}

	// Exact hits on canonical names short-circuit the keyword scan.
	if s, ok := canonicalSectors[label]; ok {
		return s
	}

	// Pad so word-boundary keywords like " ai" match at the edges too.
	padded := " " + label + " "
	for _, rule := range sectorRules {
		for _, kw := range rule.keywords {
			if strings.Contains(padded, kw) {
				return rule.sector
			}
		}
	}

	return SectorOther
}

var canonicalSectors = map[string]Sector{
	"ai":        SectorAI,
	"saas":      SectorSaaS,
	"fintech":   SectorFintech,
	"health":    SectorHealth,
	"consumer":  SectorConsumer,
	"robotics":  SectorRobotics,
	"crypto":    SectorCrypto,
	"climate":   SectorClimate,
	"gaming":    SectorGaming,
	"edtech":    SectorEdtech,
	"defense":   SectorDefense,
	"spacetech": SectorSpacetech,
	"deeptech":  SectorDeeptech,
	"materials": SectorMaterials,
	"energy":    SectorEnergy,
	"other":     SectorOther,
}

// NormalizeSectors maps a slice of raw labels to canonical sectors,
// de-duplicated and preserving first-occurrence order.
func NormalizeSectors(raw []string) []Sector {
	seen := make(map[Sector]bool, len(raw))
	out := make([]Sector, 0, len(raw))

	for _, r := range raw {
		s := NormalizeSector(r)
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}

	return out
}
