package category

import "github.com/frahmantamala/hira-inspection/internal/hazard"

type Category struct {
	Name        hazard.Category `json:"name"`
	Description string          `json:"description"`
}

type CategoriesResponse struct {
	Categories []Category `json:"categories"`
}

var descriptions = map[hazard.Category]string{
	hazard.CategoryPhysical:      "Falls, slips, trips, falling objects, noise, vibration and temperature extremes",
	hazard.CategoryChemical:      "Exposure to hazardous substances, fumes, dust, vapours and corrosives",
	hazard.CategoryBiological:    "Bacteria, viruses, mould, animal and insect exposure, sanitation issues",
	hazard.CategoryErgonomic:     "Manual handling, awkward postures, repetitive motion and poor workstation design",
	hazard.CategoryElectrical:    "Exposed wiring, overloaded circuits, missing lockout and wet electrical equipment",
	hazard.CategoryFire:          "Ignition sources, flammable materials, blocked exits and missing extinguishers",
	hazard.CategoryMechanical:    "Unguarded moving parts, pinch points, crushing and entanglement",
	hazard.CategoryEnvironmental: "Weather exposure, poor lighting, confined spaces and spills",
	hazard.CategoryPsychosocial:  "Fatigue, excessive workload, isolation and workplace stress",
}
