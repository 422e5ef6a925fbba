package category

import "github.com/frahmantamala/hira-inspection/internal/hazard"

// Service serves the fixed hazard category catalog.
type Service struct {
	catalog []Category
}

func NewService() *Service {
	catalog := make([]Category, len(hazard.Categories))
	for i, c := range hazard.Categories {
		catalog[i] = Category{Name: c, Description: descriptions[c]}
	}
	return &Service{catalog: catalog}
}

func (s *Service) GetAllCategories() []Category {
	out := make([]Category, len(s.catalog))
	copy(out, s.catalog)
	return out
}
