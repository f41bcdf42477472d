package models

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Category groups catalog entries. Products reference it by name.
type Category struct {
	ID    bson.ObjectID `json:"id" bson:"_id,omitempty"`
	Name  string        `json:"name" bson:"name"`
	Logo  string        `json:"logo,omitempty" bson:"logo,omitempty"`
	Order int           `json:"order" bson:"order"`
}

type UpsertCategoryRequest struct {
	Name  string `json:"name" binding:"required,min=2,max=100"`
	Logo  string `json:"logo" binding:"omitempty,url"`
	Order int    `json:"order" binding:"gte=0"`
}

func (req *UpsertCategoryRequest) ToCategory(id bson.ObjectID) *Category {
	return &Category{ID: id, Name: req.Name, Logo: req.Logo, Order: req.Order}
}

// CatalogSection is one category as shown in the storefront catalog.
type CatalogSection struct {
	Name     string     `json:"name"`
	Logo     string     `json:"logo,omitempty"`
	Products []*Product `json:"products"`
}

// GroupByCategory lays products out under their categories, keeping the
// category order. Categories without products and products whose category
// is unknown are left out.
func GroupByCategory(categories []*Category, products []*Product) []CatalogSection {
	byCategory := make(map[string][]*Product)
	for _, p := range products {
		byCategory[p.Category] = append(byCategory[p.Category], p)
	}

	sections := []CatalogSection{}
	for _, c := range categories {
		items := byCategory[c.Name]
		if len(items) == 0 {
			continue
		}
		sections = append(sections, CatalogSection{Name: c.Name, Logo: c.Logo, Products: items})
	}
	return sections
}
