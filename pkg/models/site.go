package models

// PromoBanner lives at siteConfig/promoBanner.
type PromoBanner struct {
	Text            string `bson:"text" json:"text"`
	Link            string `bson:"link" json:"link"`
	IsActive        bool   `bson:"isActive" json:"isActive"`
	BackgroundColor string `bson:"backgroundColor,omitempty" json:"backgroundColor"`
	TextColor       string `bson:"textColor,omitempty" json:"textColor"`
}

func DefaultPromoBanner() PromoBanner {
	return PromoBanner{
		Text:            "¡Promoción especial! ¡Descuentos en toda la tienda!",
		Link:            "",
		IsActive:        false,
		BackgroundColor: "#29ABE2",
		TextColor:       "#FFFFFF",
	}
}

// WithDefaults fills missing colours from the default banner.
func (b PromoBanner) WithDefaults() PromoBanner {
	def := DefaultPromoBanner()
	if b.BackgroundColor == "" {
		b.BackgroundColor = def.BackgroundColor
	}
	if b.TextColor == "" {
		b.TextColor = def.TextColor
	}
	return b
}
