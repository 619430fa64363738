package models

// SettingsID is the well-known key of the singleton settings row.
const SettingsID = "00000000-0000-0000-0000-000000000000"

// Settings is the persisted record; every hero field may be null.
type Settings struct {
	ID             string  `gorm:"type:uuid;primaryKey"`
	HeroTitle      *string `gorm:"column:hero_title"`
	HeroSubtitle   *string `gorm:"column:hero_subtitle"`
	HeroImageURL   *string `gorm:"column:hero_image_url"`
	HeroButtonText *string `gorm:"column:hero_button_text"`
	HeroButtonLink *string `gorm:"column:hero_button_link"`
}

func (Settings) TableName() string {
	return "settings"
}

// AppSettings is the fully populated presentation config the UI renders.
type AppSettings struct {
	HeroTitle      string `json:"heroTitle"`
	HeroSubtitle   string `json:"heroSubtitle"`
	HeroImageURL   string `json:"heroImageUrl"`
	HeroButtonText string `json:"heroButtonText"`
	HeroButtonLink string `json:"heroButtonLink"`
}

func DefaultSettings() AppSettings {
	return AppSettings{
		HeroTitle:      "ACESSO\nVITALÍCIO.",
		HeroSubtitle:   "Sua biblioteca privada de alta performance, agora 100% online e sob seu comando absoluto.",
		HeroImageURL:   "https://images.unsplash.com/photo-1614850523296-d8c1af93d400?q=80&w=2070&auto=format&fit=crop",
		HeroButtonText: "Explorar Conteúdo",
		HeroButtonLink: "#vitrine",
	}
}

// Merge fills every null or empty field of rec from the defaults, field by field.
func (rec *Settings) Merge() AppSettings {
	out := DefaultSettings()
	if rec == nil {
		return out
	}
	pick := func(dst *string, v *string) {
		if v != nil && *v != "" {
			*dst = *v
		}
	}
	pick(&out.HeroTitle, rec.HeroTitle)
	pick(&out.HeroSubtitle, rec.HeroSubtitle)
	pick(&out.HeroImageURL, rec.HeroImageURL)
	pick(&out.HeroButtonText, rec.HeroButtonText)
	pick(&out.HeroButtonLink, rec.HeroButtonLink)
	return out
}

// Record converts s into the row stored under SettingsID.
func (s AppSettings) Record() *Settings {
	str := func(v string) *string { return &v }
	return &Settings{
		ID:             SettingsID,
		HeroTitle:      str(s.HeroTitle),
		HeroSubtitle:   str(s.HeroSubtitle),
		HeroImageURL:   str(s.HeroImageURL),
		HeroButtonText: str(s.HeroButtonText),
		HeroButtonLink: str(s.HeroButtonLink),
	}
}

// SetImageURL lets an upload write straight into the hero image field.
func (s *AppSettings) SetImageURL(url string) {
	s.HeroImageURL = url
}
