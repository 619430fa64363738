package models

import (
	"math/rand/v2"

	"gorm.io/datatypes"
)

type MaterialType string

const (
	TypeCourse MaterialType = "curso"
	TypeEbook  MaterialType = "ebook"
)

func (t MaterialType) Valid() bool {
	return t == TypeCourse || t == TypeEbook
}

// Categories is the fixed set a material category is drawn from.
var Categories = []string{
	"Desenvolvimento Pessoal",
	"Finanças",
	"Marketing",
	"Produtividade",
}

func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Gradients is the decorative palette a material gets tagged with.
var Gradients = []string{
	"from-indigo-600 via-purple-600 to-pink-500",
	"from-amber-400 via-orange-500 to-red-600",
	"from-cyan-400 via-blue-500 to-indigo-600",
	"from-emerald-400 via-teal-500 to-cyan-600",
	"from-fuchsia-500 via-purple-600 to-violet-700",
	"from-blue-600 via-indigo-700 to-purple-800",
}

func RandomGradient() string {
	return Gradients[rand.IntN(len(Gradients))]
}

type Material struct {
	Base
	Title       string                      `gorm:"not null" json:"title"`
	Type        MaterialType                `gorm:"type:text;not null" json:"type"`
	Category    string                      `gorm:"not null" json:"category"`
	Description string                      `json:"description"`
	ImageURL    string                      `json:"imageUrl"`
	VideoURL    string                      `json:"videoUrl"`
	Views       int64                       `gorm:"default:0" json:"views"`
	Gradient    string                      `json:"gradient"`
	ReadBy      datatypes.JSONSlice[string] `json:"readBy"`
	Comments    []Comment                   `gorm:"foreignKey:MaterialID;constraint:OnDelete:CASCADE" json:"comments"`
}

func (Material) TableName() string {
	return "materials"
}

// Clone returns a copy that shares no slices with m.
func (m Material) Clone() Material {
	out := m
	if m.ReadBy != nil {
		out.ReadBy = append(datatypes.JSONSlice[string]{}, m.ReadBy...)
	}
	if m.Comments != nil {
		out.Comments = append([]Comment{}, m.Comments...)
	}
	return out
}

func (m Material) IsReadBy(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

func NewReadBy(ids []string) datatypes.JSONSlice[string] {
	return datatypes.NewJSONSlice(ids)
}
