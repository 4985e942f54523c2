// Package model содержит доменные сущности трекера пожертвований.
package model

import "time"

// Category описывает назначение пожертвования.
type Category string

const (
	CategoryFoodSecurity Category = "Food Security"
	CategoryShelter      Category = "Shelter Support"
	CategoryCounseling   Category = "Counseling & Legal Aid"
	CategoryHygiene      Category = "Hygiene & Supplies"
)

// Categories возвращает все допустимые категории в порядке отображения.
func Categories() []Category {
	return []Category{
		CategoryFoodSecurity,
		CategoryShelter,
		CategoryCounseling,
		CategoryHygiene,
	}
}

// Valid сообщает, входит ли категория в закрытый набор.
func (c Category) Valid() bool {
	switch c {
	case CategoryFoodSecurity, CategoryShelter, CategoryCounseling, CategoryHygiene:
		return true
	}
	return false
}

// Donation описывает одно зарегистрированное пожертвование.
// После создания запись не изменяется, её можно только удалить.
type Donation struct {
	ID        string    `json:"id,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Amount    float64   `json:"amount"`
	Category  Category  `json:"category"`
	Note      string    `json:"note,omitempty"`
}

// Impact содержит производные показатели эффекта пожертвования.
type Impact struct {
	Meals           int64 `json:"meals"`
	ShelterNights   int64 `json:"shelterNights"`
	CounselingHours int64 `json:"counselingHours"`
	SupplyKits      int64 `json:"supplyKits"`
}

// Add возвращает поэлементную сумму двух показателей.
func (i Impact) Add(other Impact) Impact {
	return Impact{
		Meals:           i.Meals + other.Meals,
		ShelterNights:   i.ShelterNights + other.ShelterNights,
		CounselingHours: i.CounselingHours + other.CounselingHours,
		SupplyKits:      i.SupplyKits + other.SupplyKits,
	}
}

// ImpactTotals дополняет Impact общей суммой пожертвований.
type ImpactTotals struct {
	Impact
	Amount float64 `json:"amount"`
}
