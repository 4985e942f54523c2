// Package impact переводит денежные пожертвования в показатели эффекта.
package impact

import (
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/impact-tracker/internal/model"
)

// Rates задаёт курсы пересчёта пожертвований в показатели.
type Rates struct {
	MealsPerDollar           float64 `env:"MEALS_PER_DOLLAR" envDefault:"2"`
	DollarsPerShelterNight   float64 `env:"DOLLARS_PER_SHELTER_NIGHT" envDefault:"35"`
	DollarsPerCounselingHour float64 `env:"DOLLARS_PER_COUNSELING_HOUR" envDefault:"80"`
	DollarsPerSupplyKit      float64 `env:"DOLLARS_PER_SUPPLY_KIT" envDefault:"20"`
}

// DefaultRates возвращает иллюстративные курсы по умолчанию.
func DefaultRates() Rates {
	return Rates{
		MealsPerDollar:           2,
		DollarsPerShelterNight:   35,
		DollarsPerCounselingHour: 80,
		DollarsPerSupplyKit:      20,
	}
}

// Calculator вычисляет эффект пожертвований по фиксированным курсам.
type Calculator struct {
	mealsPerDollar decimal.Decimal
	perNight       decimal.Decimal
	perHour        decimal.Decimal
	perKit         decimal.Decimal
}

// NewCalculator создаёт калькулятор с указанными курсами.
// Неположительные курсы заменяются значениями по умолчанию.
func NewCalculator(r Rates) *Calculator {
	def := DefaultRates()
	pick := func(v, fallback float64) decimal.Decimal {
		if v <= 0 {
			return decimal.NewFromFloat(fallback)
		}
		return decimal.NewFromFloat(v)
	}

	return &Calculator{
		mealsPerDollar: pick(r.MealsPerDollar, def.MealsPerDollar),
		perNight:       pick(r.DollarsPerShelterNight, def.DollarsPerShelterNight),
		perHour:        pick(r.DollarsPerCounselingHour, def.DollarsPerCounselingHour),
		perKit:         pick(r.DollarsPerSupplyKit, def.DollarsPerSupplyKit),
	}
}

// Calculate возвращает эффект одного пожертвования. Ненулевым бывает
// не более одного поля, выбранного по категории.
func (c *Calculator) Calculate(d model.Donation) model.Impact {
	return c.forCategory(d.Category, decimal.NewFromFloat(d.Amount))
}

func (c *Calculator) forCategory(category model.Category, amount decimal.Decimal) model.Impact {
	var res model.Impact
	switch category {
	case model.CategoryFoodSecurity:
		res.Meals = amount.Mul(c.mealsPerDollar).Floor().IntPart()
	case model.CategoryShelter:
		res.ShelterNights = amount.Div(c.perNight).Floor().IntPart()
	case model.CategoryCounseling:
		res.CounselingHours = amount.Div(c.perHour).Floor().IntPart()
	case model.CategoryHygiene:
		res.SupplyKits = amount.Div(c.perKit).Floor().IntPart()
	}
	return res
}

// Aggregate суммирует эффект и сумму по списку пожертвований.
func (c *Calculator) Aggregate(donations []model.Donation) model.ImpactTotals {
	var totals model.ImpactTotals
	sum := decimal.Zero
	for _, d := range donations {
		totals.Impact = totals.Impact.Add(c.Calculate(d))
		sum = sum.Add(decimal.NewFromFloat(d.Amount))
	}
	totals.Amount = sum.InexactFloat64()
	return totals
}

// Preview показывает, какой эффект дала бы сумма в каждой из категорий.
func (c *Calculator) Preview(amount float64) map[model.Category]model.Impact {
	a := decimal.NewFromFloat(amount)
	res := make(map[model.Category]model.Impact, len(model.Categories()))
	for _, category := range model.Categories() {
		res[category] = c.forCategory(category, a)
	}
	return res
}
