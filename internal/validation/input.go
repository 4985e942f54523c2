// Package validation содержит функции валидации входных данных.
package validation

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/mmeshcher/impact-tracker/internal/model"
)

var (
	// ErrInvalidAmount возвращается для нечисловой, бесконечной или неположительной суммы.
	ErrInvalidAmount = errors.New("amount must be a positive number")
	// ErrInvalidCategory возвращается для категории вне закрытого набора.
	ErrInvalidCategory = errors.New("unknown category")
)

// ParseAmount разбирает сумму пожертвования из строки.
func ParseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return v, CheckAmount(v)
}

// CheckAmount проверяет, что сумма конечна и больше нуля.
func CheckAmount(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ParseCategory проверяет метку категории. Пустая строка означает Food Security.
func ParseCategory(s string) (model.Category, error) {
	if s == "" {
		return model.CategoryFoodSecurity, nil
	}
	c := model.Category(s)
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}
