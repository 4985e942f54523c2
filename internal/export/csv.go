// Package export формирует CSV-выгрузку пожертвований с рассчитанным эффектом.
package export

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/impact-tracker/internal/model"
)

// Filename задаёт имя файла выгрузки.
const Filename = "orangeblossom_impact.csv"

// ContentType задаёт MIME-тип выгрузки.
const ContentType = "text/csv;charset=utf-8"

// timeLayout повторяет формат ISO-8601 с миллисекундами в UTC.
const timeLayout = "2006-01-02T15:04:05.000Z"

var header = []string{
	"createdAt", "amount", "category", "note",
	"meals", "shelterNights", "counselingHours", "supplyKits",
}

// Calculator описывает расчёт эффекта одного пожертвования.
type Calculator interface {
	Calculate(d model.Donation) model.Impact
}

// WriteCSV пишет таблицу с заголовком и строкой на каждое пожертвование.
// Строки разделяются "\n", после последней строки перевода нет.
func WriteCSV(w io.Writer, calc Calculator, donations []model.Donation) error {
	_, err := io.WriteString(w, ToCSV(calc, donations))
	return err
}

// ToCSV возвращает выгрузку в виде строки.
func ToCSV(calc Calculator, donations []model.Donation) string {
	var b strings.Builder
	writeRow(&b, header)

	for _, d := range donations {
		imp := calc.Calculate(d)
		b.WriteByte('\n')
		writeRow(&b, []string{
			formatTime(d.CreatedAt),
			decimal.NewFromFloat(d.Amount).StringFixed(2),
			string(d.Category),
			d.Note,
			strconv.FormatInt(imp.Meals, 10),
			strconv.FormatInt(imp.ShelterNights, 10),
			strconv.FormatInt(imp.CounselingHours, 10),
			strconv.FormatInt(imp.SupplyKits, 10),
		})
	}

	return b.String()
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escape(f))
	}
}

// escape заключает поле в кавычки, если в нём есть запятая, кавычка или перевод строки.
func escape(v string) string {
	if !strings.ContainsAny(v, ",\"\n") {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}
