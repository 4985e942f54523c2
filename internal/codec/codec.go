// Package codec кодирует список пожертвований в URL-безопасную строку и обратно.
package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/mmeshcher/impact-tracker/internal/model"
)

// Param задаёт имя query-параметра ссылки с состоянием.
const Param = "d"

// State содержит результат декодирования: список либо признак его отсутствия.
// Ошибка разбора и отсутствие параметра неразличимы.
type State struct {
	Donations []model.Donation
	Present   bool
}

var urlUnsafe = strings.NewReplacer("+", "-", "/", "_")

var urlSafe = strings.NewReplacer("-", "+", "_", "/")

// Encode сериализует список в JSON и кодирует его в base64 с URL-безопасным алфавитом без паддинга.
// Пустой список даёт пустую строку.
func Encode(donations []model.Donation) string {
	if len(donations) == 0 {
		return ""
	}

	raw, err := marshal(donations)
	if err != nil {
		return ""
	}

	b64 := base64.StdEncoding.EncodeToString(raw)
	return strings.TrimRight(urlUnsafe.Replace(b64), "=")
}

// marshal пишет JSON без HTML-экранирования, чтобы "&" в названиях категорий
// оставался литералом, как в JSON.stringify.
func marshal(donations []model.Donation) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(donations); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Decode восстанавливает список из строки, полученной от Encode.
// Любая ошибка на любом этапе даёт State с Present == false.
func Decode(s string) State {
	if s == "" {
		return State{}
	}

	b64 := urlSafe.Replace(s)
	if rem := len(b64) % 4; rem != 0 {
		b64 += strings.Repeat("=", 4-rem)
	}

	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return State{}
	}
	if !utf8.Valid(raw) {
		return State{}
	}

	var donations []model.Donation
	if err := json.Unmarshal(raw, &donations); err != nil {
		return State{}
	}
	if donations == nil {
		return State{}
	}

	return State{Donations: donations, Present: true}
}

// FromQuery читает состояние из query-параметра Param.
func FromQuery(q url.Values) State {
	return Decode(q.Get(Param))
}

// SetParam записывает состояние в query-параметр Param или удаляет его, если список пуст.
func SetParam(q url.Values, donations []model.Donation) {
	encoded := Encode(donations)
	if encoded == "" {
		q.Del(Param)
		return
	}
	q.Set(Param, encoded)
}

// ShareURL возвращает base с параметром состояния. Остальные параметры base сохраняются.
func ShareURL(base string, donations []model.Donation) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	q := u.Query()
	SetParam(q, donations)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
