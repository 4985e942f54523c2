// Package service реализует состояние трекера пожертвований и его синхронизацию.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/impact-tracker/internal/codec"
	"github.com/mmeshcher/impact-tracker/internal/export"
	"github.com/mmeshcher/impact-tracker/internal/impact"
	"github.com/mmeshcher/impact-tracker/internal/model"
	"github.com/mmeshcher/impact-tracker/internal/repository"
	"github.com/mmeshcher/impact-tracker/internal/validation"
)

// Input содержит данные нового пожертвования в том виде, в каком их прислал клиент.
type Input struct {
	Amount   float64
	Category string
	Note     string
}

// Tracker владеет списком пожертвований. Каждое изменение заменяет список целиком,
// после чего состояние явно сохраняется в хранилище и в ссылку для шаринга.
type Tracker struct {
	mu        sync.RWMutex
	donations []model.Donation
	shareURL  string

	calc    *impact.Calculator
	store   repository.Store
	baseURL string
	logger  *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewTracker создаёт пустой трекер.
func NewTracker(calc *impact.Calculator, store repository.Store, baseURL string, logger *zap.Logger) *Tracker {
	return &Tracker{
		calc:     calc,
		store:    store,
		baseURL:  baseURL,
		shareURL: baseURL,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Close закрывает хранилище.
func (t *Tracker) Close() error {
	if t.store != nil {
		return t.store.Close()
	}
	return nil
}

// Hydrate восстанавливает состояние при старте: сначала из параметра ссылки,
// затем из хранилища, иначе начинает с пустого списка. Состояние из ссылки
// сразу сохраняется в хранилище. Ошибки не прерывают запуск.
func (t *Tracker) Hydrate(ctx context.Context, sharedParam string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if state := codec.Decode(sharedParam); state.Present {
		t.logger.Info("state restored from shared link", zap.Int("donations", len(state.Donations)))
		_ = t.commit(ctx, state.Donations)
		return
	}

	donations := t.loadStored(ctx)
	t.donations = donations
	t.shareURL = t.buildShareURL(donations)
}

func (t *Tracker) loadStored(ctx context.Context) []model.Donation {
	raw, err := t.store.Load(ctx, repository.StateKey)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			t.logger.Warn("load stored state error", zap.Error(err))
		}
		return nil
	}

	var donations []model.Donation
	if err := json.Unmarshal(raw, &donations); err != nil {
		t.logger.Warn("stored state is malformed", zap.Error(err))
		return nil
	}

	t.logger.Info("state restored from store", zap.Int("donations", len(donations)))
	return donations
}

// Add проверяет ввод, создаёт пожертвование и ставит его в начало списка.
// При невалидном вводе запись не создаётся.
func (t *Tracker) Add(ctx context.Context, in Input) (model.Donation, error) {
	if err := validation.CheckAmount(in.Amount); err != nil {
		return model.Donation{}, err
	}
	category, err := validation.ParseCategory(in.Category)
	if err != nil {
		return model.Donation{}, err
	}

	d := model.Donation{
		ID:        t.newID(),
		CreatedAt: t.now().UTC().Truncate(time.Millisecond),
		Amount:    in.Amount,
		Category:  category,
		Note:      in.Note,
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	next := make([]model.Donation, 0, len(t.donations)+1)
	next = append(next, d)
	next = append(next, t.donations...)

	return d, t.commit(ctx, next)
}

// Remove удаляет пожертвование по идентификатору. Отсутствующий идентификатор не является ошибкой.
func (t *Tracker) Remove(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := slices.DeleteFunc(slices.Clone(t.donations), func(d model.Donation) bool {
		return d.ID == id
	})

	return t.commit(ctx, next)
}

// Replace заменяет список целиком, например при импорте общей ссылки.
func (t *Tracker) Replace(ctx context.Context, donations []model.Donation) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.commit(ctx, slices.Clone(donations))
}

// commit устанавливает новый список и синхронизирует хранилище и ссылку.
// Вызывается под t.mu.
func (t *Tracker) commit(ctx context.Context, next []model.Donation) error {
	t.donations = next
	t.shareURL = t.buildShareURL(next)

	payload, err := json.Marshal(nonNil(next))
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if err := t.store.Save(ctx, repository.StateKey, payload); err != nil {
		t.logger.Error("persist state error", zap.Error(err))
		return fmt.Errorf("persist state: %w", err)
	}

	return nil
}

func (t *Tracker) buildShareURL(donations []model.Donation) string {
	link, err := codec.ShareURL(t.baseURL, donations)
	if err != nil {
		t.logger.Warn("build share url error", zap.Error(err), zap.String("base", t.baseURL))
		return t.baseURL
	}
	return link
}

// Donations возвращает копию текущего списка, новые записи первыми.
func (t *Tracker) Donations() []model.Donation {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return nonNil(slices.Clone(t.donations))
}

// Totals возвращает суммарный эффект текущего списка.
func (t *Tracker) Totals() model.ImpactTotals {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.calc.Aggregate(t.donations)
}

// Aggregate возвращает суммарный эффект произвольного списка.
func (t *Tracker) Aggregate(donations []model.Donation) model.ImpactTotals {
	return t.calc.Aggregate(donations)
}

// Impact возвращает эффект одного пожертвования.
func (t *Tracker) Impact(d model.Donation) model.Impact {
	return t.calc.Calculate(d)
}

// Preview возвращает эффект суммы в каждой категории.
func (t *Tracker) Preview(amount float64) map[model.Category]model.Impact {
	return t.calc.Preview(amount)
}

// ShareURL возвращает ссылку с закодированным состоянием.
func (t *Tracker) ShareURL() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.shareURL
}

// ExportCSV пишет CSV-выгрузку текущего списка.
func (t *Tracker) ExportCSV(w io.Writer) error {
	return export.WriteCSV(w, t.calc, t.Donations())
}

func nonNil(donations []model.Donation) []model.Donation {
	if donations == nil {
		return []model.Donation{}
	}
	return donations
}
