package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/impact-tracker/internal/codec"
	"github.com/mmeshcher/impact-tracker/internal/impact"
	"github.com/mmeshcher/impact-tracker/internal/model"
	"github.com/mmeshcher/impact-tracker/internal/repository"
	"github.com/mmeshcher/impact-tracker/internal/service"
)

type memStore struct {
	data    map[string][]byte
	saveErr error
}

func (s *memStore) Load(ctx context.Context, key string) ([]byte, error) {
	v, ok := s.data[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return v, nil
}

func (s *memStore) Save(ctx context.Context, key string, payload []byte) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data[key] = payload
	return nil
}

func (s *memStore) Close() error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *service.Tracker, *memStore) {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	store := &memStore{data: map[string][]byte{}}
	tr := service.NewTracker(impact.NewCalculator(impact.DefaultRates()), store, "http://localhost:8080/impact", logger)
	tr.Hydrate(context.Background(), "")

	ts := httptest.NewServer(NewHandler(tr, logger).SetupRouter())
	t.Cleanup(ts.Close)

	return ts, tr, store
}

func doRequest(t *testing.T, method, url string, body io.Reader) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })

	return res
}

func postDonation(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	return doRequest(t, http.MethodPost, ts.URL+"/api/donations", strings.NewReader(body))
}

func decodeList(t *testing.T, res *http.Response) listResponse {
	t.Helper()

	var list listResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&list))
	return list
}

func TestAddDonation_Created(t *testing.T) {
	ts, tr, _ := newTestServer(t)

	res := postDonation(t, ts, `{"amount":250,"category":"Food Security","note":"gift, in memory"}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	var got donationResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))

	assert.NotEmpty(t, got.ID)
	assert.Equal(t, 250.0, got.Amount)
	assert.Equal(t, "Food Security", got.Category)
	assert.Equal(t, model.Impact{Meals: 500}, got.Impact)

	_, err := time.Parse(time.RFC3339Nano, got.CreatedAt)
	assert.NoError(t, err)

	require.Len(t, tr.Donations(), 1)
}

func TestAddDonation_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "malformed json", body: `{"amount":`, status: http.StatusBadRequest},
		{name: "non numeric amount", body: `{"amount":"ten"}`, status: http.StatusBadRequest},
		{name: "zero amount", body: `{"amount":0,"category":"Food Security"}`, status: http.StatusUnprocessableEntity},
		{name: "negative amount", body: `{"amount":-1,"category":"Food Security"}`, status: http.StatusUnprocessableEntity},
		{name: "unknown category", body: `{"amount":10,"category":"Education"}`, status: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, tr, _ := newTestServer(t)

			res := postDonation(t, ts, tt.body)
			assert.Equal(t, tt.status, res.StatusCode)
			assert.Empty(t, tr.Donations())
		})
	}
}

func TestAddDonation_StoreFailure(t *testing.T) {
	ts, _, store := newTestServer(t)
	store.saveErr = errors.New("disk full")

	res := postDonation(t, ts, `{"amount":10}`)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
}

func TestListDonations(t *testing.T) {
	ts, _, _ := newTestServer(t)

	require.Equal(t, http.StatusCreated, postDonation(t, ts, `{"amount":35,"category":"Shelter Support"}`).StatusCode)
	require.Equal(t, http.StatusCreated, postDonation(t, ts, `{"amount":100,"category":"Counseling & Legal Aid"}`).StatusCode)

	res := doRequest(t, http.MethodGet, ts.URL+"/api/donations", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	list := decodeList(t, res)
	require.Len(t, list.Donations, 2)
	assert.Equal(t, "Counseling & Legal Aid", list.Donations[0].Category)
	assert.Equal(t, "Shelter Support", list.Donations[1].Category)
	assert.Equal(t, model.Impact{ShelterNights: 1, CounselingHours: 1}, list.Totals.Impact)
	assert.Equal(t, 135.0, list.Totals.Amount)

	u, err := url.Parse(list.ShareURL)
	require.NoError(t, err)
	state := codec.FromQuery(u.Query())
	require.True(t, state.Present)
	assert.Len(t, state.Donations, 2)
}

func TestRemoveDonation(t *testing.T) {
	ts, tr, store := newTestServer(t)

	res := postDonation(t, ts, `{"amount":20,"category":"Hygiene & Supplies"}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	var created donationResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))

	del := doRequest(t, http.MethodDelete, ts.URL+"/api/donations/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, del.StatusCode)
	assert.Empty(t, tr.Donations())
	assert.Equal(t, "[]", string(store.data[repository.StateKey]))

	share := doRequest(t, http.MethodGet, ts.URL+"/api/share", nil)
	var sr shareResponse
	require.NoError(t, json.NewDecoder(share.Body).Decode(&sr))
	assert.Equal(t, "http://localhost:8080/impact", sr.URL)
}

func TestPreview(t *testing.T) {
	ts, _, _ := newTestServer(t)

	res := doRequest(t, http.MethodGet, ts.URL+"/api/impact/preview?amount=250", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var got previewResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, 250.0, got.Amount)
	assert.Equal(t, model.Impact{ShelterNights: 7}, got.Impact[model.CategoryShelter])

	bad := doRequest(t, http.MethodGet, ts.URL+"/api/impact/preview?amount=abc", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, bad.StatusCode)
}

func TestExportCSV(t *testing.T) {
	ts, _, _ := newTestServer(t)
	require.Equal(t, http.StatusCreated, postDonation(t, ts, `{"amount":39,"category":"Hygiene & Supplies","note":"soap, toothpaste"}`).StatusCode)

	res := doRequest(t, http.MethodGet, ts.URL+"/api/export.csv", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/csv;charset=utf-8", res.Header.Get("Content-Type"))
	assert.Contains(t, res.Header.Get("Content-Disposition"), "orangeblossom_impact.csv")

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	lines := strings.Split(string(body), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "createdAt,amount,category,note,meals,shelterNights,counselingHours,supplyKits", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], `,39.00,Hygiene & Supplies,"soap, toothpaste",0,0,0,1`), lines[1])
}

func TestViewShared(t *testing.T) {
	ts, tr, _ := newTestServer(t)

	shared := []model.Donation{{ID: "x", Amount: 70, Category: model.CategoryShelter}}
	res := doRequest(t, http.MethodGet, ts.URL+"/api/shared?d="+codec.Encode(shared), nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	list := decodeList(t, res)
	require.Len(t, list.Donations, 1)
	assert.Equal(t, int64(2), list.Totals.ShelterNights)
	assert.Empty(t, tr.Donations())

	bad := doRequest(t, http.MethodGet, ts.URL+"/api/shared?d=%21%21%21", nil)
	require.Equal(t, http.StatusOK, bad.StatusCode)
	assert.Empty(t, decodeList(t, bad).Donations)
}

func TestImportShared(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	require.Equal(t, http.StatusCreated, postDonation(t, ts, `{"amount":5}`).StatusCode)

	missing := doRequest(t, http.MethodPost, ts.URL+"/api/shared/import?d=garbage!", nil)
	assert.Equal(t, http.StatusNoContent, missing.StatusCode)
	require.Len(t, tr.Donations(), 1)

	shared := []model.Donation{
		{ID: "a", Amount: 80, Category: model.CategoryCounseling},
		{ID: "b", Amount: 40, Category: model.CategoryHygiene},
	}
	res := doRequest(t, http.MethodPost, ts.URL+"/api/shared/import?d="+codec.Encode(shared), bytes.NewReader(nil))
	require.Equal(t, http.StatusOK, res.StatusCode)

	list := decodeList(t, res)
	require.Len(t, list.Donations, 2)
	assert.Equal(t, shared, tr.Donations())
}

func TestRouter_NotFound(t *testing.T) {
	ts, _, _ := newTestServer(t)

	res := doRequest(t, http.MethodGet, ts.URL+"/api/unknown", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res = doRequest(t, http.MethodPut, ts.URL+"/api/donations", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}
