package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustcampus-backend/attendance"
	"trustcampus-backend/models"
)

type memStore struct {
	records []models.AttendanceRecord
	listErr error
}

func (m *memStore) FindByClassAndIP(_ context.Context, classID, ip string) (*models.AttendanceRecord, error) {
	for i := range m.records {
		if m.records[i].ClassID == classID && m.records[i].IPAddress == ip {
			return &m.records[i], nil
		}
	}
	return nil, nil
}

func (m *memStore) Insert(_ context.Context, record *models.AttendanceRecord) (string, error) {
	for i := range m.records {
		if m.records[i].ClassID == record.ClassID && m.records[i].IPAddress == record.IPAddress {
			return "", attendance.ErrDuplicateDevice
		}
	}
	stored := *record
	stored.ID = fmt.Sprintf("rec-%d", len(m.records)+1)
	m.records = append(m.records, stored)
	return stored.ID, nil
}

func (m *memStore) ListByClass(_ context.Context, classID string) ([]models.AttendanceRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.AttendanceRecord
	for _, r := range m.records {
		if r.ClassID == classID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) ListByWallet(_ context.Context, walletAddress string) ([]models.AttendanceRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.AttendanceRecord
	for _, r := range m.records {
		if r.WalletAddress == walletAddress {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) Report(_ context.Context, walletAddress, classID string) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	for _, r := range m.records {
		if walletAddress != "" && r.WalletAddress != walletAddress {
			continue
		}
		if classID != "" && r.ClassID != classID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

type stubLedger struct {
	confirmed bool
}

func (s *stubLedger) Confirmed(context.Context, string) (bool, error) {
	return s.confirmed, nil
}

type stubNotifier struct{}

func (s *stubNotifier) SendParentNotification(context.Context, string, string, string, time.Time) error {
	return nil
}

func newAttendanceRouter(store *memStore, ledger *stubLedger) *gin.Engine {
	gin.SetMode(gin.TestMode)

	validator := attendance.NewValidator(store, ledger, &stubNotifier{})
	h := NewAttendanceHandler(validator, store)

	router := gin.New()
	router.POST("/api/attendance/mark", h.MarkAttendance)
	router.GET("/api/attendance/class", h.GetAttendanceByClass)
	router.GET("/api/attendance/my", h.GetMyAttendance)
	router.GET("/api/attendance/report", h.GetReport)
	return router
}

func postMark(t *testing.T, router *gin.Engine, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/attendance/mark", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func markBody() map[string]interface{} {
	return map[string]interface{}{
		"classId":       "CS101",
		"walletAddress": "0xABCDEF0123456789abcdef0123456789ABCDEF01",
		"studentName":   "Asha",
		"txId":          "tx-ok",
		"studentLocation": map[string]float64{"lat": 18.5201, "lng": 73.8601},
		"classLocation":   map[string]float64{"lat": 18.52, "lng": 73.86},
		"qrExpiry":        time.Now().Add(4 * time.Minute).UnixMilli(),
		"maxDistance":     100,
	}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestMarkAttendanceSuccess(t *testing.T) {
	store := &memStore{}
	router := newAttendanceRouter(store, &stubLedger{confirmed: true})

	w := postMark(t, router, markBody())

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "rec-1", body["recordId"])
	assert.Equal(t, true, body["serverValidated"])
	assert.NotEmpty(t, body["ip"])
	require.Len(t, store.records, 1)
	assert.Equal(t, models.StatusConfirmed, store.records[0].Status)
}

func TestMarkAttendanceMissingFields(t *testing.T) {
	router := newAttendanceRouter(&memStore{}, &stubLedger{confirmed: true})

	body := markBody()
	delete(body, "walletAddress")
	w := postMark(t, router, body)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required fields", decodeBody(t, w)["error"])
}

func TestMarkAttendanceExpiredQR(t *testing.T) {
	router := newAttendanceRouter(&memStore{}, &stubLedger{confirmed: true})

	body := markBody()
	body["qrExpiry"] = time.Now().Add(-time.Minute).UnixMilli()
	w := postMark(t, router, body)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "expired")
}

func TestMarkAttendanceOutOfRange(t *testing.T) {
	router := newAttendanceRouter(&memStore{}, &stubLedger{confirmed: true})

	body := markBody()
	body["studentLocation"] = map[string]float64{"lat": 18.53, "lng": 73.86} // ~1.1km away
	w := postMark(t, router, body)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, true, resp["fraudDetected"])
	assert.Contains(t, resp["error"], "Must be within 100m")
}

func TestMarkAttendanceDuplicateDevice(t *testing.T) {
	store := &memStore{}
	router := newAttendanceRouter(store, &stubLedger{confirmed: true})

	first := postMark(t, router, markBody())
	require.Equal(t, http.StatusOK, first.Code)

	// same IP (httptest uses one client address), different wallet
	body := markBody()
	body["walletAddress"] = "0x1111111111111111111111111111111111111111"
	second := postMark(t, router, body)

	require.Equal(t, http.StatusForbidden, second.Code)
	resp := decodeBody(t, second)
	assert.Equal(t, true, resp["proxyDetected"])
	assert.Len(t, store.records, 1)
}

func TestMarkAttendanceUnconfirmedTransaction(t *testing.T) {
	router := newAttendanceRouter(&memStore{}, &stubLedger{confirmed: false})

	w := postMark(t, router, markBody())

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "not confirmed")
}

func TestMarkAttendanceNoLocationIsAccepted(t *testing.T) {
	router := newAttendanceRouter(&memStore{}, &stubLedger{confirmed: true})

	body := markBody()
	delete(body, "studentLocation")
	w := postMark(t, router, body)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestGetAttendanceByClass(t *testing.T) {
	store := &memStore{records: []models.AttendanceRecord{
		{ID: "rec-1", ClassID: "CS101", WalletAddress: "0xaa", Status: models.StatusConfirmed},
		{ID: "rec-2", ClassID: "MA202", WalletAddress: "0xbb", Status: models.StatusConfirmed},
	}}
	router := newAttendanceRouter(store, &stubLedger{})

	req := httptest.NewRequest(http.MethodGet, "/api/attendance/class?classId=CS101", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, true, resp["success"])
	assert.Len(t, resp["attendance"], 1)
}

func TestGetAttendanceByClassRequiresClassID(t *testing.T) {
	router := newAttendanceRouter(&memStore{}, &stubLedger{})

	req := httptest.NewRequest(http.MethodGet, "/api/attendance/class", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Class ID required", decodeBody(t, w)["error"])
}

func TestGetMyAttendance(t *testing.T) {
	store := &memStore{records: []models.AttendanceRecord{
		{ID: "rec-1", ClassID: "CS101", WalletAddress: "0xaa"},
		{ID: "rec-2", ClassID: "MA202", WalletAddress: "0xaa"},
		{ID: "rec-3", ClassID: "CS101", WalletAddress: "0xbb"},
	}}
	router := newAttendanceRouter(store, &stubLedger{})

	req := httptest.NewRequest(http.MethodGet, "/api/attendance/my?address=0xaa", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["attendance"], 2)
}

func TestGetReportFilters(t *testing.T) {
	store := &memStore{records: []models.AttendanceRecord{
		{ID: "rec-1", ClassID: "CS101", WalletAddress: "0xaa"},
		{ID: "rec-2", ClassID: "MA202", WalletAddress: "0xaa"},
		{ID: "rec-3", ClassID: "CS101", WalletAddress: "0xbb"},
	}}
	router := newAttendanceRouter(store, &stubLedger{})

	req := httptest.NewRequest(http.MethodGet, "/api/attendance/report?address=0xaa&classId=CS101", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	records := decodeBody(t, w)["records"].([]interface{})
	require.Len(t, records, 1)
	assert.Equal(t, "rec-1", records[0].(map[string]interface{})["id"])
}
