package dto

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

func TestNewRecordResponse(t *testing.T) {
	body, err := NewRecordResponse(http.StatusCreated, "Silo created", sampleRecord{ID: "1", Name: "Gudang"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, body["code"])
	assert.Equal(t, StatusSuccess, body["status"])
	assert.Equal(t, "Silo created", body["message"])
	assert.Equal(t, "1", body["id"])
	assert.Equal(t, "Gudang", body["name"])
	assert.Equal(t, "", body["image_url"])

	t.Run("message is omitted when empty", func(t *testing.T) {
		body, err := NewRecordResponse(http.StatusOK, "", sampleRecord{ID: "1"})
		require.NoError(t, err)
		assert.NotContains(t, body, "message")
	})

	t.Run("non-object records are rejected", func(t *testing.T) {
		_, err := NewRecordResponse(http.StatusOK, "", []string{"x"})
		assert.Error(t, err)
	})
}

func TestNewListResponse(t *testing.T) {
	t.Run("empty list", func(t *testing.T) {
		raw, err := json.Marshal(NewListResponse(0, nil, nil))
		require.NoError(t, err)
		assert.JSONEq(t, `{"code":200,"status":"success","count":0,"updatedAt":null,"data":[]}`, string(raw))
	})

	t.Run("with updatedAt", func(t *testing.T) {
		ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		resp := NewListResponse(1, &ts, []sampleRecord{{ID: "1"}})
		raw, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"updatedAt":"2024-05-01T10:00:00Z"`)
	})
}

func TestNewCountResponse(t *testing.T) {
	raw, err := json.Marshal(NewCountResponse("All users deleted", 3))
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":200,"status":"success","message":"All users deleted","count":3}`, string(raw))
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(ErrCodeNotFound, "User tidak ditemukan")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, ErrCodeNotFound, resp.Error)

	withID := NewErrorResponseWithRequestID(http.StatusConflict, ErrCodeConflict, "Gagal menghapus user", "req-1")
	assert.Equal(t, http.StatusConflict, withID.Code)
	assert.Equal(t, "req-1", withID.RequestID)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "request_id")
	assert.NotContains(t, string(raw), "details")
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-9", []ValidationDetail{
		{Field: "username", Message: "This field is required"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, ErrCodeValidation, resp.Error)
	require.Len(t, resp.Details, 1)
	assert.Equal(t, "username", resp.Details[0].Field)
}
