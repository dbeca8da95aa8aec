package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/silo-ledger/backend/internal/application/attachment"
	"github.com/silo-ledger/backend/internal/application/record"
	"github.com/silo-ledger/backend/internal/domain/directory"
	"github.com/silo-ledger/backend/internal/domain/receipt"
	"github.com/silo-ledger/backend/internal/infrastructure/persistence"
	"github.com/silo-ledger/backend/internal/infrastructure/staging"
	"github.com/silo-ledger/backend/internal/infrastructure/storage"
	"github.com/silo-ledger/backend/internal/interfaces/http/dto"
	"github.com/silo-ledger/backend/internal/interfaces/http/middleware"
	"github.com/silo-ledger/backend/internal/interfaces/http/router"
	"github.com/silo-ledger/backend/internal/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	engine *gin.Engine
	area   *staging.Area
	remote *storage.MemoryBlobStore
}

func newTestApp(t *testing.T, credential string) *testApp {
	t.Helper()
	db := testutil.NewSQLiteDB(t, persistence.Models()...)

	tick := time.UnixMilli(1700000000000)
	area := staging.NewArea(afero.NewMemMapFs(), "image", staging.WithClock(func() time.Time {
		tick = tick.Add(time.Millisecond)
		return tick
	}))
	remote := storage.NewMemoryBlobStore()
	workflow := attachment.NewWorkflow(attachment.Config{Credential: credential, KeyPrefix: "image"}, remote, area)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	r := router.NewRouter(engine)
	r.Register(router.RecordRoutes(NewRecordHandler[directory.User, *directory.User, CreateUserRequest, UpdateUserRequest](
		record.NewService[directory.User](directory.UserKind, persistence.NewGormStore[directory.User](db), record.WithWorkflow(workflow)))))
	r.Register(router.RecordRoutes(NewRecordHandler[directory.Silo, *directory.Silo, CreateSiloRequest, UpdateSiloRequest](
		record.NewService[directory.Silo](directory.SiloKind, persistence.NewGormStore[directory.Silo](db), record.WithWorkflow(workflow)))))
	r.Register(router.RecordRoutes(NewRecordHandler[directory.Vendor, *directory.Vendor, CreateVendorRequest, UpdateVendorRequest](
		record.NewService[directory.Vendor](directory.VendorKind, persistence.NewGormStore[directory.Vendor](db)))))
	r.Register(router.RecordRoutes(NewRecordHandler[receipt.InvoiceReceipt, *receipt.InvoiceReceipt, CreateInvoiceRequest, UpdateInvoiceRequest](
		record.NewService[receipt.InvoiceReceipt](receipt.InvoiceKind, persistence.NewGormStore[receipt.InvoiceReceipt](db)))))
	r.Setup()

	return &testApp{engine: engine, area: area, remote: remote}
}

type formFile struct {
	field    string
	filename string
	content  string
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		h.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func TestRecordHandler_CreateSiloWithImage(t *testing.T) {
	app := newTestApp(t, "vercel_blob_rw_test")

	w := testutil.Do(app.engine, multipartRequest(t, http.MethodPost, "/silo",
		map[string]string{"name": "Gudang 1", "description": "north"},
		formFile{field: "image_url", filename: "My Photo.png", content: "png-bytes"}))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeMap(t, w)
	assert.EqualValues(t, 201, body["code"])
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Silo created", body["message"])
	assert.Equal(t, "Gudang 1", body["name"])
	assert.Equal(t, "https://storage.example.com/image/silos/gudang-1/my-photo-1700000000001.png", body["image_url"])
	assert.NotEmpty(t, body["id"])

	assert.True(t, app.area.Exists("silos/gudang-1/my-photo-1700000000001.png"))
	data, contentType, ok := app.remote.Get("image/silos/gudang-1/my-photo-1700000000001.png")
	require.True(t, ok)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "image/png", contentType)

	w = testutil.Do(app.engine, httptest.NewRequest(http.MethodGet, "/silo/"+body["id"].(string), nil))
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeMap(t, w)
	assert.Equal(t, body["image_url"], got["image_url"])
	assert.NotContains(t, got, "message")
}

func TestRecordHandler_DeleteUserRemovesEveryImage(t *testing.T) {
	app := newTestApp(t, "vercel_blob_rw_test")

	w := testutil.Do(app.engine, multipartRequest(t, http.MethodPost, "/user",
		map[string]string{"username": "alice"},
		formFile{field: "user_image", filename: "avatar.png", content: "1"}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decodeMap(t, w)["id"].(string)

	// a second image left behind under the same prefix
	_, err := app.remote.Put(t.Context(), "image/users/alice/stray-1.png", []byte("2"), "image/png")
	require.NoError(t, err)
	_, err = app.area.Stage("users", "alice", "stray.png", strings.NewReader("2"))
	require.NoError(t, err)
	require.Equal(t, 2, app.remote.Len())

	w = testutil.Do(app.engine, httptest.NewRequest(http.MethodDelete, "/user/"+id, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeMap(t, w)
	assert.Equal(t, "User deleted", body["message"])
	assert.Equal(t, "alice", body["username"])

	assert.False(t, app.area.Exists("users/alice"))
	assert.Zero(t, app.remote.Len())

	w = testutil.Do(app.engine, httptest.NewRequest(http.MethodGet, "/user/"+id, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecordHandler_List(t *testing.T) {
	app := newTestApp(t, "")

	w := testutil.Do(app.engine, httptest.NewRequest(http.MethodGet, "/vendor", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":200,"status":"success","count":0,"updatedAt":null,"data":[]}`, w.Body.String())

	for _, name := range []string{"Acme", "Globex"} {
		w = testutil.Do(app.engine, jsonRequest(http.MethodPost, "/vendor", `{"name":"`+name+`"}`))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w = testutil.Do(app.engine, httptest.NewRequest(http.MethodGet, "/vendor", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Count     int                `json:"count"`
		UpdatedAt *time.Time         `json:"updatedAt"`
		Data      []directory.Vendor `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Equal(t, 2, listing.Count)
	require.NotNil(t, listing.UpdatedAt)
	require.Len(t, listing.Data, 2)
	assert.Equal(t, "Acme", listing.Data[0].Name)
}

func TestRecordHandler_Update(t *testing.T) {
	app := newTestApp(t, "")

	w := testutil.Do(app.engine, jsonRequest(http.MethodPost, "/user", `{"username":"alice","email":"a@example.com"}`))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decodeMap(t, w)["id"].(string)

	t.Run("partial patch", func(t *testing.T) {
		w := testutil.Do(app.engine, jsonRequest(http.MethodPatch, "/user/"+id, `{"email":"b@example.com"}`))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decodeMap(t, w)
		assert.Equal(t, "User updated", body["message"])
		assert.Equal(t, "alice", body["username"])
		assert.Equal(t, "b@example.com", body["email"])
	})

	t.Run("empty body", func(t *testing.T) {
		w := testutil.Do(app.engine, jsonRequest(http.MethodPatch, "/user/"+id, ""))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "alice", decodeMap(t, w)["username"])
	})

	t.Run("invalid email", func(t *testing.T) {
		w := testutil.Do(app.engine, jsonRequest(http.MethodPatch, "/user/"+id, `{"email":"nope"}`))
		require.Equal(t, http.StatusBadRequest, w.Code)
		var resp dto.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeValidation, resp.Error)
		require.Len(t, resp.Details, 1)
		assert.Equal(t, "email", resp.Details[0].Field)
	})
}

func TestRecordHandler_Errors(t *testing.T) {
	app := newTestApp(t, "")

	decode := func(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
		t.Helper()
		var resp dto.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp
	}

	t.Run("invalid id", func(t *testing.T) {
		w := testutil.Do(app.engine, httptest.NewRequest(http.MethodGet, "/user/123", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidInput, decode(t, w).Error)
	})

	t.Run("missing record", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/user/"+testutil.NewTestUUID("ghost").String(), nil)
		req.Header.Set(middleware.RequestIDHeader, "req-42")
		w := testutil.Do(app.engine, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		resp := decode(t, w)
		assert.Equal(t, "User tidak ditemukan", resp.Message)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error)
		assert.Equal(t, "error", resp.Status)
		assert.Equal(t, "req-42", resp.RequestID)
	})

	t.Run("delete of missing record", func(t *testing.T) {
		w := testutil.Do(app.engine, httptest.NewRequest(http.MethodDelete, "/silo/"+testutil.NewTestUUID("ghost").String(), nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Silo tidak ditemukan", decode(t, w).Message)
	})

	t.Run("missing required field", func(t *testing.T) {
		w := testutil.Do(app.engine, jsonRequest(http.MethodPost, "/user", `{"email":"a@example.com"}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w)
		require.Len(t, resp.Details, 1)
		assert.Equal(t, "username", resp.Details[0].Field)
		assert.Equal(t, "This field is required", resp.Details[0].Message)
	})

	t.Run("malformed json", func(t *testing.T) {
		w := testutil.Do(app.engine, jsonRequest(http.MethodPost, "/user", `{"username":`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidJSON, decode(t, w).Error)
	})

	t.Run("image without blob credential", func(t *testing.T) {
		w := testutil.Do(app.engine, multipartRequest(t, http.MethodPost, "/silo",
			map[string]string{"name": "Gudang 2"},
			formFile{field: "image_url", filename: "a.png", content: "x"}))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decode(t, w)
		assert.Equal(t, dto.ErrCodeStorageNotConfigured, resp.Error)
		assert.Equal(t, "Konfigurasi blob tidak tersedia", resp.Message)
		assert.False(t, app.area.Exists("silos/gudang-2"))

		w = testutil.Do(app.engine, httptest.NewRequest(http.MethodGet, "/silo", nil))
		assert.Contains(t, w.Body.String(), `"count":0`, "record is not created")
	})

	t.Run("multipart without a file", func(t *testing.T) {
		w := testutil.Do(app.engine, multipartRequest(t, http.MethodPost, "/silo", map[string]string{"name": "Gudang 3"}))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "", decodeMap(t, w)["image_url"])
	})
}

func TestRecordHandler_DeleteAll(t *testing.T) {
	app := newTestApp(t, "")

	for _, name := range []string{"Acme", "Globex", "Initech"} {
		w := testutil.Do(app.engine, jsonRequest(http.MethodPost, "/vendor", `{"name":"`+name+`"}`))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := testutil.Do(app.engine, httptest.NewRequest(http.MethodDelete, "/vendor", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":200,"status":"success","message":"All vendors deleted","count":3}`, w.Body.String())

	w = testutil.Do(app.engine, httptest.NewRequest(http.MethodDelete, "/vendor", nil))
	assert.JSONEq(t, `{"code":200,"status":"success","message":"All vendors deleted","count":0}`, w.Body.String())
}

func TestRecordHandler_Invoice(t *testing.T) {
	app := newTestApp(t, "")
	user := testutil.NewTestUUID("user").String()
	silo := testutil.NewTestUUID("silo").String()
	pic := testutil.NewTestUUID("pic").String()

	w := testutil.Do(app.engine, jsonRequest(http.MethodPost, "/invoice", `{
		"user_id":"`+user+`",
		"register_no":"REG-001",
		"submit_date":"2024-03-01",
		"silo_id":"`+silo+`",
		"pic_id":"`+pic+`",
		"invoice_no":"INV-7",
		"is_urgent":true
	}`))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeMap(t, w)
	assert.Equal(t, "Invoice created", body["message"])
	assert.Equal(t, "INV-7", body["invoice_no"])
	assert.Nil(t, body["vendor_id"])
	assert.Equal(t, true, body["is_urgent"])
	assert.NotContains(t, body, "image_url")
	id := body["id"].(string)

	t.Run("clear optional column", func(t *testing.T) {
		w := testutil.Do(app.engine, jsonRequest(http.MethodPatch, "/invoice/"+id, `{"invoice_no":"","is_done":true}`))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decodeMap(t, w)
		assert.Nil(t, body["invoice_no"])
		assert.Equal(t, true, body["is_done"])
		assert.Equal(t, "REG-001", body["register_no"])
	})

	t.Run("bad date", func(t *testing.T) {
		w := testutil.Do(app.engine, jsonRequest(http.MethodPatch, "/invoice/"+id, `{"submit_date":"tomorrow"}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "submit_date")
	})

	t.Run("bad reference", func(t *testing.T) {
		w := testutil.Do(app.engine, jsonRequest(http.MethodPost, "/invoice", `{
			"user_id":"x","register_no":"R","submit_date":"2024-03-01","silo_id":"`+silo+`","pic_id":"`+pic+`"}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "user_id")
	})
}
