package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("http status want 200 got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body failed: %v", err)
	}
	return body
}

func TestSuccessEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	Success(c, gin.H{"item_count": 2})

	body := decodeEnvelope(t, rec)
	if body["status_code"] != float64(CodeOK) || body["msg"] != "success" {
		t.Fatalf("unexpected envelope: %v", body)
	}
	data := body["data"].(map[string]interface{})
	if data["item_count"] != float64(2) {
		t.Fatalf("unexpected data: %v", data)
	}
}

func TestErrorAttachesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Set(RequestIDKey, "req-1")

	Error(c, CodeNotFound, "not found")

	body := decodeEnvelope(t, rec)
	if body["status_code"] != float64(CodeNotFound) {
		t.Fatalf("status_code want 404 got %v", body["status_code"])
	}
	data := body["data"].(map[string]interface{})
	if data[RequestIDKey] != "req-1" {
		t.Fatalf("request id missing: %v", data)
	}
}

func TestErrorWithDataKeepsFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Set(RequestIDKey, "req-2")

	ErrorWithData(c, CodeUnprocessable, "rejected", gin.H{"rejection": gin.H{"reason": "list_expired"}})

	data := decodeEnvelope(t, rec)["data"].(map[string]interface{})
	if data[RequestIDKey] != "req-2" {
		t.Fatalf("request id missing: %v", data)
	}
	if _, ok := data["rejection"]; !ok {
		t.Fatalf("rejection payload dropped: %v", data)
	}
}

func TestErrorWithoutRequestIDLeavesDataUntouched(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	ErrorWithData(c, CodeBadRequest, "bad", []string{"a"})

	body := decodeEnvelope(t, rec)
	list, ok := body["data"].([]interface{})
	if !ok || len(list) != 1 || list[0] != "a" {
		t.Fatalf("unexpected data: %v", body["data"])
	}
}
