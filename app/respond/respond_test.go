package respond

import (
	"bitwise74/bboard/internal/service"
	"bitwise74/bboard/pkg/validators"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err  error
		code int
	}{
		{validators.FieldErrors{"title": "title is required"}, http.StatusBadRequest},
		{fmt.Errorf("lookup, %w", service.ErrNotFound), http.StatusNotFound},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrInactive, http.StatusForbidden},
		{service.ErrAlreadyActive, http.StatusConflict},
		{fmt.Errorf("%w: smtp down", service.ErrDelivery), http.StatusBadGateway},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set("requestID", "req-1")

		Error(c, tt.err, "Failed")
		assert.Equal(t, tt.code, w.Code, tt.err.Error())

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "req-1", body["requestID"])
		assert.NotEqual(t, "disk on fire", body["error"])
	}
}

func TestErrorIncludesFields(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, validators.FieldErrors{"title": "title is required"}, "Failed")

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "title is required", body.Fields["title"])
}

func TestParamID(t *testing.T) {
	for param, want := range map[string]bool{"12": true, "0": false, "-1": false, "abc": false} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: param}}

		_, ok := ParamID(c, "id")
		assert.Equal(t, want, ok, param)
		if !ok {
			assert.Equal(t, http.StatusBadRequest, w.Code)
		}
	}
}
