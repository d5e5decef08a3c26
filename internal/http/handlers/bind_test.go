package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/supporthub/internal/domain/testimonial"
	"github.com/geocoder89/supporthub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Message   string              `json:"message"`
	Code      string              `json:"code"`
	Errors    map[string][]string `json:"errors"`
	RequestID string              `json:"requestId"`
}

func bindRouter() *gin.Engine {
	r := gin.New()
	r.POST("/testimonials", func(ctx *gin.Context) {
		var req testimonial.SubmitRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})
	return r
}

func TestBindJSON(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantFields []string
	}{
		{
			name:       "valid",
			body:       `{"name":"Amina","country":"Morocco","message":"Stay strong","rating":5}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing_fields_use_json_names",
			body:       `{"name":"Amina"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantFields: []string{"country", "message"},
		},
		{
			name:       "rating_out_of_range",
			body:       `{"name":"Amina","country":"Morocco","message":"hi","rating":9}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantFields: []string{"rating"},
		},
		{
			name:       "type_mismatch",
			body:       `{"name":"Amina","country":"Morocco","message":"hi","rating":"five"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantFields: []string{"rating"},
		},
		{
			name:       "malformed_json",
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty_body",
			body:       ``,
			wantStatus: http.StatusBadRequest,
		},
	}

	r := bindRouter()

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/testimonials", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
			if w.Code < 400 {
				return
			}

			var resp errorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
			}
			if resp.Message == "" {
				t.Fatalf("error body must carry a message: %s", w.Body.String())
			}

			for _, field := range tt.wantFields {
				msgs, ok := resp.Errors[field]
				if !ok || len(msgs) == 0 || msgs[0] == "" {
					t.Fatalf("missing field error for %q: %+v", field, resp.Errors)
				}
			}
		})
	}
}
