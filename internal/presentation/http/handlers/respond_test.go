package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/manager"
)

func TestParseIntCSV(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    []int
		wantErr bool
	}{
		{"single", "7", []int{7}, false},
		{"list", "1,2,3", []int{1, 2, 3}, false},
		{"spaces and blanks", " 1, ,2 ,", []int{1, 2}, false},
		{"empty", "", []int{}, false},
		{"not a number", "1,dos", nil, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseIntCSV(tc.raw)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDaterangeParam(t *testing.T) {
	got := daterangeParam(map[string]string{
		"start_date": "2026-01-05",
		"end_date":   "2026-01-11",
		"start_time": "08:00",
	})

	assert.Equal(t, map[string]any{
		"start_date": "2026-01-05",
		"end_date":   "2026-01-11",
		"start_time": "08:00",
	}, got)
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("cache miss maps to 503", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)

		respondError(c, manager.ErrCacheNotLoaded)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "Cache not loaded")
	})

	t.Run("other errors map to 500", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)

		respondError(c, assert.AnError)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
