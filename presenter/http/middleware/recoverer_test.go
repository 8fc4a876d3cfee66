package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omni/bridge-explorer/presenter/http/middleware"
	"github.com/omni/bridge-explorer/presenter/http/render"
)

func TestRecoverer(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		Name    string
		Handler http.HandlerFunc
		Status  int
		Error   string
	}{
		{
			Name:    "no panic",
			Handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) },
			Status:  http.StatusNoContent,
		},
		{
			Name:    "string panic",
			Handler: func(w http.ResponseWriter, r *http.Request) { panic("boom") },
			Status:  http.StatusInternalServerError,
			Error:   "http handler panicked: boom",
		},
		{
			Name:    "error panic",
			Handler: func(w http.ResponseWriter, r *http.Request) { panic(errors.New("bad state")) },
			Status:  http.StatusInternalServerError,
			Error:   "http handler panicked: bad state",
		},
	} {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			middleware.Recoverer(test.Handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, test.Status, rec.Code)
			if test.Error == "" {
				return
			}
			var res render.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			require.Equal(t, test.Error, res.Error)
		})
	}
}

func TestRecoverer_AbortHandler(t *testing.T) {
	t.Parallel()

	h := middleware.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	require.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
