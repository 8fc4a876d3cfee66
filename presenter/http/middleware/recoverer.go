package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/omni/bridge-explorer/presenter/http/render"
)

var ErrHandlerPanic = errors.New("http handler panicked")

// Recoverer turns a handler panic into a JSON 500 response.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler { //nolint:errorlint,goerr113
				panic(rec)
			}
			err := fmt.Errorf("%w: %v", ErrHandlerPanic, rec)
			if recErr, ok := rec.(error); ok {
				err = fmt.Errorf("%s: %w", ErrHandlerPanic, recErr)
			}
			render.Error(w, r, err)
		}()
		next.ServeHTTP(w, r)
	})
}
