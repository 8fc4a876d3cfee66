package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/omni/bridge-explorer/entity"
	"github.com/omni/bridge-explorer/presenter/http/render"
	"github.com/omni/bridge-explorer/search"
)

type ctxKey int

const (
	pageCtxKey ctxKey = iota
	filterCtxKey
)

var ErrInvalidPage = errors.New("invalid page parameter")

// GetPageMiddleware parses the 1-based page query parameter, defaulting to 1.
func GetPageMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pageStr := r.URL.Query().Get("page")
		if pageStr == "" {
			next.ServeHTTP(w, r)
			return
		}

		page, err := strconv.ParseUint(pageStr, 10, 31)
		if err != nil || page == 0 {
			render.Error(w, r, fmt.Errorf("page %q: %s: %w", pageStr, ErrInvalidPage, entity.ErrInvalidFilter))
			return
		}

		ctx := context.WithValue(r.Context(), pageCtxKey, int(page))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func Page(ctx context.Context) int {
	if page, ok := ctx.Value(pageCtxKey).(int); ok {
		return page
	}
	return 1
}

// GetSearchFilterMiddleware classifies the q query parameter and builds the
// indexer filter for it, combined with the type withdrawal parameter.
func GetSearchFilterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		filter, err := search.BuildFilter(query.Get("q"), query.Get("type"))
		if err != nil {
			render.Error(w, r, fmt.Errorf("failed to parse search query: %w", err))
			return
		}

		ctx := context.WithValue(r.Context(), filterCtxKey, filter)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func SearchFilter(ctx context.Context) entity.Filter {
	if filter, ok := ctx.Value(filterCtxKey).(entity.Filter); ok {
		return filter
	}
	return entity.Filter{}
}
