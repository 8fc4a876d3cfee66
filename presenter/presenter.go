package presenter

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/omni/bridge-explorer/entity"
	"github.com/omni/bridge-explorer/logging"
	mw "github.com/omni/bridge-explorer/presenter/http/middleware"
	"github.com/omni/bridge-explorer/presenter/http/render"
	"github.com/omni/bridge-explorer/store"
)

const (
	maxConcurrentRequests = 20
	shutdownTimeout       = 5 * time.Second
)

// Explorer is the read and reconcile surface of the store.
type Explorer interface {
	Replace(ctx context.Context, filter entity.Filter) (*entity.Diff, error)
	Lookup(ctx context.Context, hash string) ([]*entity.BridgeTransaction, error)
	Get(id string) (*entity.BridgeTransaction, error)
	Page(n int) []*entity.BridgeTransaction
	PageCount() int
	Len() int
	IsLoading() bool
	Err() error
	Watermark() *time.Time
	ActiveFilter() entity.Filter
	Config() store.Config
}

// Scheduler controls the periodic refresh.
type Scheduler interface {
	Start(ctx context.Context) bool
	Stop() bool
	IsRunning() bool
}

type Options struct {
	Network   string
	Indexer   string
	Explorers Explorers
}

type Presenter struct {
	logger    logging.Logger
	store     Explorer
	scheduler Scheduler
	opts      Options
	root      chi.Router
	// ctx outlives single requests, the scheduler is started with it.
	ctx context.Context
}

func NewPresenter(ctx context.Context, logger logging.Logger, store Explorer, scheduler Scheduler, opts Options) *Presenter {
	p := &Presenter{
		logger:    logger,
		store:     store,
		scheduler: scheduler,
		opts:      opts,
		root:      chi.NewMux(),
		ctx:       ctx,
	}
	p.root.Use(middleware.Throttle(maxConcurrentRequests))
	p.root.Use(middleware.RequestID)
	p.root.Use(mw.NewLoggerMiddleware(logger))
	p.root.Use(mw.Recoverer)

	p.root.With(mw.GetPageMiddleware).Get("/transactions", p.GetTransactionsPage)
	p.root.Get("/transactions/{id}", p.GetTransaction)
	p.root.With(mw.GetSearchFilterMiddleware).Get("/search", p.Search)
	p.root.Get("/lookup/{hash:[0-9a-zA-Z]+}", p.LookupTransactions)
	p.root.Post("/refresh/start", p.StartRefresh)
	p.root.Post("/refresh/stop", p.StopRefresh)
	p.root.Get("/status", p.GetStatus)
	return p
}

func (p *Presenter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.root.ServeHTTP(w, r)
}

// Serve listens on addr until ctx is cancelled.
func (p *Presenter) Serve(ctx context.Context, addr string) error {
	p.logger.WithField("addr", addr).Info("starting presenter service")
	srv := &http.Server{
		Addr:              addr,
		Handler:           p,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			p.logger.WithError(err).Error("failed to shutdown presenter service")
		}
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (p *Presenter) pageResult(page int) *PageResult {
	return &PageResult{
		Page:         page,
		PageCount:    p.store.PageCount(),
		Total:        p.store.Len(),
		Loading:      p.store.IsLoading(),
		Error:        errorString(p.store.Err()),
		Transactions: p.opts.Explorers.transactionInfos(p.store.Page(page)),
	}
}

func (p *Presenter) GetTransactionsPage(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, http.StatusOK, p.pageResult(mw.Page(r.Context())))
}

func (p *Presenter) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := p.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, p.opts.Explorers.transactionInfo(tx))
}

// Search replaces the cache content with the results of the search query.
func (p *Presenter) Search(w http.ResponseWriter, r *http.Request) {
	filter := mw.SearchFilter(r.Context())
	// a dropped client must not abort the replace it started
	if _, err := p.store.Replace(context.WithoutCancel(r.Context()), filter); err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, &SearchResult{
		Filter:     filterInfo(filter),
		PageResult: p.pageResult(1),
	})
}

func (p *Presenter) LookupTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := p.store.Lookup(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, p.opts.Explorers.transactionInfos(txs))
}

func (p *Presenter) StartRefresh(w http.ResponseWriter, r *http.Request) {
	changed := p.scheduler.Start(p.ctx)
	render.JSON(w, r, http.StatusOK, &RefreshResult{Running: p.scheduler.IsRunning(), Changed: changed})
}

func (p *Presenter) StopRefresh(w http.ResponseWriter, r *http.Request) {
	changed := p.scheduler.Stop()
	render.JSON(w, r, http.StatusOK, &RefreshResult{Running: p.scheduler.IsRunning(), Changed: changed})
}

func (p *Presenter) GetStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, http.StatusOK, &StatusResult{
		Network:    p.opts.Network,
		Indexer:    p.opts.Indexer,
		Size:       p.store.Len(),
		PageSize:   p.store.Config().PageSize,
		Loading:    p.store.IsLoading(),
		Refreshing: p.scheduler.IsRunning(),
		Watermark:  p.store.Watermark(),
		Error:      errorString(p.store.Err()),
		Filter:     filterInfo(p.store.ActiveFilter()),
	})
}
