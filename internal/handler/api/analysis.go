package api

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"FinScore/internal/domain/models"
	domrepo "FinScore/internal/domain/repository"
	svcmetrics "FinScore/internal/service/metrics"
	"FinScore/internal/services/compare"
	"FinScore/internal/usecase"
	xhttp "FinScore/pkg/http"
	xlogger "FinScore/pkg/logger"
	"FinScore/pkg/util"
)

// AnalysisHandler serves the scoring, regime and history endpoints.
type AnalysisHandler struct {
	logger   *xlogger.Logger
	analysis *usecase.AnalysisService
	regime   *usecase.RegimeService
	compare  *usecase.CompareService
	timeout  time.Duration
	mw       []echo.MiddlewareFunc
}

func NewAnalysisHandler(
	logger *xlogger.Logger,
	analysis *usecase.AnalysisService,
	regime *usecase.RegimeService,
	cmp *usecase.CompareService,
	timeout time.Duration,
) *AnalysisHandler {
	svcmetrics.Register()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AnalysisHandler{logger: logger, analysis: analysis, regime: regime, compare: cmp, timeout: timeout}
}

// Use adds middleware to the /api group. It must be called before RegisterRoutes.
func (h *AnalysisHandler) Use(mw ...echo.MiddlewareFunc) *AnalysisHandler {
	h.mw = append(h.mw, mw...)
	return h
}

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api", h.mw...)
	g.POST("/analyze", h.Analyze)
	g.POST("/score", h.Score)
	g.POST("/quality", h.Quality)
	g.POST("/pattern", h.Pattern)
	g.POST("/compare", h.Compare)
	g.GET("/regime", h.Regime)
	g.POST("/regime", h.Classify)
	g.GET("/delta/:symbol", h.Delta)
	g.GET("/snapshots/:symbol", h.Snapshots)
	g.GET("/backtest/:symbol", h.Backtest)
}

func (h *AnalysisHandler) Analyze(c echo.Context) error {
	start := time.Now()
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.Observe("analyze", start, "bad_request")
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.analysis.Analyze(ctx, *req)
	if err != nil {
		if errors.Is(err, usecase.ErrMissingCriticalData) && res != nil {
			appErr := xhttp.InsufficientDataError(err.Error()).
				WithParam("quality", res.Quality).
				WithError(err)
			return h.fail(c, "analyze", start, appErr)
		}
		return h.fail(c, "analyze", start, err)
	}
	svcmetrics.Observe("analyze", start, "")
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) Score(c echo.Context) error {
	start := time.Now()
	req := &models.ScoreRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.Observe("score", start, "bad_request")
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	card := h.analysis.Score(ctx, *req)
	svcmetrics.Observe("score", start, "")
	return xhttp.SuccessResponse(c, card)
}

func (h *AnalysisHandler) Quality(c echo.Context) error {
	start := time.Now()
	req := &models.QualityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.Observe("quality", start, "bad_request")
		return xhttp.BadRequestResponse(c, verr)
	}
	svcmetrics.Observe("quality", start, "")
	return xhttp.SuccessResponse(c, h.analysis.Quality(*req))
}

func (h *AnalysisHandler) Pattern(c echo.Context) error {
	start := time.Now()
	req := &models.PatternRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.Observe("pattern", start, "bad_request")
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	p := h.analysis.Pattern(ctx, *req)
	svcmetrics.Observe("pattern", start, "")
	return xhttp.SuccessResponse(c, p)
}

func (h *AnalysisHandler) Backtest(c echo.Context) error {
	start := time.Now()
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.Observe("backtest", start, "bad_request")
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.analysis.Backtest(ctx, req.Symbol)
	if err != nil {
		return h.fail(c, "backtest", start, err)
	}
	svcmetrics.Observe("backtest", start, "")
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) Compare(c echo.Context) error {
	start := time.Now()
	req := &models.CompareRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.Observe("compare", start, "bad_request")
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.compare.Compare(ctx, req.Items)
	if err != nil {
		if errors.Is(err, compare.ErrTooFewSubjects) {
			appErr := xhttp.InsufficientDataError(compare.ErrTooFewSubjects.Error()).
				WithParam("errors", res.Errors).
				WithError(err)
			return h.fail(c, "compare", start, appErr)
		}
		return h.fail(c, "compare", start, err)
	}
	svcmetrics.Observe("compare", start, "")
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) Regime(c echo.Context) error {
	start := time.Now()
	req := &models.RegimeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.Observe("regime", start, "bad_request")
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	var (
		res *models.RegimeClassification
		err error
	)
	if req.Refresh {
		res, err = h.regime.Refresh(ctx)
	} else {
		res, err = h.regime.Current(ctx)
	}
	if err != nil {
		return h.fail(c, "regime", start, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	svcmetrics.Observe("regime", start, "")
	return xhttp.SuccessResponse(c, res)
}

// Classify accepts market inputs from an external collaborator and makes the
// result the current regime.
func (h *AnalysisHandler) Classify(c echo.Context) error {
	start := time.Now()
	req := &models.ClassifyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.Observe("regime_classify", start, "bad_request")
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.regime.Classify(ctx, req.Inputs)
	if err != nil {
		return h.fail(c, "regime_classify", start, err)
	}
	svcmetrics.Observe("regime_classify", start, "")
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) Delta(c echo.Context) error {
	start := time.Now()
	req := &models.DeltaRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.Observe("delta", start, "bad_request")
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.analysis.Delta(ctx, req.Symbol)
	if err != nil {
		return h.fail(c, "delta", start, err)
	}
	svcmetrics.Observe("delta", start, "")
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) Snapshots(c echo.Context) error {
	start := time.Now()
	req := &models.SnapshotsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.Observe("snapshots", start, "bad_request")
		return xhttp.BadRequestResponse(c, verr)
	}

	var since time.Time
	if req.Since != "" {
		t, ok := util.ParseTime(req.Since)
		if !ok {
			svcmetrics.Observe("snapshots", start, "bad_request")
			return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid since %q", req.Since))
		}
		since = t
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	rows, err := h.analysis.Snapshots(ctx, req.Symbol, since, req.Limit)
	if err != nil {
		return h.fail(c, "snapshots", start, err)
	}
	svcmetrics.Observe("snapshots", start, "")
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *AnalysisHandler) requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), h.timeout)
}

// fail maps usecase errors onto API errors, logs server-side failures and
// writes the response.
func (h *AnalysisHandler) fail(c echo.Context, endpoint string, start time.Time, err error) error {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
	case errors.Is(err, usecase.ErrMissingCriticalData):
		appErr = xhttp.InsufficientDataError(err.Error()).WithError(err)
	case errors.Is(err, domrepo.ErrSnapshotNotFound):
		appErr = xhttp.NotFoundErrorf("no analysis history for %s", c.Param("symbol")).WithError(err)
	case errors.Is(err, usecase.ErrRegimeUnavailable), errors.Is(err, usecase.ErrNoBarStore):
		appErr = xhttp.UnavailableError(err.Error()).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		appErr = xhttp.UnavailableError("request timed out").WithError(err)
	default:
		appErr = xhttp.InternalError("internal error").WithError(err)
	}

	if appErr.Status >= 500 && h.logger != nil {
		h.logger.Error(endpoint+" failed", xlogger.String("code", appErr.Code), xlogger.Error(err))
	}
	svcmetrics.Observe(endpoint, start, appErr.Code)
	return xhttp.AppErrorResponse(c, appErr)
}
