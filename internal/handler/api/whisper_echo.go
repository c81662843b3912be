package api

import (
	"context"
	"errors"
	"net/http"

	"MarketWhisperer/internal/domain/models"
	"MarketWhisperer/internal/service/ratelimit"
	xhttp "MarketWhisperer/pkg/http"
	xlogger "MarketWhisperer/pkg/logger"

	"github.com/labstack/echo/v4"
)

const inProgressStatus = "Analysis in progress..."

type instrumentService interface {
	Add(symbol, name string) (models.Instrument, error)
	Remove(symbol string) error
	List() []models.Instrument
	Snapshot() []models.Instrument
}

type jobService interface {
	Submit(ctx context.Context, instruments []models.Instrument) (string, error)
	Poll(ctx context.Context, id string) (*models.AnalysisJob, error)
}

// JobStatus is the poll view of a job: status while in flight, result on success, error on failure.
type JobStatus struct {
	State  models.JobState   `json:"state"`
	Status string            `json:"status,omitempty"`
	Result *[]models.Whisper `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// NewJobStatus renders a job snapshot for clients.
func NewJobStatus(job *models.AnalysisJob) JobStatus {
	switch job.State {
	case models.JobSuccess:
		res := job.Result
		if res == nil {
			res = []models.Whisper{}
		}
		return JobStatus{State: job.State, Result: &res}
	case models.JobFailure:
		return JobStatus{State: job.State, Error: job.Error}
	default:
		return JobStatus{State: job.State, Status: inProgressStatus}
	}
}

// WhisperEchoHandler serves instrument tracking and analysis jobs.
type WhisperEchoHandler struct {
	logger      *xlogger.Logger
	instruments instrumentService
	jobs        jobService
	limiter     *ratelimit.Limiter
}

func NewWhisperEchoHandler(logger *xlogger.Logger, instruments instrumentService, jobs jobService, limiter *ratelimit.Limiter) *WhisperEchoHandler {
	return &WhisperEchoHandler{logger: logger, instruments: instruments, jobs: jobs, limiter: limiter}
}

func (h *WhisperEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/stocks", h.ListStocks)
	e.POST("/stocks", h.AddStock)
	e.DELETE("/stocks/:symbol", h.RemoveStock)

	g := e.Group("/analyze")
	g.POST("/start", h.StartAnalysis)
	g.GET("/status/:task_id", h.AnalysisStatus)
}

func (h *WhisperEchoHandler) ListStocks(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.instruments.List())
}

func (h *WhisperEchoHandler) AddStock(c echo.Context) error {
	req := &models.AddInstrumentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	inst, err := h.instruments.Add(req.Symbol, req.Name)
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	h.logger.Info("instrument tracked", xlogger.String("symbol", inst.Symbol))
	return xhttp.CreatedResponse(c, inst)
}

func (h *WhisperEchoHandler) RemoveStock(c echo.Context) error {
	req := &models.SymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.instruments.Remove(req.Symbol); err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	h.logger.Info("instrument untracked", xlogger.String("symbol", req.Symbol))
	return xhttp.SuccessResponse(c, map[string]string{"message": "Stock removed"})
}

func (h *WhisperEchoHandler) StartAnalysis(c echo.Context) error {
	if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many analysis requests, slow down"))
	}

	id, err := h.jobs.Submit(c.Request().Context(), h.instruments.Snapshot())
	if err != nil {
		h.logger.Error("analysis submit failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("analysis queue unavailable").WithError(err))
	}
	return xhttp.AcceptedResponse(c, map[string]string{"task_id": id})
}

func (h *WhisperEchoHandler) AnalysisStatus(c echo.Context) error {
	req := &models.JobRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	job, err := h.jobs.Poll(c.Request().Context(), req.TaskID)
	if err != nil {
		h.logger.Error("analysis poll failed", xlogger.String("task_id", req.TaskID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("job store unavailable").WithError(err))
	}
	return xhttp.SuccessResponse(c, NewJobStatus(job))
}

func toAppError(err error) error {
	switch {
	case errors.Is(err, models.ErrDuplicateInstrument):
		return xhttp.NewAppError("ERR_DUPLICATE_INSTRUMENT", "symbol", "Stock already tracked", http.StatusBadRequest).WithError(err)
	case errors.Is(err, models.ErrInvalidSymbol):
		return xhttp.NewAppError("ERR_INVALID_SYMBOL", "symbol", "Symbol must not be blank", http.StatusBadRequest).WithError(err)
	case errors.Is(err, models.ErrUnknownInstrument):
		return xhttp.NewAppError("ERR_UNKNOWN_INSTRUMENT", "symbol", "Stock not tracked", http.StatusNotFound).WithError(err)
	default:
		return xhttp.InternalError("unexpected error").WithError(err)
	}
}
