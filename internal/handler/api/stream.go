package api

import (
	"context"
	"net/http"
	"time"

	"MarketWhisperer/internal/domain/models"
	xhttp "MarketWhisperer/pkg/http"
	xlogger "MarketWhisperer/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// streamFrame is one websocket message: a snapshot of the job.
type streamFrame struct {
	TaskID string `json:"task_id"`
	JobStatus
}

// JobStreamHandler pushes job snapshots over a websocket until the job is terminal.
type JobStreamHandler struct {
	logger   *xlogger.Logger
	jobs     jobService
	upgrader websocket.Upgrader
}

func NewJobStreamHandler(logger *xlogger.Logger, jobs jobService) *JobStreamHandler {
	return &JobStreamHandler{
		logger: logger,
		jobs:   jobs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *JobStreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/analyze/stream/:task_id", h.Stream)
}

func (h *JobStreamHandler) Stream(c echo.Context) error {
	req := &models.StreamRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already wrote the HTTP error
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// read pump: only control frames are expected; any read error ends the stream
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	h.watch(ctx, conn, req.TaskID, time.Duration(req.IntervalMS)*time.Millisecond)
	return nil
}

func (h *JobStreamHandler) watch(ctx context.Context, conn *websocket.Conn, taskID string, interval time.Duration) {
	poll := time.NewTicker(interval)
	defer poll.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		job, err := h.jobs.Poll(ctx, taskID)
		if err != nil {
			if ctx.Err() == nil {
				h.logger.Warn("stream poll failed", xlogger.String("task_id", taskID), xlogger.Error(err))
				h.closeWith(conn, websocket.CloseInternalServerErr, "job store unavailable")
			}
			return
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(streamFrame{TaskID: taskID, JobStatus: NewJobStatus(job)}); err != nil {
			return
		}
		if job.State.Terminal() {
			h.closeWith(conn, websocket.CloseNormalClosure, string(job.State))
			return
		}

	wait:
		for {
			select {
			case <-ctx.Done():
				return
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			case <-poll.C:
				break wait
			}
		}
	}
}

func (h *JobStreamHandler) closeWith(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
