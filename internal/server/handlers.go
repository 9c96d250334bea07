package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/ytget/yt-batch/internal/archive"
	"github.com/ytget/yt-batch/internal/download"
	"github.com/ytget/yt-batch/internal/model"
	"github.com/ytget/yt-batch/internal/registry"
	"github.com/ytget/yt-batch/internal/worker"
)

// Error messages returned to clients
const (
	ErrMsgNoValidURLs    = "No valid URLs"
	ErrMsgInvalidRequest = "Invalid request"
	ErrMsgInvalidQuality = "Invalid quality"
	ErrMsgBusy           = "Server busy, try again later"
	ErrMsgInternal       = "Internal error"
	ErrMsgNotFound       = "Not found"
	ErrMsgZipNotFound    = "Zip not found"
	StatusMessagePrefix  = "Status: "
)

type submitRequest struct {
	URLs    []string `json:"urls"`
	Quality string   `json:"quality"`
}

type submitResponse struct {
	Success    bool   `json:"success"`
	DownloadID string `json:"download_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

type errorResponse struct {
	Error  string          `json:"error"`
	Status model.JobStatus `json:"status,omitempty"`
}

func (s *Server) index(c echo.Context) error {
	return c.HTMLBlob(http.StatusOK, indexHTML)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) submit(c echo.Context) error {
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, submitResponse{Error: ErrMsgInvalidRequest})
	}

	id, err := s.svc.Submit(req.URLs, req.Quality)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, submitResponse{Success: true, DownloadID: id})
	case errors.Is(err, download.ErrNoValidURLs):
		return c.JSON(http.StatusBadRequest, submitResponse{Error: ErrMsgNoValidURLs})
	case errors.Is(err, model.ErrInvalidQuality):
		return c.JSON(http.StatusBadRequest, submitResponse{Error: ErrMsgInvalidQuality})
	case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrPoolStopped):
		return c.JSON(http.StatusServiceUnavailable, submitResponse{Error: ErrMsgBusy})
	default:
		log.Error().Err(err).Msg("submit failed")
		return c.JSON(http.StatusInternalServerError, submitResponse{Error: ErrMsgInternal})
	}
}

func (s *Server) progress(c echo.Context) error {
	job, err := s.svc.Status(c.Param("id"))
	if err != nil {
		return s.jobError(c, err)
	}
	return c.JSON(http.StatusOK, job)
}

func (s *Server) listJobs(c echo.Context) error {
	return c.JSON(http.StatusOK, s.svc.List())
}

func (s *Server) downloadZip(c echo.Context) error {
	id := c.Param("id")
	job, err := s.svc.Archive(id)
	switch {
	case err == nil:
	case errors.Is(err, download.ErrNotReady), errors.Is(err, download.ErrJobFailed):
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:  StatusMessagePrefix + job.Status.String(),
			Status: job.Status,
		})
	case errors.Is(err, download.ErrArchiveMissing):
		return c.JSON(http.StatusNotFound, errorResponse{Error: ErrMsgZipNotFound, Status: job.Status})
	default:
		return s.jobError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentType, "application/zip")
	return c.Attachment(job.ArchivePath, archive.ArchivePrefix+id+archive.ArchiveExtension)
}

func (s *Server) handleWebSocket(c echo.Context) error {
	jobID := c.QueryParam("job")
	if jobID != "" {
		if _, err := s.svc.Status(jobID); err != nil {
			return s.jobError(c, err)
		}
	}

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return nil
	}
	s.hub.Serve(conn, jobID, s.snapshot(jobID))
	return nil
}

// snapshot lists the jobs a new WebSocket client starts from
func (s *Server) snapshot(jobID string) SnapshotFunc {
	return func() []model.Job {
		if jobID == "" {
			return s.svc.List()
		}
		job, err := s.svc.Status(jobID)
		if err != nil {
			return []model.Job{}
		}
		return []model.Job{job}
	}
}

func (s *Server) jobError(c echo.Context, err error) error {
	if errors.Is(err, registry.ErrNotFound) {
		return c.JSON(http.StatusNotFound, errorResponse{Error: ErrMsgNotFound})
	}
	log.Error().Err(err).Msg("job lookup failed")
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: ErrMsgInternal})
}
