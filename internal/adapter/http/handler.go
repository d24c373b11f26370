package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/torisu/jimaku/internal/adapter/http/validation"
	"github.com/torisu/jimaku/internal/domain"
	"github.com/torisu/jimaku/internal/infrastructure/logger"
	"github.com/torisu/jimaku/internal/srt"
)

type AudioService interface {
	Upload(originalName string, file *os.File) (*domain.AudioFile, *domain.ProcessingJob, error)
	Get(id string) (*domain.AudioFile, error)
	Subtitles(audioFileID string) ([]domain.Subtitle, error)
	ActiveJobs() ([]*domain.ProcessingJob, error)
}

type Handlers struct {
	audioSvc  AudioService
	maxSizeMB int
}

func NewHandlers(audioSvc AudioService, maxSizeMB int) *Handlers {
	return &Handlers{
		audioSvc:  audioSvc,
		maxSizeMB: maxSizeMB,
	}
}

type uploadResponse struct {
	Audio *domain.AudioFile     `json:"audio"`
	Job   *domain.ProcessingJob `json:"job"`
}

func (h *Handlers) Upload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		maxBytes := int64(h.maxSizeMB) * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

		if err := r.ParseMultipartForm(maxBytes); err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid file upload")
			return
		}
		defer func() { _ = file.Close() }()

		mime, allowed, err := validation.ValidateMagicBytes(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "could not read file")
			return
		}
		if !allowed {
			writeError(w, http.StatusUnsupportedMediaType, fmt.Sprintf("unsupported file type %s", mime))
			return
		}

		tmpFile, err := os.CreateTemp("", "upload-*.tmp")
		if err != nil {
			logger.Error.Printf("create temp upload: %v", err)
			writeError(w, http.StatusInternalServerError, "upload failed")
			return
		}
		defer func() { _ = os.Remove(tmpFile.Name()) }()

		if _, err := io.Copy(tmpFile, file); err != nil {
			_ = tmpFile.Close()
			writeError(w, http.StatusInternalServerError, "upload failed")
			return
		}
		if err := tmpFile.Close(); err != nil {
			writeError(w, http.StatusInternalServerError, "upload failed")
			return
		}

		originalName := validation.SanitizeFilename(header.Filename)
		audio, job, err := h.audioSvc.Upload(originalName, tmpFile)
		if err != nil {
			logger.Error.Printf("upload failed for %s: %v", logger.SanitizeForLog(originalName), err)
			writeError(w, http.StatusInternalServerError, "upload failed")
			return
		}

		writeJSON(w, http.StatusAccepted, uploadResponse{Audio: audio, Job: job})
	}
}

func (h *Handlers) AudioInfo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		audio, err := h.audioSvc.Get(r.PathValue("id"))
		if err != nil {
			writeNotFoundOr500(w, err)
			return
		}
		writeJSON(w, http.StatusOK, audio)
	}
}

func (h *Handlers) Subtitles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subs, err := h.audioSvc.Subtitles(r.PathValue("id"))
		if err != nil {
			writeNotFoundOr500(w, err)
			return
		}
		if subs == nil {
			subs = []domain.Subtitle{}
		}
		writeJSON(w, http.StatusOK, subs)
	}
}

func (h *Handlers) ExportSRT() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		audio, err := h.audioSvc.Get(id)
		if err != nil {
			writeNotFoundOr500(w, err)
			return
		}
		subs, err := h.audioSvc.Subtitles(id)
		if err != nil {
			writeNotFoundOr500(w, err)
			return
		}

		var body string
		if r.URL.Query().Get("bilingual") == "1" {
			body = srt.FormatBilingual(subs)
		} else {
			body = srt.Format(subs)
		}

		filename := audio.OriginalName + ".srt"
		w.Header().Set("Content-Type", "application/x-subrip; charset=utf-8")
		w.Header().Set("Content-Disposition", validation.ContentDisposition(filename, false))
		_, _ = io.WriteString(w, body)
	}
}

func (h *Handlers) ActiveJobs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := h.audioSvc.ActiveJobs()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not list jobs")
			return
		}
		if jobs == nil {
			jobs = []*domain.ProcessingJob{}
		}
		writeJSON(w, http.StatusOK, jobs)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error.Printf("write json response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeNotFoundOr500(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "audio file not found")
		return
	}
	logger.Error.Printf("request failed: %v", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
