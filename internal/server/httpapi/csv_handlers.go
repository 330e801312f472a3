package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/csvbrowser/internal/common"
	"github.com/dmitrijs2005/csvbrowser/internal/server/metrics"
	"github.com/dmitrijs2005/csvbrowser/internal/server/models"
	"github.com/dmitrijs2005/csvbrowser/internal/server/notify"
	"github.com/go-chi/chi/v5"
)

const (
	eventUploaded = "CSV file uploaded"
	eventDeleted  = "CSV file deleted"
)

type fileResponse struct {
	ID         int64     `json:"id"`
	FileName   string    `json:"filename"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type tableResponse struct {
	FileName  string              `json:"filename"`
	Headers   []string            `json:"headers"`
	Rows      []map[string]string `json:"rows"`
	TotalRows int                 `json:"total_rows"`
}

func toFileResponse(f models.File) fileResponse {
	return fileResponse{ID: f.ID, FileName: f.FileName, Size: f.Size, UploadedAt: f.UploadedAt}
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, newAPIError(http.StatusBadRequest, msgInvalidID, err)
	}
	return id, nil
}

func (s *HTTPServer) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.svc.Files.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]fileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, toFileResponse(f))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleReadFile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	view, err := s.svc.Files.Read(r.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			err = newAPIError(http.StatusNotFound, msgCSVNotFound, err)
		}
		s.writeError(w, r, err)
		return
	}

	resp := tableResponse{
		FileName:  view.FileName,
		Headers:   view.Headers,
		Rows:      view.Rows,
		TotalRows: view.TotalRows,
	}
	if resp.Headers == nil {
		resp.Headers = []string{}
	}
	if resp.Rows == nil {
		resp.Rows = []map[string]string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, msgUploadTooLarge)
			return
		}
		writeDetail(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, msgFileFieldRequired)
		return
	}
	defer file.Close()

	f, err := s.svc.Files.Upload(r.Context(), header.Filename, file, currentUser(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	metrics.RecordUpload(f.Size)
	s.registry.Broadcast(r.Context(), notify.Event{Event: notify.EventCSVListUpdated, Message: eventUploaded})

	writeJSON(w, http.StatusCreated, toFileResponse(*f))
}

func (s *HTTPServer) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.svc.Files.Delete(r.Context(), id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			err = newAPIError(http.StatusNotFound, msgCSVNotFound, err)
		}
		s.writeError(w, r, err)
		return
	}

	s.registry.Broadcast(r.Context(), notify.Event{Event: notify.EventCSVListUpdated, Message: eventDeleted})
	w.WriteHeader(http.StatusNoContent)
}
