package api

import (
	"errors"
	"net/http"

	"github.com/okian/marks/internal/adapters/sheet"
	"github.com/okian/marks/pkg/logger"
)

// HandleDatasets handles POST, GET and DELETE /datasets.
func (s *Server) HandleDatasets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleUpload(w, r)
	case http.MethodGet:
		info, err := s.deps.Session()
		if err != nil {
			s.writeServiceError(r.Context(), w, "api.get_dataset", err)
			return
		}
		writeJSON(w, http.StatusOK, info)
	case http.MethodDelete:
		if err := s.deps.Clear(r.Context()); err != nil {
			s.writeServiceError(r.Context(), w, "api.delete_dataset", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

// handleUpload reads the multipart field "file". The format comes from the
// "format" query parameter or the file name.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_dataset"
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeServiceError(ctx, w, op, WrapKind(op, ErrTooLarge, err))
			return
		}
		s.writeServiceError(ctx, w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeServiceError(ctx, w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	defer func() { _ = file.Close() }()

	name := header.Filename
	if q := r.URL.Query().Get("format"); q != "" {
		name = "upload." + q
	}
	format, err := sheet.FormatFromName(name)
	if err != nil {
		s.writeServiceError(ctx, w, op, WrapKind(op, ErrUnsupportedFormat, err))
		return
	}

	table, err := sheet.Decode(file, format)
	if err != nil {
		s.writeServiceError(ctx, w, op, WrapKind(op, ErrBadRequest, err))
		return
	}

	info, err := s.deps.Load(ctx, table.Headers, table.Dataset)
	if err != nil {
		s.writeServiceError(ctx, w, op, err)
		return
	}
	s.logger.Info(ctx, "dataset uploaded",
		logger.String("file", header.Filename),
		logger.String("format", string(format)),
		logger.Int("records", info.Records),
	)
	writeJSON(w, http.StatusCreated, info)
}
