package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/marks/internal/adapters/sheet"
)

// HandleExport handles GET /export/{first|final|grades|all}?format=xlsx|csv.
func (s *Server) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_export"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	which := strings.TrimPrefix(r.URL.Path, "/export/")
	if which == "" || strings.Contains(which, "/") {
		s.writeServiceError(r.Context(), w, op, NewKind(op, ErrBadRequest))
		return
	}
	format, ok := s.format(w, r, op)
	if !ok {
		return
	}

	sheets, err := s.deps.Export(r.Context(), which)
	if err != nil {
		s.writeServiceError(r.Context(), w, op, err)
		return
	}
	s.writeSheets(w, r, op, sheet.FileName(which, format, s.now()), format, sheets...)
}

// HandleTemplate handles GET /template?format=xlsx|csv.
func (s *Server) HandleTemplate(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_template"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	format, ok := s.format(w, r, op)
	if !ok {
		return
	}
	s.writeSheets(w, r, op, "template."+string(format), format, s.deps.Template())
}

func (s *Server) format(w http.ResponseWriter, r *http.Request, op string) (sheet.Format, bool) {
	name := r.URL.Query().Get("format")
	if name == "" {
		return sheet.FormatXLSX, true
	}
	format, err := sheet.ParseFormat(name)
	if err != nil {
		s.writeServiceError(r.Context(), w, op, WrapKind(op, ErrUnsupportedFormat, err))
		return "", false
	}
	return format, true
}

// writeSheets encodes into memory first so encode failures still get a JSON
// error response.
func (s *Server) writeSheets(w http.ResponseWriter, r *http.Request, op, filename string, format sheet.Format, sheets ...sheet.Sheet) {
	var buf bytes.Buffer
	if err := sheet.Encode(&buf, format, sheets...); err != nil {
		s.writeServiceError(r.Context(), w, op, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
