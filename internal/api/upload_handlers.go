package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/directmail/internal/datanorm"
	"github.com/ignite/directmail/internal/domain"
	"github.com/ignite/directmail/internal/pkg/httputil"
	"github.com/ignite/directmail/internal/pkg/logger"
	"github.com/ignite/directmail/internal/service/lists"
	"github.com/ignite/directmail/internal/service/suppression"
)

const (
	maxUploadBytes = 50 << 20
	maxUploadRows  = 250000
)

// RecordUploadResponse reports what a CSV upload did to a list.
type RecordUploadResponse struct {
	File    string                             `json:"file"`
	Rows    int                                `json:"rows"`
	Blank   int                                `json:"blank"`
	Columns map[string]datanorm.CanonicalField `json:"columns"`
	lists.AddResult
}

// HandleUploadRecords reads a broker CSV and adds its rows to a list. The
// file is sent either as multipart field "file" or as a raw text/csv body.
//
//	POST /api/lists/{listId}/records/upload
func (h *Handlers) HandleUploadRecords(w http.ResponseWriter, r *http.Request) {
	body, name, ok := uploadBody(w, r)
	if !ok {
		return
	}
	defer body.Close()

	file, err := datanorm.ReadRecords(body, name, maxUploadRows)
	if err != nil {
		respondUploadError(w, err)
		return
	}
	if len(file.Records) == 0 {
		httputil.BadRequest(w, "file has no usable rows")
		return
	}

	orgID := GetOrgIDFromContext(r.Context())
	listID := chi.URLParam(r, "listId")
	res, err := h.Lists.AddRecords(r.Context(), orgID, listID, file.Records)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	logger.Info("list upload processed", "org_id", orgID, "list_id", listID,
		"file", name, "rows", file.Rows, "inserted", res.Inserted)

	httputil.Created(w, RecordUploadResponse{
		File:      name,
		Rows:      file.Rows,
		Blank:     file.Blank,
		Columns:   file.Columns,
		AddResult: res,
	})
}

// HandleUploadSuppressions bulk-loads a do-not-mail CSV.
//
//	POST /api/suppressions/upload
func (h *Handlers) HandleUploadSuppressions(w http.ResponseWriter, r *http.Request) {
	body, _, ok := uploadBody(w, r)
	if !ok {
		return
	}
	defer body.Close()

	rows, err := datanorm.ReadSuppressions(body, maxUploadRows)
	if err != nil {
		respondUploadError(w, err)
		return
	}
	if len(rows) == 0 {
		httputil.BadRequest(w, "file has no usable rows")
		return
	}

	entries := make([]suppression.SuppressInput, len(rows))
	for i, row := range rows {
		entries[i] = suppression.SuppressInput{
			Email:   row.Email,
			Address: row.Address,
			Zip:     row.Zip,
			Reason:  domain.SuppressionReason(row.Reason),
			Note:    row.Note,
		}
	}

	res, err := h.Suppressions.Import(r.Context(), GetOrgIDFromContext(r.Context()), entries)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Created(w, res)
}

// uploadBody returns the uploaded file and its name. On failure the
// response has already been written.
func uploadBody(w http.ResponseWriter, r *http.Request) (io.ReadCloser, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case mediaType == "multipart/form-data":
		f, hdr, err := r.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				httputil.Error(w, http.StatusRequestEntityTooLarge, "upload too large")
				return nil, "", false
			}
			httputil.BadRequest(w, "multipart field \"file\" is required")
			return nil, "", false
		}
		return f, hdr.Filename, true
	case mediaType == "text/csv", mediaType == "text/plain", strings.HasSuffix(mediaType, "/octet-stream"):
		name := r.URL.Query().Get("filename")
		if name == "" {
			name = "upload.csv"
		}
		return r.Body, name, true
	default:
		httputil.Error(w, http.StatusUnsupportedMediaType,
			fmt.Sprintf("unsupported content type %q", mediaType))
		return nil, "", false
	}
}

func respondUploadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge), errors.Is(err, datanorm.ErrTooManyRows):
		httputil.Error(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		// ErrNoUsableColumns and malformed CSV are both the caller's problem.
		httputil.BadRequest(w, err.Error())
	}
}
