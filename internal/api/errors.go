package api

import (
	"errors"
	"net/http"

	"github.com/ignite/directmail/internal/importer"
	"github.com/ignite/directmail/internal/pkg/httputil"
	"github.com/ignite/directmail/internal/service/campaign"
	"github.com/ignite/directmail/internal/service/lists"
	"github.com/ignite/directmail/internal/service/suppression"
)

// respondServiceError maps service sentinels to status codes. Client errors
// echo the wrapped message; anything else is logged and answered with a
// generic 500 so database details never reach the caller.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lists.ErrNotFound),
		errors.Is(err, lists.ErrTagNotFound),
		errors.Is(err, lists.ErrRecordNotFound),
		errors.Is(err, campaign.ErrNotFound),
		errors.Is(err, suppression.ErrNotFound):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, lists.ErrInvalidInput),
		errors.Is(err, campaign.ErrInvalidInput),
		errors.Is(err, suppression.ErrInvalidInput),
		errors.Is(err, importer.ErrInvalidCriteria):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, lists.ErrDuplicateTag),
		errors.Is(err, campaign.ErrInvalidTransition),
		errors.Is(err, campaign.ErrAlreadyMailed),
		errors.Is(err, importer.ErrImportInProgress):
		httputil.Conflict(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}
