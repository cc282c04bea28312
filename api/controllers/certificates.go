package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/verdecoop/verdecoop-backend/api/responses"
	"github.com/verdecoop/verdecoop-backend/api/validators"
	"github.com/verdecoop/verdecoop-backend/internal/certificates"
	pkgerrors "github.com/verdecoop/verdecoop-backend/pkg/errors"
	"github.com/verdecoop/verdecoop-backend/pkg/logger"
	"github.com/verdecoop/verdecoop-backend/pkg/pagination"
)

// CertificateList pages an owner's certificates, newest first.
func CertificateList(repo certificates.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "certificate repository unavailable"))
			return
		}

		ownerID, err := validators.ParsePathUUID(chi.URLParam(r, "accountID"), "account id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := repo.ListByOwner(r.Context(), ownerID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// CertificateBySerial resolves one certificate by its serial number.
func CertificateBySerial(repo certificates.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "certificate repository unavailable"))
			return
		}

		serial := strings.TrimSpace(chi.URLParam(r, "serial"))
		if serial == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "serial is required"))
			return
		}

		certificate, err := repo.FindBySerial(r.Context(), serial)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				err = pkgerrors.New(pkgerrors.CodeNotFound, "certificate not found")
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, certificate)
	}
}
