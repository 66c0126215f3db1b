package controllers

import (
	"net/http"

	"github.com/d2bmarket/d2b-backend/api/responses"
	"github.com/d2bmarket/d2b-backend/api/validators"
	"github.com/d2bmarket/d2b-backend/internal/notifications"
	pkgerrors "github.com/d2bmarket/d2b-backend/pkg/errors"
	"github.com/d2bmarket/d2b-backend/pkg/logger"
)

// NotificationList returns the newest notifications for a recipient.
func NotificationList(repo notifications.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if repo == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications repository unavailable"))
			return
		}

		recipientID, err := validators.ParsePathUUID(r.URL.Query().Get("recipient_id"), "recipient_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultListLimit, 1, maxListLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := repo.ListByRecipient(ctx, recipientID, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
