package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/rental-calendar/backend/internal/api/middleware"
	"github.com/rental-calendar/backend/internal/calendar"
	"github.com/rental-calendar/backend/internal/storage/models"
)

type GlobalSyncResponse struct {
	FeedsSynced int                 `json:"feeds_synced"`
	FeedsFailed int                 `json:"feeds_failed"`
	Results     []models.SyncResult `json:"results"`
}

// GlobalSync runs every active feed through the synchronizer. External
// schedulers call this with the shared secret, passed as a header or a
// query parameter. An empty configured secret disables the endpoint.
func GlobalSync(syncService *calendar.SyncService, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if secret == "" {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Global sync is not enabled")
			return
		}

		provided := r.Header.Get("X-Sync-Secret")
		if provided == "" {
			provided = r.URL.Query().Get("secret")
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			middleware.WriteError(w, http.StatusUnauthorized, middleware.ErrUnauthorized, "Invalid sync secret")
			return
		}

		results, err := syncService.SyncAllActive(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := GlobalSyncResponse{Results: results}
		if resp.Results == nil {
			resp.Results = []models.SyncResult{}
		}
		for _, res := range results {
			if res.OK {
				resp.FeedsSynced++
			} else {
				resp.FeedsFailed++
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
