package api

import (
	"encoding/json"
	"net/http"

	"github.com/cruzdariel/Sendy/config"
	"github.com/cruzdariel/Sendy/flights"
	"github.com/cruzdariel/Sendy/pkg/cache"
	"github.com/cruzdariel/Sendy/pkg/logger"
	"github.com/cruzdariel/Sendy/share"
	"github.com/gin-gonic/gin"
)

// ShareRequest is the body of a share creation call. A nil TTLDays means
// "use the configured default"; an explicit 0 creates an instantly
// expiring share.
type ShareRequest struct {
	TTLDays   *int   `json:"ttl_days" binding:"omitempty,min=0,max=365"`
	OwnerName string `json:"owner_name" binding:"omitempty,max=100"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// sharedView is the payload served for a public share view.
type sharedView struct {
	Share   share.Metadata    `json:"share"`
	Stats   *flights.Snapshot `json:"stats"`
	Flights []flights.Record  `json:"flights"`
}

// UploadFlights parses a Flighty CSV export, computes its statistics and
// registers an in-memory session for later filtering and sharing.
func UploadFlights(sessions *SessionStore, lookup flights.AirportLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, _, err := c.Request.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
			return
		}
		defer file.Close()

		records, err := flights.ParseCSV(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not parse CSV: " + err.Error()})
			return
		}

		snapshot := flights.Compute(records, lookup)
		session := sessions.Create(records, snapshot)

		logger.Info("flights uploaded", "session_id", session.ID,
			"flights", snapshot.TotalFlights, "cancelled", snapshot.CancelledFlights)

		c.JSON(http.StatusOK, gin.H{
			"session_id": session.ID,
			"stats":      snapshot,
		})
	}
}

// GetSessionStats re-filters a session's dataset by the start/end query
// parameters and returns the recomputed statistics. Malformed bounds act
// as absent bounds rather than failing the request.
func GetSessionStats(sessions *SessionStore, lookup flights.AirportLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := sessions.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}

		startDate := c.Query("start")
		endDate := c.Query("end")

		filtered := flights.FilterByDateRange(session.Original, startDate, endDate)
		snapshot := flights.Compute(filtered, lookup)
		sessions.SetFilter(session.ID, filtered, snapshot, startDate, endDate)

		c.JSON(http.StatusOK, gin.H{
			"session_id": session.ID,
			"stats":      snapshot,
		})
	}
}

// CreateShare publishes a session's current (possibly filtered) dataset
// under a new share identifier.
func CreateShare(sessions *SessionStore, manager *share.Manager, lookup flights.AirportLookup, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := sessions.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}

		var req ShareRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		records := session.Filtered
		snapshot := session.Snapshot
		startDate := session.StartDate
		endDate := session.EndDate
		if req.StartDate != "" || req.EndDate != "" {
			startDate, endDate = req.StartDate, req.EndDate
			records = flights.FilterByDateRange(session.Original, startDate, endDate)
			snapshot = flights.Compute(records, lookup)
		}

		opts := share.CreateOptions{
			TTLDays:   -1,
			OwnerName: req.OwnerName,
		}
		if req.TTLDays != nil {
			opts.TTLDays = *req.TTLDays
		}
		if startDate != "" || endDate != "" {
			opts.DateRange = &share.DateRange{Start: startDate, End: endDate}
		}

		shareID, err := manager.Create(c.Request.Context(), records, snapshot, opts)
		if err != nil {
			logger.Error(err, "creating share", "session_id", session.ID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create share"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"share_id":  shareID,
			"share_url": share.URL(cfg.BaseURL, shareID),
		})
	}
}

// ListShares returns metadata for all currently valid shares.
func ListShares(manager *share.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"shares": manager.ListActive(c.Request.Context())})
	}
}

// GetShareInfo returns a share's stored metadata without applying expiry,
// so the caller can render "expired" and "never existed" differently.
func GetShareInfo(manager *share.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		meta, ok := manager.Info(c.Request.Context(), c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "share not found"})
			return
		}
		c.JSON(http.StatusOK, meta)
	}
}

// GetSharedData serves the public share view: validation failures render
// as "invalid or expired", while a dataset that fails to load after
// passing validation renders as a distinct "unable to load data".
func GetSharedData(manager *share.Manager, shareCache cache.Cache, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		shareID := c.Param("id")
		ctx := c.Request.Context()

		if !manager.Validate(ctx, shareID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invalid or expired share"})
			return
		}

		if shareCache != nil {
			if data, err := shareCache.Get(ctx, shareID); err == nil {
				c.Data(http.StatusOK, "application/json", data)
				return
			}
		}

		records, snapshot, ok := manager.LoadShared(ctx, shareID)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load data"})
			return
		}
		meta, ok := manager.Info(ctx, shareID)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load data"})
			return
		}

		view := sharedView{Share: meta, Stats: snapshot, Flights: records}
		if shareCache != nil {
			if data, err := json.Marshal(view); err == nil {
				if err := shareCache.Set(ctx, shareID, data, cfg.RedisConfig.CacheTTL); err != nil {
					logger.Warn("share cache set failed", "share_id", shareID, "error", err)
				}
			}
		}

		c.JSON(http.StatusOK, view)
	}
}

// DeactivateShare permanently turns a share off and drops any cached view.
func DeactivateShare(manager *share.Manager, shareCache cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		shareID := c.Param("id")
		ctx := c.Request.Context()

		if !manager.Deactivate(ctx, shareID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "share not found"})
			return
		}
		if shareCache != nil {
			if err := shareCache.Delete(ctx, shareID); err != nil {
				logger.Warn("share cache invalidation failed", "share_id", shareID, "error", err)
			}
		}
		c.JSON(http.StatusOK, gin.H{"share_id": shareID, "is_active": false})
	}
}
