package tracker

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/okanb/health-tracker/internal/app"
	apperr "github.com/okanb/health-tracker/internal/errors"
)

// Registrar ties the tracker service into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the tracker service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the tracker endpoints to the router
func (r *Registrar) Register(e *gin.Engine) {
	h := &handler{svc: NewTrackerService(r.appCtx)}

	v1 := e.Group("/api/v1")
	v1.POST("/profiles", h.createProfile)
	v1.GET("/profiles/:id", h.getProfile)
	v1.PUT("/profiles/:id", h.updateProfile)
	v1.DELETE("/profiles/:id", h.deleteProfile)
	v1.POST("/profiles/:id/records", h.logRecord)
	v1.GET("/profiles/:id/records", h.listRecords)
	v1.GET("/profiles/:id/records/count", h.countRecords)
	v1.POST("/summary", h.summary)
}

type handler struct {
	svc *Service
}

func (h *handler) createProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.svc.CreateProfile(c.Request.Context(), &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *handler) getProfile(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	resp, err := h.svc.GetProfile(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) updateProfile(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.svc.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) deleteProfile(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteProfile(c.Request.Context(), userID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) logRecord(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req LogRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.svc.LogRecord(c.Request.Context(), userID, &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *handler) listRecords(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = n
	}

	var token *string
	if v := c.Query("page_token"); v != "" {
		token = &v
	}

	resp, err := h.svc.ListRecords(c.Request.Context(), userID, token, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) countRecords(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	count, err := h.svc.CountRecords(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "count": count})
}

func (h *handler) summary(c *gin.Context) {
	var req SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.svc.Summary(c.Request.Context(), &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func parseUserID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a valid uint64"})
		return 0, false
	}
	return id, true
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
}
