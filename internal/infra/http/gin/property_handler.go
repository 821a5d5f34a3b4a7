package ginserver

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainproperty "staybook/internal/domain/property"
	"staybook/internal/domain/shared/clock"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/user"
	"staybook/internal/infra/storage/s3"
)

type PropertyHandler struct {
	Properties domainproperty.Repository
	Users      user.Repository
	Uploader   s3.Uploader
	Clock      clock.Clock
}

type createPropertyRequest struct {
	Title            string `json:"title" binding:"required"`
	Description      string `json:"description"`
	Line1            string `json:"line1"`
	City             string `json:"city"`
	Country          string `json:"country"`
	NightlyRateCents int64  `json:"nightly_rate_cents" binding:"required"`
	Currency         string `json:"currency" binding:"required"`
}

func (h PropertyHandler) Create(c *gin.Context) {
	hostID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req createPropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	host, err := h.Users.ByID(c.Request.Context(), hostID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !host.HasRole(user.RoleHost) {
		c.JSON(http.StatusForbidden, gin.H{"error": "host role required"})
		return
	}

	rate, err := money.New(req.NightlyRateCents, req.Currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prop, err := domainproperty.NewProperty(domainproperty.CreateParams{
		ID:          domainproperty.ID(uuid.NewString()),
		HostID:      hostID,
		Title:       req.Title,
		Description: req.Description,
		Address: domainproperty.Address{
			Line1:   req.Line1,
			City:    req.City,
			Country: req.Country,
		},
		NightlyRate: rate,
		CreatedAt:   h.now(),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.Properties.Save(c.Request.Context(), prop); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": string(prop.ID)})
}

func (h PropertyHandler) UploadPhoto(c *gin.Context) {
	hostID, ok := requireUserID(c)
	if !ok {
		return
	}
	prop, err := h.Properties.ByID(c.Request.Context(), domainproperty.ID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	if prop.HostID != hostID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the owning host may upload photos"})
		return
	}

	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	defer file.Close()

	key := fmt.Sprintf("properties/%s/%s%s", prop.ID, uuid.NewString(), filepath.Ext(header.Filename))
	url, err := h.Uploader.Upload(c.Request.Context(), key, file, header.Header.Get("Content-Type"))
	if err != nil {
		writeError(c, err)
		return
	}

	prop.AttachPhoto(url, h.now())
	if err := h.Properties.Save(c.Request.Context(), prop); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

func (h PropertyHandler) Delete(c *gin.Context) {
	hostID, ok := requireUserID(c)
	if !ok {
		return
	}
	prop, err := h.Properties.ByID(c.Request.Context(), domainproperty.ID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	actor, err := h.Users.ByID(c.Request.Context(), hostID)
	if err != nil {
		writeError(c, err)
		return
	}
	if prop.HostID != hostID && !actor.HasRole(user.RoleAdmin) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the owning host or an admin may delete"})
		return
	}
	if err := h.Properties.Delete(c.Request.Context(), prop.ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h PropertyHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now()
	}
	return time.Now().UTC()
}

var _ PropertyHTTP = PropertyHandler{}
