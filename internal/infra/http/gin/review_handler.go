package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainproperty "staybook/internal/domain/property"
	domainreview "staybook/internal/domain/review"
	"staybook/internal/domain/shared/clock"
)

type ReviewHandler struct {
	Reviews    domainreview.Repository
	Properties domainproperty.Repository
	Clock      clock.Clock
}

type submitReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment" binding:"required"`
}

func (h ReviewHandler) Submit(c *gin.Context) {
	authorID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prop, err := h.Properties.ByID(c.Request.Context(), domainproperty.ID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}

	review, err := domainreview.New(
		domainreview.ID(uuid.NewString()),
		prop.ID,
		authorID,
		req.Rating,
		req.Comment,
		h.now(),
	)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.Reviews.Save(c.Request.Context(), review); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": string(review.ID)})
}

func (h ReviewHandler) List(c *gin.Context) {
	reviews, err := h.Reviews.ListByProperty(c.Request.Context(), domainproperty.ID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	type reviewResponse struct {
		ID       string `json:"id"`
		AuthorID string `json:"author_id"`
		Rating   int    `json:"rating"`
		Comment  string `json:"comment"`
	}
	out := make([]reviewResponse, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, reviewResponse{
			ID:       string(r.ID),
			AuthorID: string(r.AuthorID),
			Rating:   r.Rating,
			Comment:  r.Comment,
		})
	}
	c.JSON(http.StatusOK, gin.H{"reviews": out})
}

func (h ReviewHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now()
	}
	return time.Now().UTC()
}

var _ ReviewHTTP = ReviewHandler{}
