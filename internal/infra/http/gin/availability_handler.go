package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/availability"
	domainproperty "staybook/internal/domain/property"
	"staybook/internal/domain/shared/daterange"
)

type AvailabilityHandler struct {
	Service *availability.Service
}

func (h AvailabilityHandler) Check(c *gin.Context) {
	propertyID := domainproperty.ID(c.Param("id"))
	dr, ok := rangeFromQuery(c, "check_in", "check_out")
	if !ok {
		return
	}
	free, err := h.Service.IsAvailable(c.Request.Context(), propertyID, dr)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"property_id": string(propertyID),
		"check_in":    dr.CheckIn.Format("2006-01-02"),
		"check_out":   dr.CheckOut.Format("2006-01-02"),
		"available":   free,
	})
}

func (h AvailabilityHandler) FreeRanges(c *gin.Context) {
	propertyID := domainproperty.ID(c.Param("id"))
	window, ok := rangeFromQuery(c, "from", "to")
	if !ok {
		return
	}
	free, err := h.Service.FreeRanges(c.Request.Context(), propertyID, window)
	if err != nil {
		writeError(c, err)
		return
	}
	type rangeResponse struct {
		CheckIn  string `json:"check_in"`
		CheckOut string `json:"check_out"`
	}
	out := make([]rangeResponse, 0, len(free))
	for _, r := range free {
		out = append(out, rangeResponse{
			CheckIn:  r.CheckIn.Format("2006-01-02"),
			CheckOut: r.CheckOut.Format("2006-01-02"),
		})
	}
	c.JSON(http.StatusOK, gin.H{"property_id": string(propertyID), "free": out})
}

func rangeFromQuery(c *gin.Context, fromKey, toKey string) (daterange.DateRange, bool) {
	from, err := parseDate(c.Query(fromKey))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fromKey + " must be a YYYY-MM-DD date"})
		return daterange.DateRange{}, false
	}
	to, err := parseDate(c.Query(toKey))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": toKey + " must be a YYYY-MM-DD date"})
		return daterange.DateRange{}, false
	}
	dr, err := daterange.New(from, to)
	if err != nil {
		writeError(c, err)
		return daterange.DateRange{}, false
	}
	return dr, true
}

var _ AvailabilityHTTP = AvailabilityHandler{}
