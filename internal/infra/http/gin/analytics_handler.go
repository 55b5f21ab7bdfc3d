package ginserver

import (
	"net/http"
	"strconv"
	"time"

	gin "github.com/gin-gonic/gin"

	analyticsapp "staynest/internal/app/handlers/analytics"
	"staynest/internal/app/queries"
)

// AnalyticsHandler serves the admin revenue dashboards. All reads run on
// frozen per-booking commission records.
type AnalyticsHandler struct {
	Queries queries.Bus
}

func (h AnalyticsHandler) RevenueSeries(c *gin.Context) {
	if _, ok := requireRole(c, "admin"); !ok {
		return
	}
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}
	granularity := analyticsapp.Granularity(c.DefaultQuery("granularity", "day"))
	q := analyticsapp.RevenueSeriesQuery{From: from, To: to, Granularity: granularity}
	result, err := queries.Ask[analyticsapp.RevenueSeriesQuery, *analyticsapp.RevenueSeriesResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AnalyticsHandler) OwnerRollup(c *gin.Context) {
	if _, ok := requireRole(c, "admin"); !ok {
		return
	}
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}
	q := analyticsapp.OwnerRollupQuery{From: from, To: to, Limit: parseLimit(c)}
	result, err := queries.Ask[analyticsapp.OwnerRollupQuery, *analyticsapp.OwnerRollupResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AnalyticsHandler) TopHotels(c *gin.Context) {
	if _, ok := requireRole(c, "admin"); !ok {
		return
	}
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}
	q := analyticsapp.TopHotelsQuery{From: from, To: to, Limit: parseLimit(c)}
	result, err := queries.Ask[analyticsapp.TopHotelsQuery, *analyticsapp.TopHotelsResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseWindow(c *gin.Context) (time.Time, time.Time, bool) {
	var from, to time.Time
	var err error
	if raw := c.Query("from"); raw != "" {
		from, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from: expected RFC3339 timestamp"})
			return time.Time{}, time.Time{}, false
		}
	}
	if raw := c.Query("to"); raw != "" {
		to, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to: expected RFC3339 timestamp"})
			return time.Time{}, time.Time{}, false
		}
	}
	return from, to, true
}

func parseLimit(c *gin.Context) int {
	raw := c.Query("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

var _ AnalyticsHTTP = AnalyticsHandler{}
