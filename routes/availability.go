package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"avease/models"
	"avease/services"
)

type weeklyRequest struct {
	Day       string `json:"selected_day" binding:"required"`
	StartTime string `json:"selected_start_time" binding:"required"`
	EndTime   string `json:"selected_end_time"`
}

type dateRequest struct {
	Date      string `json:"selected_date" binding:"required"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type rsvpRequest struct {
	Status string `json:"status" binding:"required"`
}

func participantParam(c *gin.Context) (int64, error) {
	pid, err := strconv.ParseInt(c.Param("pid"), 10, 64)
	if err != nil || pid <= 0 {
		return 0, models.InvalidField("participant", "must be a participant id")
	}
	return pid, nil
}

// GET /events/:link/availabilities
func (d *deps) getAvailabilities(c *gin.Context) {
	view, err := d.scheduler.GetAvailabilities(c.Request.Context(), requester(c), c.Param("link"))
	if err != nil {
		d.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// PUT /events/:link/participants/:pid/weekly
func (d *deps) setWeekly(c *gin.Context) {
	pid, err := participantParam(c)
	if err != nil {
		d.fail(c, err)
		return
	}
	var req weeklyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		d.fail(c, bindError(err))
		return
	}

	link := c.Param("link")
	slot, err := d.scheduler.SetWeeklySlot(c.Request.Context(), requester(c), link, services.WeeklySlotInput{
		ParticipantID: pid,
		Day:           req.Day,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	})
	if err != nil {
		d.fail(c, err)
		return
	}
	d.purge(c, link)
	c.JSON(http.StatusOK, slot)
}

// DELETE /events/:link/participants/:pid/weekly
func (d *deps) removeWeekly(c *gin.Context) {
	pid, err := participantParam(c)
	if err != nil {
		d.fail(c, err)
		return
	}
	var req weeklyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		d.fail(c, bindError(err))
		return
	}

	link := c.Param("link")
	err = d.scheduler.RemoveWeeklySlot(c.Request.Context(), requester(c), link, services.WeeklySlotInput{
		ParticipantID: pid,
		Day:           req.Day,
		StartTime:     req.StartTime,
	})
	if err != nil {
		d.fail(c, err)
		return
	}
	d.purge(c, link)
	c.Status(http.StatusNoContent)
}

// PUT /events/:link/participants/:pid/dates
func (d *deps) setDate(c *gin.Context) {
	pid, err := participantParam(c)
	if err != nil {
		d.fail(c, err)
		return
	}
	var req dateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		d.fail(c, bindError(err))
		return
	}

	link := c.Param("link")
	slot, err := d.scheduler.SetDateSlot(c.Request.Context(), requester(c), link, services.DateSlotInput{
		ParticipantID: pid,
		Date:          req.Date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	})
	if err != nil {
		d.fail(c, err)
		return
	}
	d.purge(c, link)
	c.JSON(http.StatusOK, slot)
}

// DELETE /events/:link/participants/:pid/dates. Without times every slot
// on the date goes.
func (d *deps) removeDate(c *gin.Context) {
	pid, err := participantParam(c)
	if err != nil {
		d.fail(c, err)
		return
	}
	var req dateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		d.fail(c, bindError(err))
		return
	}

	link := c.Param("link")
	err = d.scheduler.RemoveDateSlot(c.Request.Context(), requester(c), link, services.DateSlotInput{
		ParticipantID: pid,
		Date:          req.Date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	})
	if err != nil {
		d.fail(c, err)
		return
	}
	d.purge(c, link)
	c.Status(http.StatusNoContent)
}

// PUT /events/:link/participants/:pid/rsvp
func (d *deps) setRSVP(c *gin.Context) {
	pid, err := participantParam(c)
	if err != nil {
		d.fail(c, err)
		return
	}
	var req rsvpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		d.fail(c, bindError(err))
		return
	}

	link := c.Param("link")
	row, err := d.scheduler.SetRSVP(c.Request.Context(), requester(c), link, services.RSVPInput{
		ParticipantID: pid,
		Status:        req.Status,
	})
	if err != nil {
		d.fail(c, err)
		return
	}
	d.purge(c, link)
	c.JSON(http.StatusOK, row)
}
