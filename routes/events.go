package routes

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"avease/services"
)

// Detail fields are read from the same body, flat or under
// "event_details", so only the base fields are bound here.
type createEventRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
	Location    string `json:"location" binding:"max=255"`
	EventType   string `json:"event_type" binding:"required"`
}

type updateEventRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=255"`
	Description *string `json:"description"`
	Location    *string `json:"location" binding:"omitempty,max=255"`
	EventType   *string `json:"event_type"`
}

// rawBody returns the body cached by ShouldBindBodyWith.
func rawBody(c *gin.Context) json.RawMessage {
	if b, ok := c.Get(gin.BodyBytesKey); ok {
		if raw, ok := b.([]byte); ok {
			return raw
		}
	}
	return nil
}

// GET /events
func (d *deps) listEvents(c *gin.Context) {
	events, err := d.scheduler.ListEvents(c.Request.Context(), requester(c))
	if err != nil {
		d.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// POST /events
func (d *deps) createEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		d.fail(c, bindError(err))
		return
	}

	view, err := d.scheduler.CreateEvent(c.Request.Context(), requester(c), services.CreateEventInput{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Type:        req.EventType,
		Details:     rawBody(c),
	})
	if err != nil {
		d.fail(c, err)
		return
	}
	d.inv.PurgeEventsList(c.Request.Context())
	c.JSON(http.StatusCreated, view)
}

// GET /events/:link
func (d *deps) getEvent(c *gin.Context) {
	view, err := d.scheduler.GetEvent(c.Request.Context(), requester(c), c.Param("link"))
	if err != nil {
		d.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// PUT|PATCH /events/:link. Both are partial: absent fields keep their value.
func (d *deps) updateEvent(c *gin.Context) {
	var req updateEventRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		d.fail(c, bindError(err))
		return
	}

	link := c.Param("link")
	view, err := d.scheduler.UpdateEvent(c.Request.Context(), requester(c), link, services.UpdateEventInput{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Type:        req.EventType,
		Details:     rawBody(c),
	})
	if err != nil {
		d.fail(c, err)
		return
	}
	d.purge(c, link)
	c.JSON(http.StatusOK, view)
}

// DELETE /events/:link
func (d *deps) deleteEvent(c *gin.Context) {
	link := c.Param("link")
	if err := d.scheduler.DeleteEvent(c.Request.Context(), requester(c), link); err != nil {
		d.fail(c, err)
		return
	}
	d.purge(c, link)
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully!"})
}
