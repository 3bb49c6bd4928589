package routes

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"avease/services"
)

type joinRequest struct {
	GuestName string `json:"guest_name" binding:"max=150"`
}

// POST /events/:link/participants. Signed-in callers may send no body;
// anonymous callers name themselves and get a guest token back.
func (d *deps) join(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		d.fail(c, bindError(err))
		return
	}

	link := c.Param("link")
	res, err := d.scheduler.Join(c.Request.Context(), requester(c), link, services.JoinInput{GuestName: req.GuestName})
	if err != nil {
		d.fail(c, err)
		return
	}
	d.purge(c, link)

	body := gin.H{"participant": res.Participant}
	if res.Guest != nil {
		token, err := d.tokens.Generate(res.Guest.Email, res.Guest.ID, true)
		if err != nil {
			d.fail(c, err)
			return
		}
		body["token"] = token
		body["guest"] = res.Guest
	}
	c.JSON(http.StatusCreated, body)
}

// DELETE /events/:link/participants
func (d *deps) leave(c *gin.Context) {
	link := c.Param("link")
	if err := d.scheduler.Leave(c.Request.Context(), requester(c), link); err != nil {
		d.fail(c, err)
		return
	}
	d.purge(c, link)
	c.JSON(http.StatusOK, gin.H{"message": "Left the event."})
}
