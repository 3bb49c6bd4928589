package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"avease/models"
)

type signupRequest struct {
	Email     string `json:"email" binding:"required,email,max=255"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
}

// POST /signup
func (d *deps) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		d.fail(c, bindError(err))
		return
	}

	u := models.User{
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	}
	if err := d.users.Create(c.Request.Context(), &u, req.Password); err != nil {
		d.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "user created successfully", "user": u})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /login. Guests have no credential and can never pass.
func (d *deps) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		d.fail(c, bindError(err))
		return
	}

	user, err := d.users.ValidateCredentials(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrBadCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "Could not authenticate user."})
		return
	case err != nil:
		d.fail(c, err)
		return
	}

	token, err := d.tokens.Generate(user.Email, user.ID, false)
	if err != nil {
		d.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful!", "token": token, "user": user})
}
