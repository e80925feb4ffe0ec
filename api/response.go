package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sales_api/internal/auth"
	"sales_api/internal/sales"
)

// User-facing messages. Failure details stay in the logs.
const (
	MsgAdded         = "Record added successfully."
	MsgModified      = "Record updated successfully."
	MsgDeleted       = "Record deleted successfully."
	MsgSuccessful    = "Request completed successfully."
	MsgNotFound      = "Record not found."
	MsgInvalidData   = "Invalid data provided."
	MsgException     = "Something went wrong, please try again later."
	MsgNotLoggedIn   = "User is not logged in."
	MsgBadLogin      = "Invalid username or password."
	MsgUserExists    = "Username is already taken."
	MsgRegistered    = "User registered successfully."
	MsgLoggedIn      = "User logged in successfully."
	MsgTooManyCalls  = "Too many requests, slow down."
	MsgInvalidFilter = "Provide both startDate and endDate, or a representativeId greater than zero."
)

// Envelope is the uniform body of every API response.
type Envelope struct {
	IsSuccess bool   `json:"isSuccess"`
	IsError   bool   `json:"isError"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{IsSuccess: true, Message: message, Data: data})
}

func respondFailure(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{IsError: true, Message: message})
}

// respondError maps a service error onto its status and message.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sales.ErrNotFound):
		respondFailure(c, http.StatusNotFound, MsgNotFound)
	case errors.Is(err, sales.ErrInvalidFilter):
		respondFailure(c, http.StatusBadRequest, MsgInvalidFilter)
	case errors.Is(err, sales.ErrInvalidInput):
		respondFailure(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidUsername):
		respondFailure(c, http.StatusBadRequest, MsgInvalidData)
	case errors.Is(err, auth.ErrUserExists):
		respondFailure(c, http.StatusConflict, MsgUserExists)
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondFailure(c, http.StatusUnauthorized, MsgBadLogin)
	default:
		respondFailure(c, http.StatusInternalServerError, MsgException)
	}
}
