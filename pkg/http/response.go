package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Response is the JSON envelope for all API responses.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK writes a 200 response with data.
func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// Created writes a 201 response with data.
func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// BadRequest writes a 400 response with an error message.
func BadRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// Internal writes a 500 response with an error message.
func Internal(c echo.Context, msg string) error {
	return c.JSON(http.StatusInternalServerError, Response{Success: false, Error: msg})
}
