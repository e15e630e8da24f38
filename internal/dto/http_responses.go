package dto

import (
	"github.com/wb-go/wbf/ginext"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	BusinessNotFound  = "BUSINESS_NOT_FOUND"
	ItemNotFound      = "ITEM_NOT_FOUND"
	DocumentNotFound  = "DOCUMENT_NOT_FOUND"
	EventNotFound     = "EVENT_NOT_FOUND"
	PassNotFound      = "PASS_NOT_FOUND"
	InvalidTransition = "INVALID_STATUS_TRANSITION"
	Unauthorized      = "UNAUTHORIZED"
)

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func BadResponseError(c *ginext.Context, code, desc string) {
	c.JSON(400, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func NotFoundError(c *ginext.Context, code, desc string) {
	c.JSON(404, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func UnauthorizedError(c *ginext.Context) {
	c.JSON(401, Response{
		Status: "error",
		Error: &Error{
			Code: Unauthorized,
			Desc: "Authentication required",
		},
	})
}

func InternalServerError(c *ginext.Context) {
	c.JSON(500, Response{
		Status: "error",
		Error: &Error{
			Code: ServiceUnavailable,
			Desc: InternalError,
		},
	})
}

func BusinessNotFoundError(c *ginext.Context) {
	NotFoundError(c, BusinessNotFound, "Business not found")
}

func ItemNotFoundError(c *ginext.Context) {
	NotFoundError(c, ItemNotFound, "Item not found")
}

func DocumentNotFoundError(c *ginext.Context) {
	NotFoundError(c, DocumentNotFound, "Document not found")
}

func EventNotFoundError(c *ginext.Context) {
	NotFoundError(c, EventNotFound, "Event not found")
}

func PassNotFoundError(c *ginext.Context) {
	NotFoundError(c, PassNotFound, "Entry pass not found")
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{
		Status: "ok",
		Data:   data,
	})
}
