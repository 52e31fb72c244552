/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from locally produced error codes to their CustomError template.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every locally produced code.
var errorMap = map[int]CustomError{
	ErrUnauthorized: {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrInternal:     {Code: ErrInternal, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},

	// 1xxx
	ErrInvalidParams:     {Code: ErrInvalidParams, Message: "Invalid parameters."},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx
	ErrPrivateChatExists:     {Code: ErrPrivateChatExists, Message: "A private chat with this user already exists."},
	ErrChatNotFound:          {Code: ErrChatNotFound, Message: "Chat not found.", Status: http.StatusNotFound},
	ErrAttachmentsDisabled:   {Code: ErrAttachmentsDisabled, Message: "Attachments are not available."},
	ErrAttachmentTypeInvalid: {Code: ErrAttachmentTypeInvalid, Message: "This file type cannot be attached."},
	ErrFileSizeTooLarge:      {Code: ErrFileSizeTooLarge, Message: "File is too large (max %d MB)."},

	// 3xxx
	ErrNotAuthenticated: {Code: ErrNotAuthenticated, Message: "You are not signed in.", Status: http.StatusUnauthorized},
	ErrCooldownActive:   {Code: ErrCooldownActive, Message: "Please wait %d seconds before requesting a new code."},
}
