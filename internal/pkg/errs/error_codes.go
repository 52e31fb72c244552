/*
Package errs provides custom error types and application-level error code constants.

Codes below 1000 mirror what the remote service reports (HTTP-like values carried in
error payloads). Codes from 1000 upwards are produced locally by the client when an
operation is rejected without reaching the network.
*/
package errs

// Remote and normalized codes.
const (
	// ErrUnauthorized indicates the service rejected the credential.
	ErrUnauthorized = 401

	// ErrInternal is the fixed code every transport or parse failure is normalized to.
	ErrInternal = 500
)

// 1xxx: Local validation errors
const (
	// ErrInvalidParams indicates that an argument failed local validation.
	ErrInvalidParams = 1001

	// ErrRateLimitExceeded indicates that the inspection API rate limit was hit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Chat and message errors
const (
	// ErrPrivateChatExists indicates a private chat with the counterpart is already cached.
	ErrPrivateChatExists = 2101

	// ErrChatNotFound indicates that the chat is not present in the local cache.
	ErrChatNotFound = 2103

	// ErrAttachmentsDisabled indicates that no attachment storage is configured.
	ErrAttachmentsDisabled = 2301

	// ErrAttachmentTypeInvalid indicates that the file type is not allowed as an attachment.
	ErrAttachmentTypeInvalid = 2302

	// ErrFileSizeTooLarge indicates that the attachment exceeds the upload limit.
	ErrFileSizeTooLarge = 2303
)

// 3xxx: Session errors
const (
	// ErrNotAuthenticated indicates that the operation requires an established identity.
	ErrNotAuthenticated = 3001

	// ErrCooldownActive indicates that a resend was requested before the cooldown elapsed.
	ErrCooldownActive = 3002
)
