// Package services defines the business logic for advisor conversations,
// utterance turns, and recommendation feedback. This file centralizes
// common service-level error values so that they can be consistently
// returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages and HTTP status codes is performed
// at the handler layer.
package services

import "errors"

var (
	// ErrConversationNotFound indicates that the requested conversation
	// does not exist or is not accessible to the current user.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrEmptyUtterance is returned when a submitted utterance is empty or
	// whitespace-only.
	ErrEmptyUtterance = errors.New("utterance is empty")

	// ErrUtteranceTooLong is returned when an utterance exceeds the
	// configured maximum length.
	ErrUtteranceTooLong = errors.New("utterance too long")

	// ErrConversationBusy is returned when an utterance is submitted while
	// a previous reply is still pending for the same conversation.
	ErrConversationBusy = errors.New("a reply is already pending for this conversation")

	// ErrConversationReset is returned when the conversation was reset
	// while the reply was pending; the stale reply has been discarded.
	ErrConversationReset = errors.New("conversation was reset while processing")

	// ErrInvalidFeedback is returned when a feedback value is outside the
	// allowed set (currently -1 or 1).
	ErrInvalidFeedback = errors.New("feedback value must be -1 or 1")

	// ErrMessageNotFound indicates that the requested message does not
	// exist or is not accessible to the current user.
	ErrMessageNotFound = errors.New("message not found")

	// ErrForbiddenFeedback is returned when a user attempts to leave
	// feedback on a message they are not permitted to rate.
	ErrForbiddenFeedback = errors.New("cannot leave feedback on this message")

	// ErrDuplicateFeedback is returned when a user attempts to rate a
	// message they have already rated.
	ErrDuplicateFeedback = errors.New("feedback already exists")
)
