// Package services holds the request workflows behind each route. Services
// compose the collaborators (completion, translation, speech, store, session
// log); the collaborators never call each other.
//
// This file centralizes validation errors. Collaborator failures travel as
// the typed errors in package domain. Mapping to HTTP status codes happens in
// the handler layer.
package services

import "errors"

// Input validation errors.
var (
	// ErrEmptyMessage is returned when the chat message is blank after trimming.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrMessageTooLong is returned when the message exceeds the configured
	// rune limit.
	ErrMessageTooLong = errors.New("message too long")

	// ErrInvalidLanguage is returned when the target language is not a valid
	// BCP 47 tag.
	ErrInvalidLanguage = errors.New("language must be a valid BCP 47 tag")
)
