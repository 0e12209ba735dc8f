// Package event holds the domain events produced by the account and comment
// lifecycles. They are handed to their consumers synchronously, right after the
// state change that produced them has been committed.
package event

import "bitwise74/bboard/internal/model"

// RegistrationCompleted is emitted once a new, inactive account has been stored
type RegistrationCompleted struct {
	Account model.Account
}

// CommentCreated is emitted after a comment has been stored. CommenterID is
// empty for guest comments.
type CommentCreated struct {
	Comment     model.Comment
	CommenterID string
}
