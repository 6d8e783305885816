package store

// Interaction represents one mirrored user-agent exchange.
type Interaction struct {
	ID                int32
	UID               string
	UserID            string
	Kind              string // message/response/submission, open-ended
	AgentName         string
	InputText         string
	OutputText        string
	SatisfactionScore *float64
	Feedback          *string
	Metadata          string // JSON object
	CreatedTs         int64
}

// FindInteraction specifies the conditions for finding interactions.
type FindInteraction struct {
	ID             *int32
	UID            *string
	UserID         *string
	AgentName      *string
	CreatedTsAfter *int64
	Limit          int
	Offset         int
}

// DeleteInteraction specifies the conditions for deleting interactions.
// CreatedTsBefore supports retention sweeps on the mirror.
type DeleteInteraction struct {
	ID              *int32
	UID             *string
	CreatedTsBefore *int64
}
