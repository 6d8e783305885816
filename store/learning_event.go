package store

// LearningEvent represents one mirrored feedback learning record.
type LearningEvent struct {
	ID                 int32
	UID                string
	UserID             string
	Feedback           string
	SatisfactionScore  float64
	ImprovementSignals string // JSON object with the five feedback signals
	CreatedTs          int64
}

// FindLearningEvent specifies the conditions for finding learning events.
type FindLearningEvent struct {
	ID             *int32
	UID            *string
	UserID         *string
	CreatedTsAfter *int64
	Limit          int
	Offset         int
}

// DeleteLearningEvent specifies the conditions for deleting learning events.
type DeleteLearningEvent struct {
	ID              *int32
	CreatedTsBefore *int64
}
