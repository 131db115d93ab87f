package domain

import "time"

// RecordKind enumerates supported generation request categories.
type RecordKind string

const (
	KindTextToImage  RecordKind = "text_to_image"
	KindImageToImage RecordKind = "image_to_image"
)

// RecordStatus enumerates generation record lifecycle states.
type RecordStatus string

const (
	StatusQueued     RecordStatus = "queued"
	StatusProcessing RecordStatus = "processing"
	StatusSucceeded  RecordStatus = "succeeded"
	StatusFailed     RecordStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s RecordStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// GenerationRecord mirrors the lifecycle of one provider generation task.
// OwnerID is empty for anonymous submissions and ProviderJobID is empty
// until the provider has acknowledged the task. In terminal states exactly
// one of OutputImageURL (succeeded) or ErrorDetail (failed) is set.
type GenerationRecord struct {
	ID             string
	OwnerID        string
	Kind           RecordKind
	Prompt         string
	InputImages    []string
	ProviderJobID  string
	Status         RecordStatus
	OutputImageURL string
	ErrorDetail    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RecordUpdate carries the mutable fields of a record transition. Nil
// pointers leave the stored value untouched.
type RecordUpdate struct {
	Status         RecordStatus
	ProviderJobID  *string
	OutputImageURL *string
	ErrorDetail    *string
}
