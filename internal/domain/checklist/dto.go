package checklist

type ItemRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Value       string `json:"value"`
	IsCompleted bool   `json:"is_completed"`
}

type CreateChecklistRequest struct {
	Type  string        `json:"type" validate:"required"`
	Items []ItemRequest `json:"items" validate:"dive"`
}

// UpdateItemRequest changes the fields present. An empty description or
// value clears it.
type UpdateItemRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Value       *string `json:"value"`
	IsCompleted *bool   `json:"is_completed"`
}
