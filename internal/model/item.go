package model

// SourceRef points back at the image region an item was detected in. The
// verification session never interprets it; only the review UIs use it to show
// the operator where the stone sits.
type SourceRef struct {
	Image       string `json:"image"`
	ROIID       int    `json:"roi_id"`
	BoundingBox [4]int `json:"bounding_box"`
}

// ReviewItem is one detected stone awaiting human confirmation of its
// predicted labels. Immutable once a session owns it.
type ReviewItem struct {
	ID          string      `json:"id"`
	Orientation Orientation `json:"predicted_orientation"`
	Type        DiamondType `json:"predicted_type"`
	Confidence  float64     `json:"confidence"`
	Source      SourceRef   `json:"source"`
}
