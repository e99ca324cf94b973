package model

import "fmt"

// ROIClassification is one detected region in a classification result, as
// returned by the remote classification service.
type ROIClassification struct {
	ROIID       int        `json:"roi_id"`
	DiamondType string     `json:"diamond_type"`
	Orientation string     `json:"orientation"`
	Confidence  float64    `json:"confidence"`
	BoundingBox [4]int     `json:"bounding_box"`
	Center      [2]float64 `json:"center"`
	Area        float64    `json:"area"`
}

// ImageResult is the complete classification output for one image.
type ImageResult struct {
	Image           string              `json:"image"`
	TotalDiamonds   int                 `json:"total_diamonds"`
	TableCount      int                 `json:"table_count"`
	TiltedCount     int                 `json:"tilted_count"`
	PickableCount   int                 `json:"pickable_count"`
	InvalidCount    int                 `json:"invalid_count"`
	AverageGrade    float64             `json:"average_grade"`
	Classifications []ROIClassification `json:"classifications"`
	ModelName       string              `json:"model_name,omitempty"`
}

// ReviewItems converts the result's classifications into session review
// items. Item IDs are namespaced by image name so a batch spanning several
// images never collides.
func (r *ImageResult) ReviewItems() ([]ReviewItem, error) {
	items := make([]ReviewItem, 0, len(r.Classifications))
	for _, c := range r.Classifications {
		orientation, err := ParseOrientation(c.Orientation)
		if err != nil {
			return nil, fmt.Errorf("roi %d in %s: %w", c.ROIID, r.Image, err)
		}
		diamondType, err := ParseDiamondType(c.DiamondType)
		if err != nil {
			return nil, fmt.Errorf("roi %d in %s: %w", c.ROIID, r.Image, err)
		}
		items = append(items, ReviewItem{
			ID:          fmt.Sprintf("%s#%d", r.Image, c.ROIID),
			Orientation: orientation,
			Type:        diamondType,
			Confidence:  c.Confidence,
			Source: SourceRef{
				Image:       r.Image,
				ROIID:       c.ROIID,
				BoundingBox: c.BoundingBox,
			},
		})
	}
	return items, nil
}
