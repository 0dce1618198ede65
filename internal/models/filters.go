package models

// DetectionFilter narrows a loaded detection table
type DetectionFilter struct {
	StartFrame *int64   // inclusive
	EndFrame   *int64   // inclusive
	Labels     []string // class allow-list, empty means all
}

// RawDetectionQuery represents query parameters for GET /api/analysis/
type RawDetectionQuery struct {
	Stream string `form:"stream"`
	Start  *int64 `form:"start"` // inclusive frame
	End    *int64 `form:"end"`   // inclusive frame
}

// Filter converts the query into a DetectionFilter
func (q RawDetectionQuery) Filter() DetectionFilter {
	return DetectionFilter{StartFrame: q.Start, EndFrame: q.End}
}
