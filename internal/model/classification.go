package model

import "math"

// Result is the transient outcome of classifying one contact. It is never
// stored as-is: MainBucket becomes a contact field write and
// PersonalityBucket becomes an association write.
type Result struct {
	MainBucket        string
	PersonalityBucket string
	ContactID         int64
}

// Progress is the process-local progress state reported to callers while
// a classification run is underway.
type Progress struct {
	Processed    int
	Total        int
	CurrentBatch int
	TotalBatches int
}

// Percent returns the rounded completion percentage. Zero totals report
// zero rather than dividing.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	return int(math.Round(float64(p.Processed) / float64(p.Total) * 100))
}
