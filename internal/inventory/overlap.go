package inventory

import (
	"time"

	"bookingd/internal/models"
)

// Overlaps reports whether [s1, e1) and [s2, e2) share any instant.
// Ranges that touch at an endpoint do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return models.Interval{Start: s1, End: e1}.Overlaps(models.Interval{Start: s2, End: e2})
}
