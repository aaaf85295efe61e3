package workspace

import (
	"fmt"
	"time"
)

// relativeLabel renders the human-readable timestamp stored alongside
// LastUpdated. Display-only; it is recomputed on save and on load so the
// persisted value is never trusted for sorting.
func relativeLabel(t time.Time) string {
	d := timeNow().Sub(t)
	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
