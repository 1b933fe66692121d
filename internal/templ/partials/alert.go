// Package partials holds templ components rendered into htmx responses and
// full pages alike.
//
//go:generate templ generate
package partials

import (
	twmerge "github.com/Oudwins/tailwind-merge-go"
)

// AlertRootID is the element the layout reserves for blocking alerts.
const AlertRootID = "alert-root"

// Alert kinds. Unknown kinds render with the error styling.
const (
	AlertRejected  = "rejected"
	AlertTransport = "transport"
)

// AlertData describes a blocking alert dialog.
type AlertData struct {
	Kind    string
	Title   string
	Message string
}

// heading is the explicit title, or the default one for the kind.
func (d AlertData) heading() string {
	if d.Title != "" {
		return d.Title
	}
	return AlertTitle(d.Kind)
}

const alertBaseClass = "fixed inset-0 z-50 m-auto w-full max-w-md rounded-lg bg-white p-6 shadow-xl ring-1 ring-black/5 backdrop:bg-black/50"

// alertClass merges the per-kind accent into the base dialog classes.
func alertClass(kind string) string {
	switch kind {
	case AlertTransport:
		return twmerge.Merge(alertBaseClass, "ring-2 ring-amber-400")
	default:
		return twmerge.Merge(alertBaseClass, "ring-2 ring-red-500")
	}
}

// AlertTitle returns the heading shown for kind.
func AlertTitle(kind string) string {
	if kind == AlertTransport {
		return "Network error"
	}
	return "Submission failed"
}
