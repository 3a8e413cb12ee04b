package model

// ValidTags is the fixed tag vocabulary offered on the event forms.
var ValidTags = []string{
	"Long Duration (>2 Hrs)",
	"Short Duration (<2 Hrs)",
	"Labor Intensive",
	"Construction",
	"Moving",
	"Food Bank",
}
