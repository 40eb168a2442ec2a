package route

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a failed route calculation.
type ErrorKind string

const (
	StartOnLand      ErrorKind = "START_ON_LAND"
	EndOnLand        ErrorKind = "END_ON_LAND"
	NoPathFound      ErrorKind = "NO_PATH_FOUND"
	DistanceTooLong  ErrorKind = "DISTANCE_TOO_LONG"
	NarrowChannel    ErrorKind = "NARROW_CHANNEL"
	MaxIterations    ErrorKind = "MAX_ITERATIONS"
	Unknown          ErrorKind = "UNKNOWN"
	NoNavigationData ErrorKind = "NO_NAVIGATION_DATA"
)

// Error is surfaced once per failed calculation.
type Error struct {
	Kind        ErrorKind `json:"kind"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Suggestions []string  `json:"suggestions"`
	Reason      string    `json:"reason,omitempty"`

	// Dismissible notices are shown apart from route failures
	Dismissible bool `json:"dismissible"`
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

type errorText struct {
	title       string
	message     string
	suggestions []string
}

var errorTexts = map[ErrorKind]errorText{
	StartOnLand: {
		title:   "Start position on land",
		message: "The boat position is not in navigable water.",
		suggestions: []string{
			"Wait for a better GPS fix",
			"Move the start point away from the shore",
		},
	},
	EndOnLand: {
		title:   "Destination on land",
		message: "The destination is not in navigable water.",
		suggestions: []string{
			"Place the destination in open water",
			"Choose a nearby anchorage or harbour entrance",
		},
	},
	NoPathFound: {
		title:   "No route found",
		message: "No water path connects the boat to the destination.",
		suggestions: []string{
			"Check that the destination is reachable by sea",
			"Navigate through an intermediate point",
		},
	},
	DistanceTooLong: {
		title:   "Destination too far",
		message: "The destination is beyond the maximum routing distance.",
		suggestions: []string{
			"Split the passage into shorter legs",
		},
	},
	NarrowChannel: {
		title:   "Channel too narrow",
		message: "The only passage is narrower than the routing resolution.",
		suggestions: []string{
			"Navigate the channel manually",
			"Set a waypoint at each end of the channel",
		},
	},
	MaxIterations: {
		title:   "Route too complex",
		message: "The route search stopped before finding a path.",
		suggestions: []string{
			"Navigate through an intermediate point",
			"Try again with a closer destination",
		},
	},
	Unknown: {
		title:   "Routing failed",
		message: "The route could not be calculated.",
		suggestions: []string{
			"Try again",
		},
	},
	NoNavigationData: {
		title:   "Navigation data not loaded",
		message: "Water routing data is not available for this area.",
		suggestions: []string{
			"Download the navigation data and try again",
		},
	},
}

// Classify maps a service failure reason to an error kind. Reasons are
// either the kind itself or a free text message.
func Classify(reason string) ErrorKind {
	r := strings.ToUpper(strings.TrimSpace(reason))
	r = strings.NewReplacer(" ", "_", "-", "_").Replace(r)

	if _, found := errorTexts[ErrorKind(r)]; found {
		return ErrorKind(r)
	}

	switch {
	case strings.Contains(r, "START") && strings.Contains(r, "LAND"):
		return StartOnLand
	case (strings.Contains(r, "END") || strings.Contains(r, "DESTINATION")) && strings.Contains(r, "LAND"):
		return EndOnLand
	case strings.Contains(r, "NO_PATH") || strings.Contains(r, "NO_ROUTE"):
		return NoPathFound
	case strings.Contains(r, "TOO_LONG") || strings.Contains(r, "TOO_FAR"):
		return DistanceTooLong
	case strings.Contains(r, "NARROW"):
		return NarrowChannel
	case strings.Contains(r, "ITERATION"):
		return MaxIterations
	}
	return Unknown
}

// NewError builds the user facing error for a kind.
func NewError(kind ErrorKind, reason string) *Error {
	txt, found := errorTexts[kind]
	if !found {
		kind = Unknown
		txt = errorTexts[Unknown]
	}
	return &Error{
		Kind:        kind,
		Title:       txt.title,
		Message:     txt.message,
		Suggestions: append([]string(nil), txt.suggestions...),
		Reason:      reason,
		Dismissible: kind == NoNavigationData,
	}
}
