package model

import (
	"github.com/a-bouts/nav-watch/latlon"
)

type Navigate struct {
	Name string        `json:"name"`
	To   latlon.LatLon `json:"to"`
}

// Autopilot changes only the fields that are set.
type Autopilot struct {
	Active         *bool    `json:"active,omitempty"`
	FollowRoute    *bool    `json:"followRoute,omitempty"`
	Heading        *float64 `json:"heading,omitempty"`
	DismissWarning bool     `json:"dismissWarning,omitempty"`
}

type Anchor struct {
	ChainLength float64 `json:"chainLength"`
	Depth       float64 `json:"depth"`
}

type Error struct {
	Error string `json:"error"`
}
