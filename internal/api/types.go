package api

import (
	"time"

	"github.com/msalah0e/h2canvas/internal/sim"
)

// Endpoint paths served by the plant service.
const (
	PathAddComponent      = "/add_component"
	PathConnectComponents = "/connect_components"
	PathSimulate          = "/simulate"
	PathReset             = "/reset"
	PathGraph             = "/api/graph"
	PathLive              = "/api/live"
	PathHealth            = "/healthz"
)

// Status strings with a fixed meaning on the wire.
const (
	AddedMarker              = "added"
	StatusConnected          = "Connected"
	StatusError              = "Error"
	StatusSimulationComplete = "Simulation complete"
	StatusReset              = "Simulation reset"

	StatusNameRequired = "Component name is required"
	StatusUnknownType  = "Unknown component type"
	StatusExists       = "Component already exists"
)

// AddComponentRequest asks the service to register a component.
type AddComponentRequest struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// ConnectRequest asks the service to link two components.
type ConnectRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// StatusResponse is the reply to add and reset. Add rejections carry the
// offending name and type in their own fields, never in Status.
type StatusResponse struct {
	Status string `json:"status"`
	Name   string `json:"name,omitempty"`
	Type   string `json:"type,omitempty"`
}

// ConnectResponse is the reply to connect.
type ConnectResponse struct {
	Status  string `json:"status"`
	Source  string `json:"source,omitempty"`
	Target  string `json:"target,omitempty"`
	Message string `json:"message,omitempty"`
}

// SimulateResponse is the reply to simulate.
type SimulateResponse struct {
	Status  string      `json:"status"`
	Results *sim.Report `json:"results,omitempty"`
}

// Event kinds pushed over the live stream.
const (
	EventComponentAdded = "component_added"
	EventConnected      = "connected"
	EventSimulationDone = "simulation_complete"
	EventReset          = "reset"
)

// Event is one change to the plant, pushed to live subscribers.
type Event struct {
	Type          string    `json:"type"`
	Name          string    `json:"name,omitempty"`
	ComponentType string    `json:"component_type,omitempty"`
	Source        string    `json:"source,omitempty"`
	Target        string    `json:"target,omitempty"`
	Status        string    `json:"status,omitempty"`
	At            time.Time `json:"at"`
}
