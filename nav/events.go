// nav/events.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"fmt"
	"log/slog"
)

type EventType int

const (
	PhaseChangedEvent EventType = iota
	WaypointPassedEvent
	EstablishedChangedEvent
	RouteCompletedEvent
	NavModeChangedEvent
	ClearanceAcceptedEvent
	InvalidClearanceEvent
	InvalidRouteStateEvent
	InvalidGeometryEvent
	RemovedEvent

	NumEventTypes
)

func (t EventType) String() string {
	switch t {
	case PhaseChangedEvent:
		return "PhaseChanged"
	case WaypointPassedEvent:
		return "WaypointPassed"
	case EstablishedChangedEvent:
		return "EstablishedChanged"
	case RouteCompletedEvent:
		return "RouteCompleted"
	case NavModeChangedEvent:
		return "NavModeChanged"
	case ClearanceAcceptedEvent:
		return "ClearanceAccepted"
	case InvalidClearanceEvent:
		return "InvalidClearance"
	case InvalidRouteStateEvent:
		return "InvalidRouteState"
	case InvalidGeometryEvent:
		return "InvalidGeometry"
	case RemovedEvent:
		return "Removed"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// IsError reports whether events of the type describe a problem with the
// inputs to Advance.
func (t EventType) IsError() bool {
	return t == InvalidClearanceEvent || t == InvalidRouteStateEvent || t == InvalidGeometryEvent
}

// Event describes something that happened to an aircraft during a call to
// Machine.Advance. Only the fields relevant to the event's type are set.
type Event struct {
	Type     EventType
	Callsign string

	FromPhase, ToPhase FlightPhase // PhaseChangedEvent
	FromMode, ToMode   NavMode     // NavModeChangedEvent
	Waypoint           string      // WaypointPassedEvent
	Established        bool        // EstablishedChangedEvent
	Clearance          string      // ClearanceAcceptedEvent, InvalidClearanceEvent

	Message string
	Err     error `msgpack:"-" json:"-"`
}

func (e Event) String() string {
	switch e.Type {
	case PhaseChangedEvent:
		return fmt.Sprintf("%s: phase %s -> %s", e.Callsign, e.FromPhase, e.ToPhase)
	case NavModeChangedEvent:
		return fmt.Sprintf("%s: mode %s -> %s", e.Callsign, e.FromMode, e.ToMode)
	case WaypointPassedEvent:
		return fmt.Sprintf("%s: passed %s", e.Callsign, e.Waypoint)
	case EstablishedChangedEvent:
		return fmt.Sprintf("%s: established %v", e.Callsign, e.Established)
	case ClearanceAcceptedEvent:
		return fmt.Sprintf("%s: accepted %s", e.Callsign, e.Clearance)
	default:
		if e.Message != "" {
			return fmt.Sprintf("%s: %s: %s", e.Callsign, e.Type, e.Message)
		}
		return fmt.Sprintf("%s: %s", e.Callsign, e.Type)
	}
}

func (e Event) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("type", e.Type.String()),
		slog.String("callsign", e.Callsign),
	}
	switch e.Type {
	case PhaseChangedEvent:
		attrs = append(attrs, slog.String("from", e.FromPhase.String()), slog.String("to", e.ToPhase.String()))
	case NavModeChangedEvent:
		attrs = append(attrs, slog.String("from", e.FromMode.String()), slog.String("to", e.ToMode.String()))
	case WaypointPassedEvent:
		attrs = append(attrs, slog.String("waypoint", e.Waypoint))
	case EstablishedChangedEvent:
		attrs = append(attrs, slog.Bool("established", e.Established))
	}
	if e.Clearance != "" {
		attrs = append(attrs, slog.String("clearance", e.Clearance))
	}
	if e.Message != "" {
		attrs = append(attrs, slog.String("message", e.Message))
	}
	return slog.GroupValue(attrs...)
}
