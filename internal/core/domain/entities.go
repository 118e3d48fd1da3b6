package domain

import (
	"strconv"
	"strings"
	"time"
)

// Place is a candidate returned by the places/geocoding service.
type Place struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Location GeoPoint `json:"location"`
	Viewport *Bounds  `json:"viewport,omitempty"`
}

// StreetSegment is an approximate street path in canvas space.
type StreetSegment struct {
	PlaceID string    `json:"place_id"`
	Name    string    `json:"name"`
	Points  []Point2D `json:"points"`
}

// Path renders the segment as an open SVG path string.
func (s StreetSegment) Path() string {
	return PathString(s.Points, false)
}

// ExportDocument is the transient content of one export.
type ExportDocument struct {
	Canvas       Canvas          `json:"canvas"`
	BoundaryPath string          `json:"boundary_path"`
	Streets      []StreetSegment `json:"streets"`
}

// DrawMode is the Map Surface state.
type DrawMode string

const (
	ModeIdle    DrawMode = "idle"
	ModeDrawing DrawMode = "drawing"
)

// Session holds the Map Surface state for one browser tab.
type Session struct {
	ID        string    `json:"id"`
	Mode      DrawMode  `json:"mode"`
	Center    GeoPoint  `json:"center"`
	Zoom      int       `json:"zoom"`
	Polygon   Polygon   `json:"polygon,omitempty"`
	Exporting bool      `json:"exporting"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasPolygon reports whether an exportable area has been drawn.
func (s *Session) HasPolygon() bool {
	return len(s.Polygon.Vertices()) >= MinPolygonPoints
}

// NotificationLevel classifies a user-visible notification.
type NotificationLevel string

const (
	LevelSuccess NotificationLevel = "success"
	LevelInfo    NotificationLevel = "info"
	LevelError   NotificationLevel = "error"
)

// Notification is a single transient message shown to the user.
type Notification struct {
	SessionID string            `json:"session_id,omitempty"`
	Level     NotificationLevel `json:"level"`
	Message   string            `json:"message"`
	Time      time.Time         `json:"time"`
}

// JobStatus is the lifecycle of an async export.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// ExportJob tracks an export running outside the request.
type ExportJob struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id,omitempty"`
	Filename  string    `json:"filename"`
	Status    JobStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	Streets   int       `json:"streets"`
	Bytes     int       `json:"bytes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PathString renders points as M/L commands, optionally closed with Z.
func PathString(pts []Point2D, closed bool) string {
	var sb strings.Builder
	for i, p := range pts {
		if i == 0 {
			sb.WriteString("M ")
		} else {
			sb.WriteString(" L ")
		}
		sb.WriteString(formatCoord(p.X))
		sb.WriteByte(' ')
		sb.WriteString(formatCoord(p.Y))
	}
	if closed && len(pts) > 0 {
		sb.WriteString(" Z")
	}
	return sb.String()
}

// formatCoord rounds to two decimals and trims trailing zeros.
func formatCoord(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

// ExportRequest is the input of a stateless export.
type ExportRequest struct {
	JobID     string  `json:"job_id,omitempty"`
	SessionID string  `json:"session_id,omitempty"`
	Polygon   Polygon `json:"polygon"`
	Canvas    Canvas  `json:"canvas"`
	Filename  string  `json:"filename"`
}

// trimExt removes ext from name regardless of case.
func trimExt(name, ext string) string {
	if len(name) >= len(ext) && strings.EqualFold(name[len(name)-len(ext):], ext) {
		return name[:len(name)-len(ext)]
	}
	return name
}

// DefaultFilename is used when an export is not given a name.
const DefaultFilename = "map-design.svg"

// ExportFilename returns name with the extension ext (".svg", ".png"),
// falling back to the default name. Path separators, quotes and control
// characters are dropped so the name is safe in a Content-Disposition header.
func ExportFilename(name, ext string) string {
	name = strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(`"/\`, r) {
			return -1
		}
		return r
	}, name))
	if name == "" {
		name = DefaultFilename
	}
	base := trimExt(trimExt(name, ".svg"), ".png")
	if base == "" {
		base = strings.TrimSuffix(DefaultFilename, ".svg")
	}
	return base + ext
}
