package domain

// MapStyle is one entry of the map widget's style table.
type MapStyle struct {
	FeatureType string              `json:"featureType"`
	ElementType string              `json:"elementType"`
	Stylers     []map[string]string `json:"stylers"`
}

// PolygonOptions configures the drawing tool's polygon overlay.
type PolygonOptions struct {
	FillColor    string  `json:"fillColor"`
	FillOpacity  float64 `json:"fillOpacity"`
	StrokeColor  string  `json:"strokeColor"`
	StrokeWeight int     `json:"strokeWeight"`
	Editable     bool    `json:"editable"`
	Draggable    bool    `json:"draggable"`
}

// MapConfig is everything the browser widget needs to render the surface.
type MapConfig struct {
	APIKey         string         `json:"apiKey"`
	Libraries      []string       `json:"libraries"`
	Center         GeoPoint       `json:"center"`
	Zoom           int            `json:"zoom"`
	Styles         []MapStyle     `json:"styles"`
	PolygonOptions PolygonOptions `json:"polygonOptions"`
	Canvas         Canvas         `json:"canvas"`
}

// DefaultMapStyles hides labels and paints roads white on a light background.
func DefaultMapStyles() []MapStyle {
	return []MapStyle{
		{FeatureType: "all", ElementType: "labels", Stylers: []map[string]string{{"visibility": "off"}}},
		{FeatureType: "road", ElementType: "geometry", Stylers: []map[string]string{{"color": "#ffffff"}}},
		{FeatureType: "landscape", ElementType: "geometry", Stylers: []map[string]string{{"color": "#f5f5f5"}}},
		{FeatureType: "water", ElementType: "geometry", Stylers: []map[string]string{{"color": "#e9e9e9"}}},
	}
}

// DefaultPolygonOptions draws a translucent black area with a 2px outline.
var DefaultPolygonOptions = PolygonOptions{
	FillColor:    "#000000",
	FillOpacity:  0.2,
	StrokeColor:  "#000000",
	StrokeWeight: 2,
	Editable:     true,
	Draggable:    true,
}
