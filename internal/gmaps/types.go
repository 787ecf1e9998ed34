package gmaps

// API status strings. Only the ones this client branches on are listed;
// anything else falls through to the transient-fault default.
const (
	statusOK             = "OK"
	statusZeroResults    = "ZERO_RESULTS"
	statusNotFound       = "NOT_FOUND"
	statusOverQueryLimit = "OVER_QUERY_LIMIT"
	statusOverDailyLimit = "OVER_DAILY_LIMIT"
)

// Route is the primary route between two addresses, plus the encoded
// polylines of any alternative routes for map rendering.
type Route struct {
	DistanceMeters       int
	DurationSeconds      int
	Polyline             string
	AlternativePolylines []string
}

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64
	Lng float64
}

// StaticMapRequest describes the map image to render.
type StaticMapRequest struct {
	Polyline             string
	AlternativePolylines []string
	Origin               LatLng
	Destination          LatLng
}

// geocodeResponse is shaped for the Geocoding API response.
type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// directionsResponse is shaped for the Directions API response.
type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Legs []struct {
			Distance struct {
				Value int `json:"value"` // meters
			} `json:"distance"`
			Duration struct {
				Value int `json:"value"` // seconds
			} `json:"duration"`
		} `json:"legs"`
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
	} `json:"routes"`
}
