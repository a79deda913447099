package stations

type Station struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	Lines      []string `json:"lines"`
	NorthLabel string   `json:"north_label"`
	SouthLabel string   `json:"south_label"`
	Feeds      []string `json:"-"`
}

// DestinationLabel returns the human destination for a platform direction
// code ("N" or "S"). Unknown codes fall back to the station name.
func (s Station) DestinationLabel(dirCode string) string {
	switch dirCode {
	case "N":
		if s.NorthLabel != "" {
			return s.NorthLabel
		}
	case "S":
		if s.SouthLabel != "" {
			return s.SouthLabel
		}
	}
	return s.Name
}
