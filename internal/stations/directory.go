package stations

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Directory holds the static station reference table. Loaded once at startup,
// never mutated afterwards.
type Directory struct {
	stations    map[string]Station
	allStations []Station
	lineToFeed  map[string]string
}

// NewDirectory builds a directory from an in-memory station list, deriving
// each station's realtime feeds from its lines.
func NewDirectory(sts ...Station) *Directory {
	dir := &Directory{
		stations:   make(map[string]Station),
		lineToFeed: makeLineToFeedMap(),
	}
	for _, st := range sts {
		if len(st.Feeds) == 0 {
			feedsSet := make(map[string]bool)
			for _, line := range st.Lines {
				if feed, ok := dir.lineToFeed[line]; ok {
					feedsSet[feed] = true
				}
			}
			for feed := range feedsSet {
				st.Feeds = append(st.Feeds, feed)
			}
			sort.Strings(st.Feeds)
		}
		dir.stations[st.ID] = st
		dir.allStations = append(dir.allStations, st)
	}
	return dir
}

// LoadDirectory reads the MTA station table (the "Stations.csv" layout:
// GTFS stop id, name, daytime routes, coordinates and the two direction
// labels). An empty or malformed table is a startup-fatal condition.
func LoadDirectory(csvPath string) (*Directory, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("open station table: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read station table: %w", err)
	}

	dir := &Directory{
		stations:   make(map[string]Station),
		lineToFeed: makeLineToFeedMap(),
	}

	// Skip header
	for i, record := range records {
		if i == 0 {
			continue
		}
		if len(record) < 13 {
			return nil, fmt.Errorf("station table row %d: want 13 columns, got %d", i+1, len(record))
		}

		id := record[2]
		name := record[5]
		linesStr := record[7]

		lat, err := strconv.ParseFloat(record[9], 64)
		if err != nil {
			return nil, fmt.Errorf("station %s: bad latitude %q", id, record[9])
		}
		lon, err := strconv.ParseFloat(record[10], 64)
		if err != nil {
			return nil, fmt.Errorf("station %s: bad longitude %q", id, record[10])
		}

		lines := strings.Fields(linesStr)

		// Derive the realtime feeds serving this station from its lines.
		feedsSet := make(map[string]bool)
		for _, line := range lines {
			if feed, ok := dir.lineToFeed[line]; ok {
				feedsSet[feed] = true
			}
		}
		feeds := make([]string, 0, len(feedsSet))
		for feed := range feedsSet {
			feeds = append(feeds, feed)
		}
		sort.Strings(feeds)

		st := Station{
			ID:         id,
			Name:       name,
			Latitude:   lat,
			Longitude:  lon,
			Lines:      lines,
			NorthLabel: record[11],
			SouthLabel: record[12],
			Feeds:      feeds,
		}

		dir.stations[id] = st
		dir.allStations = append(dir.allStations, st)
	}

	if len(dir.allStations) == 0 {
		return nil, fmt.Errorf("station table %s contains no stations", csvPath)
	}

	return dir, nil
}

func (d *Directory) All() []Station {
	return d.allStations
}

func (d *Directory) Lookup(id string) (Station, bool) {
	s, ok := d.stations[id]
	return s, ok
}

// ResolvePlatform maps a GTFS-RT stop id to its parent station. Platform ids
// carry a trailing direction code ("L08N" is the Manhattan-bound platform of
// station "L08"); ids without one are station-level already.
func (d *Directory) ResolvePlatform(stopID string) (Station, string, bool) {
	if len(stopID) >= 2 {
		dirCode := stopID[len(stopID)-1:]
		if dirCode == "N" || dirCode == "S" {
			if s, ok := d.stations[stopID[:len(stopID)-1]]; ok {
				return s, dirCode, true
			}
		}
	}
	s, ok := d.stations[stopID]
	return s, "", ok
}

// Search matches stations by (partial) name or exact line.
func (d *Directory) Search(query string) []Station {
	query = strings.ToLower(query)
	var results []Station
	for _, s := range d.allStations {
		nameMatch := strings.Contains(strings.ToLower(s.Name), query)
		lineMatch := false
		for _, l := range s.Lines {
			if strings.ToLower(l) == query {
				lineMatch = true
				break
			}
		}
		if nameMatch || lineMatch {
			results = append(results, s)
		}
	}
	return results
}

func makeLineToFeedMap() map[string]string {
	m := make(map[string]string)

	m["L"] = "L"
	m["G"] = "G"
	m["SIR"] = "SIR"

	for _, l := range []string{"A", "C", "E"} {
		m[l] = "ACE"
	}
	for _, l := range []string{"B", "D", "F", "M"} {
		m[l] = "BDFM"
	}
	for _, l := range []string{"N", "Q", "R", "W"} {
		m[l] = "NQRW"
	}
	for _, l := range []string{"J", "Z"} {
		m[l] = "JZ"
	}
	for _, l := range []string{"1", "2", "3", "4", "5", "6", "7", "S"} {
		m[l] = "123456"
	}

	return m
}
