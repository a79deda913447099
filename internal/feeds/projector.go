package feeds

import (
	"fmt"
	"sort"
	"time"

	"trainboard/internal/stations"
)

// Arrival is one display-facing countdown entry.
type Arrival struct {
	RouteID      string `json:"route"`
	Destination  string `json:"destination"`
	SecondsUntil int    `json:"seconds_until"`
	Stale        bool   `json:"stale"`
}

// Countdown renders the remaining time the way the board draws it.
func (a Arrival) Countdown() string {
	switch {
	case a.SecondsUntil <= 0:
		return "Now"
	case a.SecondsUntil < 60:
		return fmt.Sprintf("%ds", a.SecondsUntil)
	default:
		return fmt.Sprintf("%dm", a.SecondsUntil/60)
	}
}

// Projector turns a decoded feed into the ranked arrival list for one
// station. Stateless apart from the directory it resolves platforms with.
type Projector struct {
	dir *stations.Directory
}

func NewProjector(dir *stations.Directory) *Projector {
	return &Projector{dir: dir}
}

// Project filters feed updates to the target station, keeps the freshest
// prediction per trip, drops arrivals already in the past and returns at
// most max entries ordered soonest-first. Empty input yields an empty list.
func (p *Projector) Project(feed *Feed, stationID string, now time.Time, max int) []Arrival {
	if feed == nil || len(feed.Updates) == 0 {
		return nil
	}

	// One prediction per trip: duplicate trip entries at this station keep
	// the greatest arrival epoch, the most current estimate for that trip.
	type candidate struct {
		update  StopTimeUpdate
		dirCode string
		station stations.Station
	}
	byTrip := make(map[string]candidate)

	for _, u := range feed.Updates {
		st, dirCode, ok := p.dir.ResolvePlatform(u.StopID)
		if !ok || st.ID != stationID {
			continue
		}
		if u.Arrival == 0 {
			continue
		}
		prev, seen := byTrip[u.TripID]
		if !seen || u.Arrival > prev.update.Arrival {
			byTrip[u.TripID] = candidate{update: u, dirCode: dirCode, station: st}
		}
	}

	nowEpoch := now.Unix()
	arrivals := make([]Arrival, 0, len(byTrip))
	for _, c := range byTrip {
		secs := int(c.update.Arrival - nowEpoch)
		if secs < 0 {
			continue
		}
		dest := c.update.Destination
		if dest == "" {
			dest = c.station.DestinationLabel(c.dirCode)
		}
		arrivals = append(arrivals, Arrival{
			RouteID:      c.update.RouteID,
			Destination:  dest,
			SecondsUntil: secs,
		})
	}

	sort.Slice(arrivals, func(i, j int) bool {
		if arrivals[i].SecondsUntil != arrivals[j].SecondsUntil {
			return arrivals[i].SecondsUntil < arrivals[j].SecondsUntil
		}
		return arrivals[i].RouteID < arrivals[j].RouteID
	})

	if max > 0 && len(arrivals) > max {
		arrivals = arrivals[:max]
	}

	return arrivals
}
