package feeds

import (
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// StopTimeUpdate is one stop's predicted times within a trip, flattened out
// of the protobuf message. Epochs of zero mean the feed carried no time.
type StopTimeUpdate struct {
	StopID      string
	RouteID     string
	TripID      string
	Destination string
	Arrival     int64
	Departure   int64
}

// Feed is one decoded realtime snapshot from the data source. Superseded
// wholesale by the next successful fetch.
type Feed struct {
	FetchedAt     time.Time
	FeedTimestamp int64
	Updates       []StopTimeUpdate
}

// Lag is how far the feed's own header timestamp trails the fetch time.
// Old-but-parsable feeds still decode; staleness is the scheduler's call.
func (f *Feed) Lag() time.Duration {
	if f.FeedTimestamp == 0 {
		return 0
	}
	return f.FetchedAt.Sub(time.Unix(f.FeedTimestamp, 0))
}

// Decode parses a GTFS-RT protobuf payload into a Feed. Pure: identical
// bytes always yield an identical feed. Malformed input is a *DecodeError.
func Decode(raw []byte, fetchedAt time.Time) (*Feed, error) {
	msg := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(raw, msg); err != nil {
		return nil, &DecodeError{Err: err}
	}

	feed := &Feed{FetchedAt: fetchedAt}
	if msg.Header != nil && msg.Header.Timestamp != nil {
		feed.FeedTimestamp = int64(*msg.Header.Timestamp)
	}

	for _, entity := range msg.Entity {
		tu := entity.TripUpdate
		if tu == nil {
			continue
		}

		var tripID, routeID string
		if tu.Trip != nil {
			if tu.Trip.TripId != nil {
				tripID = *tu.Trip.TripId
			}
			if tu.Trip.RouteId != nil {
				routeID = *tu.Trip.RouteId
			}
		}

		for _, stu := range tu.StopTimeUpdate {
			if stu.StopId == nil {
				continue
			}

			update := StopTimeUpdate{
				StopID:  *stu.StopId,
				RouteID: routeID,
				TripID:  tripID,
			}
			if stu.Arrival != nil && stu.Arrival.Time != nil {
				update.Arrival = *stu.Arrival.Time
			}
			if stu.Departure != nil && stu.Departure.Time != nil {
				update.Departure = *stu.Departure.Time
			}

			feed.Updates = append(feed.Updates, update)
		}
	}

	return feed, nil
}

// Merge combines per-endpoint feeds fetched in the same cycle into one.
// The merged header timestamp is the newest of the parts.
func Merge(fetchedAt time.Time, parts ...*Feed) *Feed {
	merged := &Feed{FetchedAt: fetchedAt}
	for _, p := range parts {
		if p == nil {
			continue
		}
		if p.FeedTimestamp > merged.FeedTimestamp {
			merged.FeedTimestamp = p.FeedTimestamp
		}
		merged.Updates = append(merged.Updates, p.Updates...)
	}
	return merged
}
