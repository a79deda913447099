package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"trainboard/internal/feeds"
	"trainboard/internal/stations"
)

// NewServer exposes the read side of the pipeline: the current snapshot, an
// SSE stream of publishes, and the station table. The renderer polls these
// on its own cadence, independent of the refresh interval.
func NewServer(port int, hub *SSEHub, dir *stations.Directory, station stations.Station, cache *feeds.SnapshotCache) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/stream", hub.HandleStream)

	mux.HandleFunc("/snapshot", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(boardState{
			Station:  station,
			Snapshot: cache.Current(),
			Now:      time.Now().UTC(),
		})
	})

	mux.HandleFunc("/stations", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(dir.All())
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: withCORS(mux),
	}
}

// boardState is everything a dumb renderer needs for one frame: who the
// station is, what to draw, and how fresh it is.
type boardState struct {
	Station  stations.Station `json:"station"`
	Snapshot feeds.Snapshot   `json:"snapshot"`
	Now      time.Time        `json:"now"`
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
