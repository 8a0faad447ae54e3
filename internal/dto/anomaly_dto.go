package dto

import "time"

// AnomalyResponse reports one detection outcome. Pattern is empty for the
// platform-wide rate spike check; ActorID is nil unless the detection was
// scoped to a single actor.
type AnomalyResponse struct {
	Detected      bool      `json:"detected"`
	Pattern       string    `json:"pattern,omitempty"`
	ActorID       *uint     `json:"actor_id"`
	ObservedCount int64     `json:"observed_count"`
	Threshold     float64   `json:"threshold"`
	WindowStart   time.Time `json:"window_start"`
	WindowEnd     time.Time `json:"window_end"`
	Detail        string    `json:"detail"`
}

// AnomalySweepResponse summarises one detector sweep over recent activity.
type AnomalySweepResponse struct {
	Results        []AnomalyResponse `json:"results"`
	ItemsEnqueued  int               `json:"items_enqueued"`
	EventsRecorded int               `json:"events_recorded"`
	SweptActors    int               `json:"swept_actors"`
}
