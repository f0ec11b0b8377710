package models

// Health represents the health status of the service.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SystemStatus represents the overall system status.
type SystemStatus struct {
	Status          HealthStatus      `json:"status"`
	Time            Timestamp         `json:"time"`
	CacheGeneration string            `json:"cacheGeneration,omitempty"`
	Subsystems      []SubsystemStatus `json:"subsystems"`
	Upstreams       []UpstreamStatus  `json:"upstreams"`
}

// SubsystemStatus represents the status of a subsystem.
type SubsystemStatus struct {
	Name   string       `json:"name"`
	Status HealthStatus `json:"status"`
	Detail *string      `json:"detail,omitempty"`
}

// UpstreamStatus represents the status of an upstream backend.
type UpstreamStatus struct {
	Name          string       `json:"name"`
	Status        HealthStatus `json:"status"`
	BreakerState  string       `json:"breakerState"`
	LastSuccessAt *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt *Timestamp   `json:"lastFailureAt,omitempty"`
	Message       *string      `json:"message,omitempty"`
}
