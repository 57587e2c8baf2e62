package handler

// CountData carries a bare row count, used by the category sync and
// mapping endpoints.
type CountData struct {
	Count int64 `json:"count"`
}

// SchedulerStatusData reports whether background sync runs and which job
// kinds it accepts.
type SchedulerStatusData struct {
	Enabled        bool     `json:"enabled"`
	AvailableKinds []string `json:"available_kinds"`
}
