package metrics

// QueryRecorder records the outcome of one exposed function call.
type QueryRecorder interface {
	RecordQuery(function, status string, seconds float64)
}

// StoreRecorder records detection log loads.
type StoreRecorder interface {
	SetDetectionsLoaded(count int)
	RecordLoadError(reason string)
}

// NopRecorder discards everything. It satisfies every recorder interface in
// this package.
type NopRecorder struct{}

func (NopRecorder) RecordQuery(string, string, float64) {}
func (NopRecorder) SetDetectionsLoaded(int) {}
func (NopRecorder) RecordLoadError(string) {}
func (NopRecorder) RecordHTTPRequest(string, string, int, float64) {}

// HTTPRecorder records served HTTP requests.
type HTTPRecorder interface {
	RecordHTTPRequest(method, path string, statusCode int, seconds float64)
}
