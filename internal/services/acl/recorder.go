package acl

// Recorder receives resolution metrics
type Recorder interface {
	RecordDecision(model string, outcome string)
	RecordCacheHit()
	RecordCacheMiss()
}

type nopRecorder struct{}

func (nopRecorder) RecordDecision(string, string) {}
func (nopRecorder) RecordCacheHit()               {}
func (nopRecorder) RecordCacheMiss()              {}
