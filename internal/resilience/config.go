package resilience

import (
	"time"
)

// FromConfig overlays configured values on the default policy for class.
// Non-positive values keep the class default.
func FromConfig(class Class, maxAttempts, baseDelayMs int) Policy {
	p := NetworkPolicy()
	if class == ClassSink {
		p = SinkPolicy()
	}
	if maxAttempts > 0 {
		p.MaxAttempts = maxAttempts
	}
	if baseDelayMs > 0 {
		p.BaseDelay = time.Duration(baseDelayMs) * time.Millisecond
	}
	return p
}
