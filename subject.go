package snowtrack

import "sync"

// Sticky identity parameters that survive across tracking calls on one
// tracker instance.
const (
	paramUserID     = "uid"
	paramResolution = "res"
	paramViewport   = "vp"
	paramColorDepth = "cd"
	paramTimezone   = "tz"
	paramLanguage   = "lang"
)

var stickyParams = []string{
	paramUserID,
	paramResolution,
	paramViewport,
	paramColorDepth,
	paramTimezone,
	paramLanguage,
}

// subject holds the sticky identity fields and the platform for one tracker
// instance. Access is mutex-guarded so a tracker may be shared between
// goroutines.
type subject struct {
	mu     sync.RWMutex
	plat   string
	fields map[string]string
}

func newSubject(platform string) *subject {
	return &subject{
		plat:   platform,
		fields: make(map[string]string),
	}
}

func (s *subject) set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields[key] = value
}

func (s *subject) setPlatform(platform string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plat = platform
}

func (s *subject) platform() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plat
}

// apply stamps the sticky fields onto a fresh payload.
func (s *subject) apply(p Payload) Payload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, key := range stickyParams {
		if value, ok := s.fields[key]; ok {
			p = p.Add(key, value)
		}
	}
	return p
}
