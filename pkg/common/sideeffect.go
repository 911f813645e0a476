package common

import "encoding/json"

// SideEffect records whether a best-effort secondary action (audit append,
// event publish) ran and how it ended. A failed side effect never fails the
// primary operation; callers inspect Err to detect swallowed failures.
type SideEffect struct {
	Attempted bool
	Err       error
}

// Failed reports whether the side effect ran and errored.
func (s SideEffect) Failed() bool {
	return s.Attempted && s.Err != nil
}

// MarshalJSON surfaces the error text so API responses show swallowed
// side-effect failures.
func (s SideEffect) MarshalJSON() ([]byte, error) {
	out := struct {
		Attempted bool   `json:"attempted"`
		OK        bool   `json:"ok"`
		Error     string `json:"error,omitempty"`
	}{
		Attempted: s.Attempted,
		OK:        s.Attempted && s.Err == nil,
	}
	if s.Err != nil {
		out.Error = s.Err.Error()
	}
	return json.Marshal(out)
}
