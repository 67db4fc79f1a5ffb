// Package signal implements SignalLabel, the two-valued label that flows
// exclusively over control edges.
package signal

// Signal is a two-valued control label: active or inactive. It is distinct
// from data labels (package label) and never appears in a data_history.
type Signal struct {
	active bool
}

// Active returns the active signal.
func Active() Signal { return Signal{active: true} }

// Inactive returns the inactive signal.
func Inactive() Signal { return Signal{active: false} }

// IsActive reports whether this signal is active.
func (s Signal) IsActive() bool { return s.active }

// String implements fmt.Stringer for debug output.
func (s Signal) String() string {
	if s.active {
		return "active"
	}
	return "inactive"
}
