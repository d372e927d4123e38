package crud

import "encoding/json"

// Nullable distinguishes an absent field from an explicit null in a partial
// update. Set is false when the key was not sent.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// Apply writes the value into dst when the field was sent.
func (n Nullable[T]) Apply(dst **T) {
	if n.Set {
		*dst = n.Value
	}
}

// Set copies src into dst when src is non-nil.
func Set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
