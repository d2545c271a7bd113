package domain

import (
	"bytes"
	"encoding/json"
)

type patchState uint8

const (
	patchUnchanged patchState = iota
	patchSet
	patchClear
)

// Patch is a tri-state field of a sparse update. The zero value is
// Unchanged. In JSON an absent key stays Unchanged, null becomes Clear and
// any other value becomes Set.
type Patch[T any] struct {
	state patchState
	value T
}

func Set[T any](v T) Patch[T] { return Patch[T]{state: patchSet, value: v} }

func Clear[T any]() Patch[T] { return Patch[T]{state: patchClear} }

func (p Patch[T]) IsUnchanged() bool { return p.state == patchUnchanged }
func (p Patch[T]) IsSet() bool       { return p.state == patchSet }
func (p Patch[T]) IsClear() bool     { return p.state == patchClear }

// Value returns the set value and whether it is set.
func (p Patch[T]) Value() (T, bool) {
	return p.value, p.state == patchSet
}

// IgnoreClear turns Clear into Unchanged, for fields that cannot be null.
func (p Patch[T]) IgnoreClear() Patch[T] {
	if p.state == patchClear {
		return Patch[T]{}
	}
	return p
}

func (p *Patch[T]) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*p = Clear[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = Set(v)
	return nil
}

func (p Patch[T]) MarshalJSON() ([]byte, error) {
	if p.state != patchSet {
		return []byte("null"), nil
	}
	return json.Marshal(p.value)
}
