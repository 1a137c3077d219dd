package memory

import (
	"encoding/json"
	"fmt"
)

// ProfileKind identifies the shape of a ProfileValue.
type ProfileKind int

const (
	// KindScalar is a string, number, boolean, or null leaf.
	KindScalar ProfileKind = iota

	// KindSequence is an ordered list of profile values.
	KindSequence

	// KindMap is a nested mapping of short keys to profile values.
	KindMap
)

// ProfileValue is a free-form profile fact: a tagged union of scalar,
// sequence, and map. Values are validated only at the leaf; there is no
// schema enforcement.
type ProfileValue struct {
	kind   ProfileKind
	scalar any
	seq    []ProfileValue
	m      map[string]ProfileValue
}

// StringValue builds a scalar string value.
func StringValue(s string) ProfileValue {
	return ProfileValue{kind: KindScalar, scalar: s}
}

// NumberValue builds a scalar numeric value.
func NumberValue(n float64) ProfileValue {
	return ProfileValue{kind: KindScalar, scalar: n}
}

// BoolValue builds a scalar boolean value.
func BoolValue(b bool) ProfileValue {
	return ProfileValue{kind: KindScalar, scalar: b}
}

// SequenceValue builds an ordered sequence value.
func SequenceValue(vals ...ProfileValue) ProfileValue {
	return ProfileValue{kind: KindSequence, seq: vals}
}

// MapValue builds a nested map value.
func MapValue(m map[string]ProfileValue) ProfileValue {
	return ProfileValue{kind: KindMap, m: m}
}

// Kind returns the shape of the value.
func (v ProfileValue) Kind() ProfileKind { return v.kind }

// Scalar returns the leaf value and true when the kind is KindScalar.
func (v ProfileValue) Scalar() (any, bool) {
	if v.kind != KindScalar {
		return nil, false
	}
	return v.scalar, true
}

// Sequence returns the elements when the kind is KindSequence.
func (v ProfileValue) Sequence() []ProfileValue {
	if v.kind != KindSequence {
		return nil
	}
	return v.seq
}

// Map returns the nested mapping when the kind is KindMap.
func (v ProfileValue) Map() map[string]ProfileValue {
	if v.kind != KindMap {
		return nil
	}
	return v.m
}

// MarshalJSON encodes the value as the plain JSON it represents.
func (v ProfileValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindScalar:
		return json.Marshal(v.scalar)
	case KindSequence:
		if v.seq == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.seq)
	case KindMap:
		if v.m == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.m)
	default:
		return nil, fmt.Errorf("profile value: unknown kind %d", v.kind)
	}
}

// UnmarshalJSON decodes arbitrary JSON into the tagged union.
func (v *ProfileValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := profileValueFrom(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// profileValueFrom converts a decoded JSON value into a ProfileValue.
func profileValueFrom(raw any) (ProfileValue, error) {
	switch val := raw.(type) {
	case nil, string, float64, bool:
		return ProfileValue{kind: KindScalar, scalar: val}, nil
	case []any:
		seq := make([]ProfileValue, 0, len(val))
		for _, item := range val {
			pv, err := profileValueFrom(item)
			if err != nil {
				return ProfileValue{}, err
			}
			seq = append(seq, pv)
		}
		return ProfileValue{kind: KindSequence, seq: seq}, nil
	case map[string]any:
		m := make(map[string]ProfileValue, len(val))
		for k, item := range val {
			pv, err := profileValueFrom(item)
			if err != nil {
				return ProfileValue{}, err
			}
			m[k] = pv
		}
		return ProfileValue{kind: KindMap, m: m}, nil
	default:
		return ProfileValue{}, fmt.Errorf("profile value: unsupported type %T", raw)
	}
}
