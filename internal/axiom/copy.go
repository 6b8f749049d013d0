package axiom

// DeepCopy returns a structurally independent copy of v.
//
// Scalars are immutable and returned as-is; Array and Object are copied
// recursively, so no mutation through the original can reach the copy at
// any nesting depth.
func DeepCopy(v Value) Value {
	switch val := v.(type) {
	case Array:
		out := make(Array, len(val))
		for i, elem := range val {
			out[i] = DeepCopy(elem)
		}
		return out
	case Object:
		return CopyObject(val)
	default:
		return v
	}
}

// CopyObject returns a deep copy of obj. Preserves nil, so optional fields
// stay absent rather than becoming empty objects.
func CopyObject(obj Object) Object {
	if obj == nil {
		return nil
	}
	out := make(Object, len(obj))
	for k, elem := range obj {
		out[k] = DeepCopy(elem)
	}
	return out
}
