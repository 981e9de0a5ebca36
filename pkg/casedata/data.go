package casedata

// Data is the field map of a case.
type Data map[string]any

// Get returns the value stored under key. A nil Data or a missing key yields a
// null Value.
func (d Data) Get(key string) Value {
	if d == nil {
		return Value{}
	}
	return Of(d[key])
}

// Has reports whether key is present, even if its value is null.
func (d Data) Has(key string) bool {
	if d == nil {
		return false
	}
	_, ok := d[key]
	return ok
}

// Path walks nested mappings. The first segment that is missing or not a
// mapping ends the walk with a null Value.
func (d Data) Path(keys ...string) Value {
	if len(keys) == 0 {
		return Of(map[string]any(d))
	}
	current := d
	for i, key := range keys {
		v := current.Get(key)
		if i == len(keys)-1 {
			return v
		}
		next, ok := v.Mapping()
		if !ok {
			return Value{}
		}
		current = next
	}
	return Value{}
}
