package campfire

import "net/url"

// Field is a single form parameter value: either a scalar or a one-level
// group that flattens to bracketed keys ("room[name]=..."). The service's
// endpoints never nest deeper than one level.
type Field struct {
	scalar string
	group  map[string]string
}

// String returns a scalar field.
func String(v string) Field {
	return Field{scalar: v}
}

// Group returns a nested field. Encoding a Params with {"room": Group(...)}
// produces room[<key>]=<value> pairs.
func Group(values map[string]string) Field {
	return Field{group: values}
}

// Params is the set of form parameters for a single request.
type Params map[string]Field

// Encode flattens the parameter tree into url.Values ready for
// form-url-encoding.
func (p Params) Encode() url.Values {
	values := make(url.Values, len(p))
	for key, field := range p {
		if field.group == nil {
			values.Set(key, field.scalar)
			continue
		}
		for sub, v := range field.group {
			values.Set(key+"["+sub+"]", v)
		}
	}
	return values
}
