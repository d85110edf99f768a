// Package sanitize validates untrusted request payloads.
//
// DESIGN: Partial tolerance. Malformed elements of an array are dropped
// silently; only an empty result after filtering is a hard failure. Strings
// are trimmed and length-capped, numbers must be finite. Sanitizing an
// already-sanitized value returns it unchanged.
package sanitize

// Collect keeps every element for which keep returns true, in order.
// ok is false when nothing survives.
func Collect[In, Out any](in []In, keep func(In) (Out, bool)) (out []Out, ok bool) {
	out = make([]Out, 0, len(in))
	for _, item := range in {
		if v, keepIt := keep(item); keepIt {
			out = append(out, v)
		}
	}
	return out, len(out) > 0
}

// lastN returns the trailing n elements.
func lastN[T any](in []T, n int) []T {
	if len(in) <= n {
		return in
	}
	return in[len(in)-n:]
}

// firstN returns the leading n elements.
func firstN[T any](in []T, n int) []T {
	if len(in) <= n {
		return in
	}
	return in[:n]
}
