package evaluator

// displayString is the rendering used by str, print and f-strings:
// strings appear without quotes, everything else prints its readable
// form.
func displayString(v Value) string {
	if s, ok := v.(*String); ok {
		return s.Value
	}
	return v.Inspect()
}
