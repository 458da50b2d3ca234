package utils

// Must panics on a non-nil error. For wiring that cannot fail at runtime
// once it worked at boot.
func Must(err error) {
	if err != nil {
		panic(err)
	}
}
