package pipeline

// ProgressFunc receives milestone updates. It runs on the pipeline goroutine
// and must return quickly.
type ProgressFunc func(percent int, message string)

// Report calls f when it is set.
func (f ProgressFunc) Report(percent int, message string) {
	if f != nil {
		f(percent, message)
	}
}
