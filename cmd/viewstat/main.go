// Command viewstat allocates a view with the configured options, shares it
// across goroutines through copies and subviews, and reports the allocation
// bookkeeping it observed.
package main

func main() {
	Execute()
}
