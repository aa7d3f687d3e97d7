package soft

// DeviceBuilderOption is a function that configures a Device during construction.
type DeviceBuilderOption func(*Device)

// WithWorkers runs the workgroups of each dispatch on a pool of n workers.
// Values <= 1 execute workgroups serially on the calling goroutine (the default).
//
// Parameters:
//   - n: the maximum number of pool workers
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithWorkers(n int) DeviceBuilderOption {
	return func(d *Device) {
		d.workers = n
	}
}

// WithKernel registers a kernel under a program label during construction.
//
// Parameters:
//   - label: the program label the kernel answers to
//   - k: the kernel
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithKernel(label string, k Kernel) DeviceBuilderOption {
	return func(d *Device) {
		d.kernels[label] = k
	}
}
