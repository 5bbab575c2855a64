package kernel

// Fibonacci returns the n-th term of 1, 1, 2, 3, 5, ... using naive double
// recursion. The exponential call tree is the workload.
func Fibonacci(n uint32) uint32 {
	if n <= 1 {
		return 1
	}

	return Fibonacci(n-1) + Fibonacci(n-2)
}
