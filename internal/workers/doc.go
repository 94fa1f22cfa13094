/*
Package workers sizes worker pools from the CPUs the process may actually use.

runtime.NumCPU reports the host's CPUs even inside a container with a CPU
limit, while GOMAXPROCS follows the cgroup quota. Pool sizes are therefore
derived from runtime.GOMAXPROCS(0):

	workers.ForCPU(8)   // 1 per CPU, at most 8
	workers.ForIO(16)   // 2 per CPU, at most 16
	workers.Count(3, 0) // 3 per CPU, no limit

The scan pipeline reads files, hashes them and writes to SQLite, so it uses
ForScan, which is ForIO(16).

# Override

SCAN_WORKERS replaces the computed value, still capped by the limit:

	SCAN_WORKERS=4 ai-image-decoder
*/
package workers
