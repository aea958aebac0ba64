/*
Package filesystem wraps os.Stat, os.Open and filepath.EvalSymlinks with retry
logic for NFS stale file handle errors (ESTALE).

Media libraries are commonly mounted over NFS. A scan touches every file, so a
transient ESTALE during a server-side change would otherwise drop items from
the run. Only ESTALE is retried; every other error is returned immediately.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

Defaults: 3 retries, exponential backoff from 50ms capped at 500ms.

Retry metrics are labeled by volume. Configure the mapping once at startup
with SetDefaultVolumeResolver and install the Prometheus observer with
SetObserver(metrics.NewFilesystemObserver()).
*/
package filesystem
