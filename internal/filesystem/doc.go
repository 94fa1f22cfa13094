/*
Package filesystem wraps os.Stat and os.Open with retries for NFS stale file
handle errors (ESTALE), which show up when a scan root lives on a network
mount that the server reshuffles underneath the client.

Only ESTALE is retried. Every other error, including permission denied and
not-exist, is returned at once so the scanner can count and skip the entry.

	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())

# Metrics

The package does not import the metrics package. Callers install an Observer
once at startup; with no Observer nothing is recorded:

	filesystem.SetObserver(metrics.FilesystemObserver{})

Paths are labelled with a volume name through a VolumeResolver, using the
longest configured prefix:

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
	    "scan":     cfg.ScanRoot,
	    "database": cfg.DatabaseDir,
	}))
*/
package filesystem
