/*
Package filesystem provides the file operations shared by the cache backends
and the extractor.

# Path resolution

Cache locations are configured with Windows-style placeholders so the same
settings work for the Windows client and the Linux (Sober) client:

	filesystem.ResolvePath("%localappdata%/Roblox/rbx-storage.db")
	filesystem.ResolvePath("~/.var/app/org.vinegarhq.Sober/cache/sober")

# Retries

Reads of cache files retry transient errors (ESTALE, EBUSY, EAGAIN) with
exponential backoff, because the client may hold a file while it is being
written:

	data, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())

Retry attempts, successes and failures are exported as Prometheus counters
labelled by operation and volume ("cache", "output").

# Safe writes and removal

WriteFileAtomic writes through a temporary file and a rename. RemoveAllSafe
refuses empty paths, "." and filesystem roots.
*/
package filesystem
