/*
Package database implements the asset source backed by the client's SQLite
cache database (rbx-storage.db).

The database is owned by the client; this package only reads and updates the
existing table:

	files(id BLOB, size INTEGER, ttl INTEGER, content BLOB)

Row ids are shown hex-encoded as asset names. The ttl column is a Unix
timestamp and becomes the asset's modification time.

# Resolution

The database location is resolved in order from the "sql_database" setting
and then DefaultCandidates. Each candidate must be an existing regular file.
When nothing resolves, the Prompter is asked for a path; an operator who
declines leaves the source closed and Connect returns source.ErrNotConfigured.

# Connection lifecycle

	Unresolved --Connect--> Open --Close/Clear failure--> Closed
	Closed --Connect/Reconnect--> Open

There is no implicit reconnect: after a failure, queries return
source.ErrNoConnection until Reconnect is called.

# Mutations

Swap and Copy run in a transaction so concurrent readers see either the old
or the new content. Clear closes the connection, deletes the database file,
reopens an empty database at the same path and removes the rbx-storage
folder next to it.
*/
package database
