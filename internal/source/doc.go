/*
Package source defines the asset source contract and the directory backend.

An asset source owns exactly one storage medium. Two implementations exist:

  - Directory (this package): loose files under a cache root, with audio for
    the Music category in sounds/ and everything else in http/.
  - database.Source: rows of the files table in rbx-storage.db.

Sources are collected in a Registry; the engine enumerates them in registry
order and routes reads and writes by each asset's Origin. Operations given an
asset from another origin fail with ErrOriginMismatch, so callers may offer
an asset to every source and keep whichever result succeeds.
*/
package source
