// Package snapshot reads and writes the XML form of the organizational-unit table.
//
// A snapshot is a single document rooted at <departments> holding one
// <department> per record, each with <depCode>, <depJob> and <description>
// children. Decode is strict: a wrong root, a missing child or a repeated
// (depCode, depJob) pair fails the whole document.
//
// Snapshots live at a Location: a file on an afero filesystem, or an object in
// the storage bucket when the reference starts with "s3://".
//
//	loc, err := snapshot.Resolve("s3://nightly.xml", afero.NewOsFs(), client, "snapshots")
//	target, err := snapshot.Load(ctx, loc)
package snapshot
