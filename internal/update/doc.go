// Package update detects, downloads and installs new releases of the running
// application, then relaunches it.
//
// The package includes:
//   - Dotted numeric version parsing and comparison (version.go)
//   - Release metadata lookup and platform asset selection (release.go)
//   - Archive download with timeouts and progress samples (download.go)
//   - Session layout and the fixed install plan (session.go, plan.go)
//   - Archive extraction and directory replacement (archive.go, fsops.go)
//   - The install state machine with backup and restore (installer.go)
//   - The detached install helper and per-OS process handling (helper.go, spawn_*.go)
//   - The update cycle tying it together (orchestrator.go)
//
// The running binary cannot reliably replace the directory it runs from, so
// HelperInstaller copies itself into the session, starts that copy detached
// with the serialized plan, and exits. The copy waits for the parent to exit,
// runs the plan with an Executor and starts the new version.
//
// Downloaded archives are not checked against a checksum or signature; the
// release endpoint is trusted as served over HTTPS.
package update
