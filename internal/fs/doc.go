// Package fs provides the filesystem abstraction used by the local artifact
// store, so tests can inject write, sync and rename failures.
//
//   - [LocalFS]: production implementation on the os package
//   - [FaultyFS]: wrapper that fails selected operations
//
// Production code uses fs.Default:
//
//	f, err := fs.Default.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
//
// Tests wrap it:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("_labels", fs.Fault{FailAfterBytes: 0})
package fs
