// Package folderkit provides virtual files and folders anchored under a set
// of standard host directories, with a streaming transfer engine that
// copies, encrypts and decrypts file content chunk by chunk.
//
// Every [File] and [Folder] is bound to a [Workspace]. The workspace owns the
// host file system (an [afero.Fs]), the standard roots, the callback
// [Dispatcher] and the logger, so entities never reach for process globals.
//
// # Hosts
//
// Hosts are registered by driver packages and selected by name:
//
//   - Local filesystem (github.com/gobeaver/folderkit/driver/local)
//   - In-memory (github.com/gobeaver/folderkit/driver/memory)
//
// Both drivers deliver native change notifications. Any other afero.Fs can
// be passed to [NewWorkspace]; folders on it are watched by polling.
//
// # Basic Usage
//
//	import _ "github.com/gobeaver/folderkit/driver/local"
//
//	ws, err := folderkit.New(nil) // configured from FOLDERKIT_* variables
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	docs, err := ws.Folder("Docs", folderkit.RootDocuments)
//	drafts, err := docs.AddSubfolder("Drafts") // "Drafts 2" when taken
//
//	note, err := drafts.SaveAs("note.txt", []byte("hello"), false)
//	size, err := docs.CalculateSize()
//
// # Transfers
//
// [Transfer] streams a source into a destination in fixed-size chunks,
// passing each chunk through a [Transform] and reporting progress as a
// percentage of the source size:
//
//	err := dst.WriteFrom(src, 4096, func(p float64) {
//	    fmt.Printf("%.0f%%\n", p)
//	})
//
// Encryption is a transfer with a cipher transform:
//
//	sealer, err := ws.Sealer()
//	err = sealed.SecureWriteFrom(plain, 4096, nil, sealer.Transform)
//
//	opener, err := ws.Opener()
//	data, err := sealed.Decrypted(4096, nil, opener.Transform)
//
// # Asynchronous Operations
//
// The Async variants return a [Task] and hand their result to a callback
// through the workspace dispatcher. [NewMainQueue] gives a single serial
// callback goroutine:
//
//	q := folderkit.NewMainQueue()
//	ws, err := folderkit.NewWorkspace(host, folderkit.WithDispatcher(q))
//	docs.CalculateSizeAsync(func(n int64, err error) { show(n) })
//
// # Error Handling
//
// folderkit provides sentinel errors and helper functions for error handling:
//
//	_, err := file.Read()
//	if folderkit.IsNotExist(err) {
//	    // File does not exist
//	}
//
//	var pathErr *folderkit.PathError
//	if errors.As(err, &pathErr) {
//	    fmt.Printf("Operation: %s, Path: %s\n", pathErr.Op, pathErr.Path)
//	}
//
// # Configuration
//
// folderkit can be configured via environment variables with the
// FOLDERKIT_ prefix, or programmatically via the [Config] struct:
//
//	cfg := folderkit.Config{
//	    Host:         "local",
//	    DocumentsDir: "/srv/docs",
//	    ChunkSize:    64 * 1024,
//	}
//	ws, err := folderkit.New(&cfg)
package folderkit
