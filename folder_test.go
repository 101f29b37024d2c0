package folderkit

import (
	"context"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readHostFile(t testing.TB, ws *Workspace, path string) string {
	t.Helper()
	data, err := afero.ReadFile(ws.Host(), path)
	require.NoError(t, err)
	return string(data)
}

func names[T interface{ Path() string }](items []T) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, filepath.Base(item.Path()))
	}
	return out
}

func TestFolderConstruction(t *testing.T) {
	ws := newTestWorkspace(t)

	t.Run("nested", func(t *testing.T) {
		f, err := ws.Folder("a/b/c", RootDocuments)
		require.NoError(t, err)
		assert.Equal(t, "/docs/a/b/c", f.Path())
		assert.Equal(t, "a/b/c", f.Name())
		assert.Equal(t, "c", f.LastComponent())
		assert.Equal(t, RootDocuments, f.Kind())
		assert.True(t, f.IsFolder())
	})

	t.Run("empty name", func(t *testing.T) {
		f, err := ws.Folder("", RootTemporary)
		require.NoError(t, err)
		assert.Equal(t, "untitled folder", f.Name())
		assert.True(t, f.Exists())
	})

	t.Run("file in the way", func(t *testing.T) {
		writeHostFile(t, ws, "/docs/blocked", []byte("x"))
		_, err := ws.Folder("blocked", RootDocuments)
		assert.ErrorIs(t, err, ErrNotDir)
	})

	t.Run("escaping name", func(t *testing.T) {
		_, err := ws.Folder("../out", RootDocuments)
		assert.ErrorIs(t, err, ErrInvalidName)
		_, err = ws.Folder("/abs", RootDocuments)
		assert.ErrorIs(t, err, ErrInvalidName)
	})
}

func TestFolderExistsLatch(t *testing.T) {
	ws := newTestWorkspace(t)
	f, err := ws.Folder("Latch", RootDocuments)
	require.NoError(t, err)

	require.NoError(t, ws.Host().RemoveAll(f.Path()))
	assert.True(t, f.Exists(), "a folder once seen is assumed to stay")
	assert.False(t, f.IsFolder())
}

func TestAddSubfolder(t *testing.T) {
	ws := newTestWorkspace(t)
	docs, err := ws.Folder("Docs", RootDocuments)
	require.NoError(t, err)

	drafts, err := docs.AddSubfolder("Drafts")
	require.NoError(t, err)
	assert.Equal(t, "Docs/Drafts", drafts.Name())
	assert.True(t, drafts.IsFolder())

	folders, err := docs.SearchFolders("")
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "Drafts", folders[0].LastComponent())
	assert.True(t, folders[0].Equal(drafts))

	second, err := docs.AddSubfolder("Drafts")
	require.NoError(t, err)
	assert.Equal(t, "Docs/Drafts 2", second.Name())

	_, err = docs.AddSubfolder("x/y")
	assert.ErrorIs(t, err, ErrInvalidName)

	same, err := docs.Subfolder("Drafts")
	require.NoError(t, err)
	assert.True(t, same.Equal(drafts))

	fresh, err := docs.Subfolder("Final")
	require.NoError(t, err)
	assert.True(t, fresh.IsFolder())
}

func TestResolveChildName(t *testing.T) {
	ws := newTestWorkspace(t)
	f, err := ws.Folder("Docs", RootDocuments)
	require.NoError(t, err)
	writeHostFile(t, ws, "/docs/Docs/a.txt", nil)
	writeHostFile(t, ws, "/docs/Docs/a 2.txt", nil)

	assert.Equal(t, "b.txt", f.ResolveChildName("b.txt"))
	assert.Equal(t, "a 3.txt", f.ResolveChildName("a.txt"))
}

func TestFolderSearch(t *testing.T) {
	ws := newTestWorkspace(t)
	f, err := ws.Folder("Docs", RootDocuments)
	require.NoError(t, err)
	writeHostFile(t, ws, "/docs/Docs/Report.TXT", []byte("r"))
	writeHostFile(t, ws, "/docs/Docs/notes.md", []byte("n"))
	writeHostFile(t, ws, "/docs/Docs/reports/inner.txt", []byte("i"))

	files, err := f.SearchFiles("")
	require.NoError(t, err)
	assert.Equal(t, []string{"Report.TXT", "notes.md"}, names(files))

	files, err = f.SearchFiles("report")
	require.NoError(t, err)
	assert.Equal(t, []string{"Report.TXT"}, names(files))

	folders, err := f.SearchFolders("REPORT")
	require.NoError(t, err)
	assert.Equal(t, []string{"reports"}, names(folders))

	files, folders, err = f.ContentsMatching("rep")
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Len(t, folders, 1)

	require.NoError(t, f.Delete())
	_, err = f.SearchFiles("")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestFolderSize(t *testing.T) {
	ws := newTestWorkspace(t)
	f, err := ws.Folder("Sized", RootDocuments)
	require.NoError(t, err)
	writeHostFile(t, ws, "/docs/Sized/ten", make([]byte, 10))
	writeHostFile(t, ws, "/docs/Sized/twenty", make([]byte, 20))
	writeHostFile(t, ws, "/docs/Sized/sub/five", make([]byte, 5))

	total, err := f.CalculateSize()
	require.NoError(t, err)
	assert.EqualValues(t, 35, total)

	direct, err := f.CalculateFilesSize()
	require.NoError(t, err)
	assert.EqualValues(t, 30, direct)

	kb, err := f.Size(KB)
	require.NoError(t, err)
	assert.InDelta(t, 35.0/1024, kb, 1e-9)

	var fromCallback int64
	async, err := f.CalculateSizeAsync(func(n int64, err error) { atomic.StoreInt64(&fromCallback, n) }).Wait()
	require.NoError(t, err)
	assert.EqualValues(t, 35, async)
	// The callback runs after Wait has already seen the result.
	assert.Eventually(t, func() bool { return atomic.LoadInt64(&fromCallback) == 35 }, time.Second, time.Millisecond)

	empty, err := ws.Folder("Empty", RootDocuments)
	require.NoError(t, err)
	total, err = empty.CalculateSize()
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestFolderRename(t *testing.T) {
	ws := newTestWorkspace(t)
	docs, err := ws.Folder("Docs", RootDocuments)
	require.NoError(t, err)
	drafts, err := docs.AddSubfolder("Drafts")
	require.NoError(t, err)
	writeHostFile(t, ws, "/docs/Docs/Drafts/d.txt", []byte("d"))
	_, err = docs.AddSubfolder("Taken")
	require.NoError(t, err)

	assert.ErrorIs(t, drafts.Rename("Taken"), ErrExist)
	assert.ErrorIs(t, drafts.Rename("a/b"), ErrInvalidName)
	require.NoError(t, drafts.Rename("Drafts"))

	require.NoError(t, drafts.Rename("Final"))
	assert.Equal(t, "Docs/Final", drafts.Name())
	assert.True(t, drafts.IsFolder())
	assert.Equal(t, "d", readHostFile(t, ws, "/docs/Docs/Final/d.txt"))

	exists, err := afero.DirExists(ws.Host(), "/docs/Docs/Drafts")
	require.NoError(t, err)
	assert.False(t, exists)

	top, err := ws.Folder("Top", RootDocuments)
	require.NoError(t, err)
	require.NoError(t, top.Rename("Renamed"))
	assert.Equal(t, "Renamed", top.Name())
}

func TestFolderDelete(t *testing.T) {
	ws := newTestWorkspace(t)
	f, err := ws.Folder("Gone", RootDocuments)
	require.NoError(t, err)
	writeHostFile(t, ws, "/docs/Gone/inner/file", []byte("x"))

	require.NoError(t, f.Delete())
	assert.False(t, f.Exists())
	assert.False(t, f.IsFolder())
	assert.ErrorIs(t, f.Delete(), ErrNotExist)
}

func TestCopyOf(t *testing.T) {
	ws := newTestWorkspace(t)
	docs, err := ws.Folder("Docs", RootDocuments)
	require.NoError(t, err)
	writeHostFile(t, ws, "/docs/in/a.txt", []byte("new"))
	writeHostFile(t, ws, "/docs/Docs/a.txt", []byte("old"))
	src, _ := ws.File(RootDocuments, "in/a.txt")

	_, err = docs.CopyOf(src, false)
	assert.ErrorIs(t, err, ErrExist)
	assert.Equal(t, "old", readHostFile(t, ws, "/docs/Docs/a.txt"))

	out, err := docs.CopyOf(src, true)
	require.NoError(t, err)
	assert.Equal(t, "/docs/Docs/a.txt", out.Path())
	assert.EqualValues(t, 3, out.SizeBytes())
	assert.Equal(t, "new", readHostFile(t, ws, "/docs/Docs/a.txt"))
	assert.True(t, src.Exists(), "the source stays")

	_, err = docs.CopyOf(out, true)
	assert.ErrorIs(t, err, ErrExist, "a file cannot be copied onto itself")

	missing, _ := ws.File(RootDocuments, "in/missing.txt")
	_, err = docs.CopyOf(missing, false)
	assert.ErrorIs(t, err, ErrNotExist)

	dir, _ := ws.File(RootDocuments, "in")
	_, err = docs.CopyOf(dir, false)
	assert.ErrorIs(t, err, ErrNotRegular)
}

func TestPasteContent(t *testing.T) {
	ws := newTestWorkspace(t)
	docs, err := ws.Folder("Docs", RootDocuments)
	require.NoError(t, err)
	writeHostFile(t, ws, "/docs/in/a.txt", []byte("pasted"))
	writeHostFile(t, ws, "/docs/Docs/a.txt", []byte("old"))
	src, _ := ws.File(RootDocuments, "in/a.txt")

	out, err := docs.PasteContent(src, false)
	require.NoError(t, err)
	assert.Equal(t, "a 2.txt", out.Name())
	assert.Equal(t, "pasted", readHostFile(t, ws, out.Path()))
	assert.Equal(t, "old", readHostFile(t, ws, "/docs/Docs/a.txt"))

	out, err = docs.PasteContent(src, true)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", out.Name())
	assert.Equal(t, "pasted", readHostFile(t, ws, "/docs/Docs/a.txt"))
}

func TestMoveIn(t *testing.T) {
	ws := newTestWorkspace(t)
	docs, err := ws.Folder("Docs", RootDocuments)
	require.NoError(t, err)
	writeHostFile(t, ws, "/docs/in/m.txt", []byte("move me"))
	writeHostFile(t, ws, "/docs/in/taken.txt", []byte("incoming"))
	writeHostFile(t, ws, "/docs/Docs/taken.txt", []byte("resident"))

	file, _ := ws.File(RootDocuments, "in/m.txt")
	moved, err := docs.MoveIn(file, false)
	require.NoError(t, err)
	assert.Same(t, file, moved)
	assert.Equal(t, "/docs/Docs/m.txt", moved.Path())
	assert.EqualValues(t, 7, moved.SizeBytes())
	assert.Equal(t, "move me", readHostFile(t, ws, moved.Path()))

	gone, _ := ws.File(RootDocuments, "in/m.txt")
	assert.False(t, gone.Exists())

	again, err := docs.MoveIn(moved, false)
	require.NoError(t, err)
	assert.Equal(t, "/docs/Docs/m.txt", again.Path())

	taken, _ := ws.File(RootDocuments, "in/taken.txt")
	_, err = docs.MoveIn(taken, false)
	assert.ErrorIs(t, err, ErrExist)
	assert.Equal(t, "/docs/in/taken.txt", taken.Path())

	_, err = docs.MoveIn(taken, true)
	require.NoError(t, err)
	assert.Equal(t, "incoming", readHostFile(t, ws, "/docs/Docs/taken.txt"))
}

func TestSaveAsAndImport(t *testing.T) {
	ws := newTestWorkspace(t)
	docs, err := ws.Folder("Docs", RootDocuments)
	require.NoError(t, err)

	first, err := docs.SaveAs("s.txt", []byte("one"), false)
	require.NoError(t, err)
	assert.Equal(t, "s.txt", first.Name())

	second, err := docs.SaveAs("s.txt", []byte("two"), false)
	require.NoError(t, err)
	assert.Equal(t, "s 2.txt", second.Name())
	assert.Equal(t, "one", readHostFile(t, ws, first.Path()))

	replaced, err := docs.SaveAs("s.txt", []byte("three"), true)
	require.NoError(t, err)
	assert.Equal(t, "three", readHostFile(t, ws, replaced.Path()))
	assert.EqualValues(t, 5, replaced.SizeBytes())

	_, err = docs.AddSubfolder("dir")
	require.NoError(t, err)
	_, err = docs.SaveAs("dir", []byte("x"), true)
	assert.ErrorIs(t, err, ErrNotRegular)

	_, err = docs.SaveAs("", nil, false)
	assert.ErrorIs(t, err, ErrInvalidName)

	imported, err := docs.Import("s.txt", strings.NewReader("streamed"))
	require.NoError(t, err)
	assert.Equal(t, "s 3.txt", imported.Name())
	assert.EqualValues(t, 8, imported.SizeBytes())
}

func TestDeleteContent(t *testing.T) {
	ws := newTestWorkspace(t)
	docs, err := ws.Folder("Docs", RootDocuments)
	require.NoError(t, err)
	writeHostFile(t, ws, "/docs/Docs/a.txt", []byte("a"))
	writeHostFile(t, ws, "/docs/Docs/b.txt", []byte("b"))
	writeHostFile(t, ws, "/docs/Docs/sub/c.txt", []byte("c"))
	writeHostFile(t, ws, "/docs/elsewhere.txt", []byte("e"))

	require.NoError(t, docs.DeleteContentByName("a.txt"))
	assert.ErrorIs(t, docs.DeleteContentByName("a.txt"), ErrNotExist)
	require.NoError(t, docs.DeleteContentByName("sub"))
	assert.ErrorIs(t, docs.DeleteContentByName("../elsewhere.txt"), ErrInvalidName)

	b, _ := ws.File(RootDocuments, "Docs/b.txt")
	require.NoError(t, docs.DeleteContent(b))
	assert.False(t, b.Exists())

	elsewhere, _ := ws.File(RootDocuments, "elsewhere.txt")
	assert.ErrorIs(t, docs.DeleteContent(elsewhere), ErrNotExist)
	assert.True(t, elsewhere.Exists())

	files, folders, err := docs.ContentsMatching("")
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.Empty(t, folders)
}

func TestMoveTo(t *testing.T) {
	ws := newTestWorkspace(t)
	src, err := ws.Folder("Src", RootDocuments)
	require.NoError(t, err)
	writeHostFile(t, ws, "/docs/Src/f.txt", []byte("f"))
	writeHostFile(t, ws, "/docs/Src/sub/g.txt", []byte("gg"))
	archive, err := ws.Folder("Archive", RootDocuments)
	require.NoError(t, err)

	dst, err := src.MoveTo(archive)
	require.NoError(t, err)
	assert.Equal(t, "Archive/Src", dst.Name())
	assert.Equal(t, "f", readHostFile(t, ws, "/docs/Archive/Src/f.txt"))
	assert.Equal(t, "gg", readHostFile(t, ws, "/docs/Archive/Src/sub/g.txt"))
	assert.True(t, src.IsFolder(), "the source is left in place")

	again, err := src.MoveTo(archive)
	require.NoError(t, err)
	assert.Equal(t, "Archive/Src 2", again.Name())

	sub, err := src.Subfolder("sub")
	require.NoError(t, err)
	_, err = src.MoveTo(sub)
	assert.ErrorIs(t, err, ErrNotAllowed)
	_, err = src.MoveTo(src)
	assert.ErrorIs(t, err, ErrNotAllowed)
}

func TestCopyFrom(t *testing.T) {
	setup := func(t *testing.T) (*Workspace, *Folder, *Folder) {
		ws := newTestWorkspace(t)
		src, err := ws.Folder("Src", RootDocuments)
		require.NoError(t, err)
		dst, err := ws.Folder("Dst", RootDocuments)
		require.NoError(t, err)
		writeHostFile(t, ws, "/docs/Src/a.txt", []byte("src a"))
		writeHostFile(t, ws, "/docs/Src/b.txt", []byte("src b"))
		writeHostFile(t, ws, "/docs/Src/sub/c.txt", []byte("src c"))
		writeHostFile(t, ws, "/docs/Dst/a.txt", []byte("dst a"))
		writeHostFile(t, ws, "/docs/Dst/sub/keep.txt", []byte("keep"))
		return ws, src, dst
	}

	t.Run("default policy carries on", func(t *testing.T) {
		ws, src, dst := setup(t)
		require.NoError(t, dst.CopyFrom(src))
		assert.Equal(t, "dst a", readHostFile(t, ws, "/docs/Dst/a.txt"))
		assert.Equal(t, "src b", readHostFile(t, ws, "/docs/Dst/b.txt"))
		assert.Equal(t, "src c", readHostFile(t, ws, "/docs/Dst/sub/c.txt"))
		assert.Equal(t, "keep", readHostFile(t, ws, "/docs/Dst/sub/keep.txt"))
	})

	t.Run("policy aborts", func(t *testing.T) {
		ws, src, dst := setup(t)
		var seen []string
		dst.SetCopyErrorPolicy(func(path string, err error) bool {
			seen = append(seen, path)
			return !IsExist(err)
		})
		err := dst.CopyFrom(src)
		assert.ErrorIs(t, err, ErrExist)
		assert.Equal(t, []string{"/docs/Src/a.txt"}, seen)

		exists, _ := afero.Exists(ws.Host(), "/docs/Dst/b.txt")
		assert.False(t, exists, "the walk stops at the first refused entry")
	})

	t.Run("policy reset", func(t *testing.T) {
		_, src, dst := setup(t)
		dst.SetCopyErrorPolicy(func(string, error) bool { return false })
		dst.SetCopyErrorPolicy(nil)
		assert.NoError(t, dst.CopyFrom(src))
	})

	t.Run("into itself", func(t *testing.T) {
		_, src, _ := setup(t)
		sub, err := src.Subfolder("sub")
		require.NoError(t, err)
		assert.ErrorIs(t, sub.CopyFrom(src), ErrNotAllowed)
		assert.ErrorIs(t, src.CopyFrom(src), ErrNotAllowed)
	})

	t.Run("missing source", func(t *testing.T) {
		_, src, dst := setup(t)
		require.NoError(t, src.Delete())
		assert.ErrorIs(t, dst.CopyFrom(src), ErrNotExist)
	})
}

func TestGlob(t *testing.T) {
	ws := newTestWorkspace(t)
	f, err := ws.Folder("Docs", RootDocuments)
	require.NoError(t, err)
	writeHostFile(t, ws, "/docs/Docs/a.txt", nil)
	writeHostFile(t, ws, "/docs/Docs/c.md", nil)
	writeHostFile(t, ws, "/docs/Docs/sub/b.txt", nil)

	tests := []struct {
		pattern string
		want    []string
	}{
		{"*.txt", []string{"a.txt"}},
		{"**.txt", []string{"a.txt", "b.txt"}},
		{"sub/*", []string{"b.txt"}},
		{"*.{md,txt}", []string{"a.txt", "c.md"}},
		{"*.go", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			files, err := f.Glob(tt.pattern)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, names(files))
		})
	}

	_, err = f.Glob("[a-")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFolderWatchPolling(t *testing.T) {
	ws := newTestWorkspace(t, WithPollInterval(10*time.Millisecond))
	f, err := ws.Folder("Watched", RootDocuments)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	token, err := f.Watch(ctx)
	require.NoError(t, err)
	assert.True(t, token.ActiveChangeCallbacks())

	var fired atomic.Bool
	token.RegisterChangeCallback(func() { fired.Store(true) })

	time.Sleep(30 * time.Millisecond)
	assert.False(t, token.HasChanged())

	_, err = f.SaveAs("new.txt", []byte("x"), false)
	require.NoError(t, err)

	assert.Eventually(t, token.HasChanged, 2*time.Second, 5*time.Millisecond)
	assert.Eventually(t, fired.Load, 2*time.Second, 5*time.Millisecond)

	t.Run("vanished folder counts as a change", func(t *testing.T) {
		token, err := f.Watch(ctx)
		require.NoError(t, err)
		require.NoError(t, ws.Host().RemoveAll(f.Path()))
		assert.Eventually(t, token.HasChanged, 2*time.Second, 5*time.Millisecond)
	})

	t.Run("missing folder", func(t *testing.T) {
		gone, err := ws.Folder("Gone", RootDocuments)
		require.NoError(t, err)
		require.NoError(t, gone.Delete())
		_, err = gone.Watch(ctx)
		assert.ErrorIs(t, err, ErrNotExist)
	})
}
