package folderkit

// SecureWriteFrom replaces the content of the file with the content of
// src passed through transform. Encryption and decryption differ only in
// the transform given.
func (f *File) SecureWriteFrom(src ReadableEntity, chunkSize int, progress ProgressFunc, transform Transform) error {
	err := Transfer(src, f, chunkSize, transform, f.ws.dispatchProgress(progress))
	f.refreshSize()
	if err != nil {
		return f.ws.fail("transfer", f.path, err)
	}
	f.ws.log.Debug().
		Str("from", src.Path()).
		Str("to", f.path).
		Int64("bytes", f.size).
		Msg("transfer complete")
	return nil
}

// SecureWriteTo transforms the file into dst. It is always
// dst.SecureWriteFrom(f, ...), so the transfer logic has a single
// direction.
func (f *File) SecureWriteTo(dst *File, chunkSize int, progress ProgressFunc, transform Transform) error {
	return dst.SecureWriteFrom(f, chunkSize, progress, transform)
}

// SecureWriteFromAsync runs SecureWriteFrom on its own goroutine. The task
// yields the resulting size of the file.
func (f *File) SecureWriteFromAsync(src ReadableEntity, chunkSize int, progress ProgressFunc, transform Transform, done func(int64, error)) *Task[int64] {
	return Go(f.ws.dispatcher, func() (int64, error) {
		if err := f.SecureWriteFrom(src, chunkSize, progress, transform); err != nil {
			return 0, err
		}
		return f.size, nil
	}, done)
}

// SecureWriteToAsync runs SecureWriteTo on its own goroutine.
func (f *File) SecureWriteToAsync(dst *File, chunkSize int, progress ProgressFunc, transform Transform, done func(int64, error)) *Task[int64] {
	return dst.SecureWriteFromAsync(f, chunkSize, progress, transform, done)
}

// Decrypted reads the whole file through transform into memory.
func (f *File) Decrypted(chunkSize int, progress ProgressFunc, transform Transform) ([]byte, error) {
	sink := &bufferSink{name: f.path + " (memory)"}
	if err := Transfer(f, sink, chunkSize, transform, f.ws.dispatchProgress(progress)); err != nil {
		return nil, f.ws.fail("decrypt", f.path, err)
	}
	return sink.buf.Bytes(), nil
}

// Encrypted is Decrypted under another name: reading through a transform
// is the same operation whichever way the transform goes.
func (f *File) Encrypted(chunkSize int, progress ProgressFunc, transform Transform) ([]byte, error) {
	return f.Decrypted(chunkSize, progress, transform)
}

// DecryptedAsync runs Decrypted on its own goroutine.
func (f *File) DecryptedAsync(chunkSize int, progress ProgressFunc, transform Transform, done func([]byte, error)) *Task[[]byte] {
	return Go(f.ws.dispatcher, func() ([]byte, error) {
		return f.Decrypted(chunkSize, progress, transform)
	}, done)
}

// EncryptedAsync runs Encrypted on its own goroutine.
func (f *File) EncryptedAsync(chunkSize int, progress ProgressFunc, transform Transform, done func([]byte, error)) *Task[[]byte] {
	return f.DecryptedAsync(chunkSize, progress, transform, done)
}
