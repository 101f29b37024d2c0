package folderkit

// CalculateSize returns the total size of the regular files in the folder
// and all of its subfolders. It walks the host tree on every call.
func (f *Folder) CalculateSize() (int64, error) {
	total, err := f.CalculateFilesSize()
	if err != nil {
		return 0, err
	}
	folders, err := f.SearchFolders("")
	if err != nil {
		return 0, err
	}
	for _, sub := range folders {
		size, err := sub.CalculateSize()
		if err != nil {
			return 0, err
		}
		total += size
	}
	return total, nil
}

// CalculateFilesSize returns the total size of the regular files directly
// in the folder.
func (f *Folder) CalculateFilesSize() (int64, error) {
	files, err := f.SearchFiles("")
	if err != nil {
		return 0, err
	}
	var total int64
	for _, file := range files {
		total += file.SizeBytes()
	}
	return total, nil
}

// CalculateSizeAsync runs CalculateSize on its own goroutine and hands the
// result to done through the workspace dispatcher.
func (f *Folder) CalculateSizeAsync(done func(int64, error)) *Task[int64] {
	return Go(f.ws.dispatcher, f.CalculateSize, done)
}

// Size returns CalculateSize scaled to unit.
func (f *Folder) Size(unit SizeUnit) (float64, error) {
	total, err := f.CalculateSize()
	if err != nil {
		return 0, err
	}
	return unit.Scale(total), nil
}
