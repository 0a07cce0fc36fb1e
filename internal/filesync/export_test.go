package filesync

// WatchedDirs lists the directories the underlying fsnotify watcher holds.
func (w *Watcher) WatchedDirs() []string {
	return w.watcher.WatchList()
}
