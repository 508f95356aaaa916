package port

// FileWalker lists the files under root that a source should read.
type FileWalker interface {
	Walk(root string) ([]FileInfo, error)
}

// FileInfo describes one walked file.
type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}
