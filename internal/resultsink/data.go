package resultsink

// WriteResult describes one persisted record.
type WriteResult struct {
	urlHash string // identity (filename without extension)
	path    string
}

func NewWriteResult(urlHash, path string) WriteResult {
	return WriteResult{urlHash: urlHash, path: path}
}

func (w WriteResult) URLHash() string { return w.urlHash }
func (w WriteResult) Path() string    { return w.path }
