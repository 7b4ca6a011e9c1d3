package index

// DeckIndex defines the interface for workspace catalog operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type DeckIndex interface {
	UpsertDeck(row DeckRow, body string) error
	DeleteDeck(path string) error
	GetDeck(path string) (*DeckRow, error)
	GetChecksum(path string) (string, error)
	ListDecks(limit, offset int, sort string) ([]DeckRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllChecksums() (map[string]string, error)
	AddAuditRun(run AuditRun) error
	AuditRuns(deck string, limit int) ([]AuditRun, error)
	Close() error
}

// Verify *DB satisfies DeckIndex at compile time.
var _ DeckIndex = (*DB)(nil)
