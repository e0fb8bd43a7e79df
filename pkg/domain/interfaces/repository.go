package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Cache() CacheRepository
	Relationship() RelationshipRepository

	// Close releases any resources held by the backend
	Close() error
}
