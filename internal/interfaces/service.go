package interfaces

// Service is an outer surface of the daemon serving the federation book.
// Start must not block.
type Service interface {
	Start() error
	Stop()
}
