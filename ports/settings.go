package ports

// PublisherSource supplies the publisher the operator works for
type PublisherSource interface {
	Publisher() string
}
