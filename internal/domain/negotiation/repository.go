package negotiation

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import "github.com/dataspace-connector/connector/internal/domain/repository"

// Repository defines persistence for negotiations.
type Repository = repository.Repository[*Negotiation]
