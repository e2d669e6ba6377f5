package handler

import (
	"github.com/deppfellow/civil-registry/internal/server"
	"github.com/deppfellow/civil-registry/internal/service"
)

type Handlers struct {
	Health  *HealthHandler
	OpenAPI *OpenAPIHandler
	Person  *PersonHandler
	Address *AddressHandler
	Postal  *PostalHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
		Person:  NewPersonHandler(s, services.Person, services.Address),
		Address: NewAddressHandler(s, services.Address),
		Postal:  NewPostalHandler(s, services.Postal),
	}
}
