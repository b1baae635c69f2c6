package rest_api

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

type HTTPVerb int

const (
	Unknown = iota
	GET
	DELETE
	POST
	PUT
	PATCH
)

type RestMethod struct {
	Verb    HTTPVerb
	Path    string
	Handler func(c *gin.Context)
}

// RegisterMethod is a helper function for Register.
func (s *Server) RegisterMethod(verb HTTPVerb, path string, h func(c *gin.Context)) error {
	m := RestMethod{
		Verb:    verb,
		Path:    path,
		Handler: h,
	}
	return s.Register(m)
}

// Register your REST method using this function.
func (s *Server) Register(m RestMethod) error {
	key := fmt.Sprintf("%d_%s", m.Verb, m.Path)
	if _, exists := s.restMethods[key]; exists {
		return fmt.Errorf("can't add %s, an existing handler in REST method map exists", key)
	}
	s.restMethods[key] = m
	return nil
}

// RestMethods returns the registered methods.
func (s *Server) RestMethods() []RestMethod {
	methods := make([]RestMethod, 0, len(s.restMethods))
	for _, m := range s.restMethods {
		methods = append(methods, m)
	}
	return methods
}
