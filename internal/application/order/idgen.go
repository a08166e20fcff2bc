package order

import (
	"strings"

	"github.com/google/uuid"
)

// IDGenerator hands out candidate order ids. Uniqueness is checked by the
// caller against the repository.
type IDGenerator interface {
	NewID() string
}

const tokenLength = 8

// TokenGenerator derives short upper-case ids from random UUIDs.
type TokenGenerator struct{}

func NewTokenGenerator() TokenGenerator { return TokenGenerator{} }

func (TokenGenerator) NewID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:tokenLength])
}

// IDGeneratorFunc adapts a plain function.
type IDGeneratorFunc func() string

func (f IDGeneratorFunc) NewID() string { return f() }
