package repository

import (
	"fmt"
	"math/rand"
	"strings"
)

// CodeGenerator issues the short human-readable codes shown on cards.
// Codes are not unique; they are labels, not keys.
type CodeGenerator struct {
	prefix string
}

func NewCodeGenerator(prefix string) *CodeGenerator {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = "TB"
	}
	return &CodeGenerator{prefix: prefix}
}

// Next returns PREFIX-NN with NN in 1..998.
func (g *CodeGenerator) Next() string {
	return fmt.Sprintf("%s-%02d", g.prefix, rand.Intn(998)+1)
}
