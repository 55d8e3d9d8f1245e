package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

// SKUGenerator produces stock keeping unit codes for products created
// without one.
type SKUGenerator struct {
	Separator  string
	DigitCount int
	PrefixLen  int
}

// NewSKUGenerator creates a new SKU generator with default settings
func NewSKUGenerator() *SKUGenerator {
	return &SKUGenerator{
		Separator:  "-",
		DigitCount: 6,
		PrefixLen:  4,
	}
}

// GenerateSKU builds a code such as "MUG-1015-042317" from the product
// title, the current month/day and a random suffix.
func (g *SKUGenerator) GenerateSKU(title string) string {
	parts := []string{}
	if prefix := g.titlePrefix(title); prefix != "" {
		parts = append(parts, prefix)
	}

	now := time.Now()
	parts = append(parts, fmt.Sprintf("%02d%02d", now.Month(), now.Day()))
	parts = append(parts, fmt.Sprintf("%0*d", g.DigitCount, randInt(pow10(g.DigitCount))))
	return strings.Join(parts, g.Separator)
}

func (g *SKUGenerator) titlePrefix(title string) string {
	s := strings.ReplaceAll(slug.Make(title), "-", "")
	if len(s) > g.PrefixLen {
		s = s[:g.PrefixLen]
	}
	return strings.ToUpper(s)
}

func pow10(n int) int64 {
	v := int64(1)
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}

// randInt returns a uniform integer in [0, max).
func randInt(max int64) int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		return time.Now().UnixNano() % max
	}
	return n.Int64()
}
