package isbn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/library-loans/internal/lib/isbn"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"hyphenated isbn13", "978-5-17-118366-5", "9785171183665"},
		{"spaces", "978 5 17 118366 5", "9785171183665"},
		{"mixed separators", " 978-5 17-118366 5 ", "9785171183665"},
		{"already normalized", "9785171183665", "9785171183665"},
		{"isbn10", "5-17-118366-X", "517118366X"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isbn.Normalize(tt.raw))
		})
	}
}
