package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampPage(t *testing.T) {
	tests := []struct {
		page, size   int
		total        int64
		want, wantOf int
	}{
		{1, 2, 5, 1, 3},
		{3, 2, 5, 3, 3},
		{4, 2, 5, 3, 3},
		{0, 2, 5, 1, 3},
		{-7, 2, 5, 1, 3},
		{2, 2, 4, 2, 2},
		{1, 2, 0, 1, 1},
		{5, 2, 0, 1, 1},
	}

	for _, tt := range tests {
		number, numPages := clampPage(tt.page, tt.size, tt.total)
		assert.Equal(t, tt.want, number, "page %d of %d items", tt.page, tt.total)
		assert.Equal(t, tt.wantOf, numPages, "page %d of %d items", tt.page, tt.total)
	}
}
