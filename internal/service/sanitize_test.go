package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  Two rooms  ", "Two rooms"},
		{"tags stripped", "<b>bold</b> move", "bold move"},
		{"script dropped with its content", "<script>alert(1)</script>hi", "hi"},
		{"ampersand kept", "Tom & Jerry", "Tom & Jerry"},
		{"comparison kept", "a < b", "a < b"},
		{"typed entity is decoded", "5 &gt; 3", "5 > 3"},
		{"escaped tags don't come back", "&lt;b&gt;bold&lt;/b&gt;", "bold"},
		{"double escaped tags don't come back", "&amp;lt;i&amp;gt;x&amp;lt;/i&amp;gt;", "x"},
		{"non-ascii", "Стул <i>дубовый</i>", "Стул дубовый"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanText(tt.in))
		})
	}
}
