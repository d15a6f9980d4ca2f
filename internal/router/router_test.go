package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		path   string
		want   View
		wantOK bool
	}{
		{"/", ViewDashboard, true},
		{"/upload", ViewUpload, true},
		{"/upload/", ViewUpload, true},
		{"/models", ViewModels, true},
		{"/rules", ViewRules, true},
		{"/audit", ViewAudit, true},
		{"/Upload", "", false},
		{"/settings", "", false},
		{"/models/retina-dr-v2", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := Resolve(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.View)
		})
	}
}

func TestRoutes(t *testing.T) {
	routes := Routes()
	assert.Len(t, routes, 5)

	paths := make([]string, 0, len(routes))
	for _, r := range routes {
		paths = append(paths, r.Path)
	}
	assert.Equal(t, []string{"/", "/upload", "/models", "/rules", "/audit"}, paths)

	routes[0].Path = "/changed"
	_, ok := Resolve("/")
	assert.True(t, ok)
}
