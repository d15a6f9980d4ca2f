// Package router holds the dashboard's route table.
package router

import "strings"

// View identifies a dashboard view.
type View string

const (
	ViewDashboard View = "Dashboard"
	ViewUpload    View = "Upload"
	ViewModels    View = "Models"
	ViewRules     View = "Rules"
	ViewAudit     View = "Audit"
)

// Route maps a path to a view.
type Route struct {
	Path string `json:"path"`
	Name string `json:"name"`
	View View   `json:"view"`
}

var table = []Route{
	{Path: "/", Name: "Dashboard", View: ViewDashboard},
	{Path: "/upload", Name: "Upload", View: ViewUpload},
	{Path: "/models", Name: "Models", View: ViewModels},
	{Path: "/rules", Name: "Rules", View: ViewRules},
	{Path: "/audit", Name: "Audit", View: ViewAudit},
}

// Routes returns the route table in declaration order.
func Routes() []Route {
	out := make([]Route, len(table))
	copy(out, table)
	return out
}

// Resolve returns the route for path. A single trailing slash is ignored.
// Paths outside the table have no view.
func Resolve(path string) (Route, bool) {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	for _, r := range table {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}
