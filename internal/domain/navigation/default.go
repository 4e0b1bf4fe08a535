package navigation

// DefaultRoutes returns the application's route declarations.
func DefaultRoutes() []Route {
	return []Route{
		{
			Path:   "",
			Layout: LayoutNavbar,
			Children: []Route{
				{Path: "library", View: ViewLibraryOverview},
				{Path: "games", View: ViewNotImplemented},
				{Path: "info", View: ViewNotImplemented},
				{Path: "config", View: ViewNotImplemented},
				{Path: "", RedirectTo: "/library", PathMatch: PathMatchFull},
			},
		},
		{
			Path:   "",
			Layout: LayoutFullpage,
			Children: []Route{
				{Path: "login", View: ViewLogin},
				{Path: "", RedirectTo: "/login", PathMatch: PathMatchFull},
			},
		},
		{Path: Wildcard, View: ViewPageNotFound},
	}
}

// Default returns the application's route table.
func Default() *Table {
	t, err := New(DefaultRoutes()...)
	if err != nil {
		panic("navigation: invalid default routes: " + err.Error())
	}
	return t
}
