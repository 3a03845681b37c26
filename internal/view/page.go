package view

import "github.com/evyataryagoni/iptracker/internal/tracker"

// Page is everything the tracker page template renders
type Page struct {
	Title   string
	Loading string
	Form    SearchForm
	Results ResultsStrip
	Map     MapView
}

// NewPage assembles the page from the tracker state and the form input
func NewPage(state tracker.State, form SearchForm) Page {
	return Page{
		Title:   "IP Address Tracker",
		Loading: LoadingText,
		Form:    form,
		Results: NewResultsStrip(state),
		Map:     NewMapView(state.Result),
	}
}
