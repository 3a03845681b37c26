package view

// IPv4Pattern is the dotted-quad pattern put on the search input
// The browser enforces it; the server never rejects a query because of it
const IPv4Pattern = `^(25[0-5]|2[0-4][0-9]|1[0-9]{2}|[1-9]?[0-9])\.(25[0-5]|2[0-4][0-9]|1[0-9]{2}|[1-9]?[0-9])\.(25[0-5]|2[0-4][0-9]|1[0-9]{2}|[1-9]?[0-9])\.(25[0-5]|2[0-4][0-9]|1[0-9]{2}|[1-9]?[0-9])$`

// SearchForm is the search box at the top of the page
type SearchForm struct {
	Value       string // current text of the input
	Placeholder string
	Pattern     string
	Title       string
}

// NewSearchForm returns the form with the given input text
func NewSearchForm(value string) SearchForm {
	return SearchForm{
		Value:       value,
		Placeholder: "Search for any IP address or domain",
		Pattern:     IPv4Pattern,
		Title:       "Eg. 8.8.8.8",
	}
}

// Submit hands a non-empty value to onSubmit and clears the input
// Empty input is ignored and false is returned
func (f *SearchForm) Submit(onSubmit func(query string)) bool {
	if f.Value == "" {
		return false
	}
	query := f.Value
	f.Value = ""
	onSubmit(query)
	return true
}
