package view

import "github.com/evyataryagoni/iptracker/internal/tracker"

// LoadingText is shown for every field that has no value yet
const LoadingText = "Loading..."

// Field is one labelled value of the results strip
type Field struct {
	ID    int
	Name  string
	Value string // empty until known
}

// Last reports whether this is the final field (no separator after it)
func (f Field) Last() bool {
	return f.Name == "ISP"
}

// ResultsStrip is the white box under the search form
// When Error is set only the error is shown, never stale fields
type ResultsStrip struct {
	Error  string
	Fields []Field
}

// NewResultsStrip builds the strip from the tracker state
func NewResultsStrip(state tracker.State) ResultsStrip {
	var ip, region, timezone, isp string
	if r := state.Result; r != nil {
		ip = r.IP
		region = r.Location.Region
		timezone = r.Location.Timezone
		isp = r.ISP
	}

	return ResultsStrip{
		Error: state.Error,
		Fields: []Field{
			{ID: 1, Name: "IP ADDRESS", Value: ip},
			{ID: 2, Name: "LOCATION", Value: region},
			{ID: 3, Name: "TIMEZONE", Value: timezone},
			{ID: 4, Name: "ISP", Value: isp},
		},
	}
}
