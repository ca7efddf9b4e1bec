package index

// Posting records the occurrences of one term in one document.
type Posting struct {
	DocID     string
	Frequency int
	Positions []int
}

type PostingList []Posting

// DocIDs returns the document ids of the list in order.
func (pl PostingList) DocIDs() []string {
	out := make([]string, len(pl))
	for i, p := range pl {
		out[i] = p.DocID
	}
	return out
}
