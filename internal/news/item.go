package news

import "fmt"

// Item is one headline scraped from the listing page.
type Item struct {
	Title  string `json:"title"`
	Credit string `json:"credit"`
	URL    string `json:"url"`
}

// IsExpert reports whether the item links to the expert article layout.
func (i Item) IsExpert() bool {
	return containsAny(i.URL, []string{"expert"})
}

func (i Item) String() string {
	return fmt.Sprintf("%s (%s) %s", i.Title, i.Credit, i.URL)
}
