// Package catalog defines the Game Pass catalog domain types and the
// upstream clients that fetch them.
package catalog

// Game is a localized product record returned by the marketplace.
type Game struct {
	ProductID          string            `json:"productId"`
	ProductTitle       string            `json:"productTitle"`
	ProductDescription string            `json:"productDescription,omitempty"`
	DeveloperName      string            `json:"developerName,omitempty"`
	PublisherName      string            `json:"publisherName,omitempty"`
	ShortTitle         string            `json:"shortTitle,omitempty"`
	SortTitle          string            `json:"sortTitle,omitempty"`
	ShortDescription   string            `json:"shortDescription,omitempty"`
	ImageDescriptors   []ImageDescriptor `json:"imageDescriptors,omitempty"`
}

// ImageDescriptor describes one image asset attached to a product.
// Width and height may be zero when the marketplace omits them.
type ImageDescriptor struct {
	FileID       string `json:"fileId"`
	Height       int    `json:"height,omitempty"`
	Width        int    `json:"width,omitempty"`
	URI          string `json:"uri"`
	Purpose      string `json:"imagePurpose"`
	PositionInfo string `json:"imagePositionInfo,omitempty"`
}

// GameStub is the compact record forwarded to the downstream metadata
// service after a crawl.
type GameStub struct {
	ProductID    string `json:"productId"`
	ProductTitle string `json:"productTitle"`
	ShortTitle   string `json:"shortTitle"`
	SortTitle    string `json:"sortTitle"`
}

// Stub projects a Game down to the fields the metadata service consumes.
func (g Game) Stub() GameStub {
	return GameStub{
		ProductID:    g.ProductID,
		ProductTitle: g.ProductTitle,
		ShortTitle:   g.ShortTitle,
		SortTitle:    g.SortTitle,
	}
}
