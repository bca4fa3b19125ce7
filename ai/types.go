package ai

// EntityKinds defines the labels the classifier uses for extracted entities.
var EntityKinds = []string{
	"Person",
	"Org",
	"Location",
	"Date",
	"Product",
	"Other",
}

// MaxEmbedChars bounds the text length submitted to the embedding service.
// Longer inputs are truncated; the title+summary pair embedded for documents
// rarely approaches this.
const MaxEmbedChars = 1000
