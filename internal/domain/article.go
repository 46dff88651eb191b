package domain

// ProcessedTag is the slug that marks an article as already enriched.
const ProcessedTag = "processed"

// Tag is a label attached to an article by the read-it-later service.
type Tag struct {
	Label string
	Slug  string
}

// Article is a bookmarked entry fetched from the remote service.
type Article struct {
	ID        string
	URL       string
	OriginURL string
	Title     string
	Content   string
	Tags      []Tag
}

// IsProcessed reports whether the article carries the processed tag.
func IsProcessed(article Article) bool {
	for _, tag := range article.Tags {
		if tag.Slug == ProcessedTag {
			return true
		}
	}
	return false
}

// MergeProcessedTag returns the article's tag slugs followed by the processed
// tag. Existing order is kept and duplicates are dropped. Tags with an empty
// slug are dropped too: the write-back joins slugs with commas and an empty
// element would name no tag.
func MergeProcessedTag(article Article) []string {
	slugs := make([]string, 0, len(article.Tags)+1)
	seen := make(map[string]struct{}, len(article.Tags)+1)
	for _, tag := range article.Tags {
		if tag.Slug == "" {
			continue
		}
		if _, ok := seen[tag.Slug]; ok {
			continue
		}
		seen[tag.Slug] = struct{}{}
		slugs = append(slugs, tag.Slug)
	}
	if _, ok := seen[ProcessedTag]; !ok {
		slugs = append(slugs, ProcessedTag)
	}
	return slugs
}
