package domain

// Enrichment holds the optional fields an enhancer contributes to an update.
// A nil field means "leave unchanged".
type Enrichment struct {
	OriginURL *string
	Content   *string
}

// Merge overlays next on top of e. Fields set in next win.
func (e Enrichment) Merge(next Enrichment) Enrichment {
	if next.OriginURL != nil {
		e.OriginURL = next.OriginURL
	}
	if next.Content != nil {
		e.Content = next.Content
	}
	return e
}

// IsZero reports whether no field is set.
func (e Enrichment) IsZero() bool {
	return e.OriginURL == nil && e.Content == nil
}

// Payload is the write-back body for one article. Tags is the full
// replacement set; the service overwrites rather than merges.
type Payload struct {
	Tags []string
	Enrichment
}

// StringPtr is a helper for building enrichments.
func StringPtr(v string) *string {
	return &v
}
