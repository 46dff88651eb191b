package wallabag

import (
	"encoding/json"

	"WallabagEnhancer/internal/domain"
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

type entriesResponse struct {
	Page     int `json:"page"`
	Limit    int `json:"limit"`
	Pages    int `json:"pages"`
	Total    int `json:"total"`
	Embedded struct {
		Items []entryDTO `json:"items"`
	} `json:"_embedded"`
}

type entryDTO struct {
	ID        json.Number `json:"id"`
	URL       *string     `json:"url"`
	OriginURL *string     `json:"origin_url"`
	Title     *string     `json:"title"`
	Content   *string     `json:"content"`
	Tags      []tagDTO    `json:"tags"`
}

type tagDTO struct {
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

func (e entryDTO) toDomain() domain.Article {
	tags := make([]domain.Tag, 0, len(e.Tags))
	for _, t := range e.Tags {
		tags = append(tags, domain.Tag{Label: t.Label, Slug: t.Slug})
	}
	return domain.Article{
		ID:        e.ID.String(),
		URL:       deref(e.URL),
		OriginURL: deref(e.OriginURL),
		Title:     deref(e.Title),
		Content:   deref(e.Content),
		Tags:      tags,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
