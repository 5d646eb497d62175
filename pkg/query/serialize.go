package query

import (
	"strconv"
	"time"

	"github.com/rhuss/packagefeed/pkg/api"
	"github.com/rhuss/packagefeed/pkg/feed"
)

// Envelope is the outer object of every verbose JSON response.
type Envelope struct {
	D any `json:"d"`
}

// FeedBody is the body of an entity-set or service-operation response.
type FeedBody struct {
	Results []*Entry `json:"results"`
	Count   string   `json:"__count,omitempty"`
	Next    string   `json:"__next,omitempty"`
}

// EntryMetadata is the __metadata object of an entry. Package content is a
// media resource: media_src points at the download address.
type EntryMetadata struct {
	ID          string `json:"id"`
	URI         string `json:"uri"`
	Type        string `json:"type"`
	EditMedia   string `json:"edit_media"`
	MediaSrc    string `json:"media_src"`
	ContentType string `json:"content_type"`
}

// Entry is one package rendered as a feed entry.
type Entry struct {
	Metadata                 EntryMetadata `json:"__metadata"`
	ID                       string        `json:"Id"`
	Version                  string        `json:"Version"`
	NormalizedVersion        string        `json:"NormalizedVersion"`
	Title                    string        `json:"Title"`
	Description              string        `json:"Description"`
	Summary                  string        `json:"Summary"`
	Authors                  string        `json:"Authors"`
	Tags                     string        `json:"Tags"`
	ProjectURL               string        `json:"ProjectUrl"`
	Dependencies             string        `json:"Dependencies"`
	IsPrerelease             bool          `json:"IsPrerelease"`
	IsLatestVersion          bool          `json:"IsLatestVersion"`
	IsAbsoluteLatestVersion  bool          `json:"IsAbsoluteLatestVersion"`
	Listed                   bool          `json:"Listed"`
	DownloadCount            int64         `json:"DownloadCount"`
	VersionDownloadCount     int64         `json:"VersionDownloadCount"`
	PackageSize              int64         `json:"PackageSize"`
	PackageHash              string        `json:"PackageHash"`
	PackageHashAlgorithm     string        `json:"PackageHashAlgorithm"`
	RequireLicenseAcceptance bool          `json:"RequireLicenseAcceptance"`
	Created                  string        `json:"Created"`
	Published                string        `json:"Published"`
	LastUpdated              string        `json:"LastUpdated"`
}

// Entry renders one package for the response to rc.
func (e *Engine) Entry(rc feed.RequestContext, p *api.Package) (*Entry, error) {
	media, err := e.feed.ContentAddress(rc, p)
	if err != nil {
		return nil, err
	}
	self := e.EntityURL(rc, p)
	return &Entry{
		Metadata: EntryMetadata{
			ID:          self,
			URI:         self,
			Type:        api.EntityTypePackage,
			EditMedia:   self + "/$value",
			MediaSrc:    media.String(),
			ContentType: feed.StreamContentType,
		},
		ID:                       p.ID,
		Version:                  p.Version,
		NormalizedVersion:        p.NormalizedVersion,
		Title:                    p.Title,
		Description:              p.Description,
		Summary:                  p.Summary,
		Authors:                  p.Authors,
		Tags:                     p.Tags,
		ProjectURL:               p.ProjectURL,
		Dependencies:             p.DependenciesString(),
		IsPrerelease:             p.IsPrerelease,
		IsLatestVersion:          p.IsLatestVersion,
		IsAbsoluteLatestVersion:  p.IsAbsoluteLatestVersion,
		Listed:                   p.Listed,
		DownloadCount:            p.DownloadCount,
		VersionDownloadCount:     p.VersionDownloadCount,
		PackageSize:              p.PackageSize,
		PackageHash:              p.PackageHash,
		PackageHashAlgorithm:     p.PackageHashAlgorithm,
		RequireLicenseAcceptance: p.RequireLicenseAcceptance,
		Created:                  formatDate(p.Created),
		Published:                formatDate(p.Published),
		LastUpdated:              formatDate(p.LastUpdated),
	}, nil
}

// Feed renders a result page.
func (e *Engine) Feed(rc feed.RequestContext, res *Result, inlineCount bool) (*FeedBody, error) {
	body := &FeedBody{Results: make([]*Entry, 0, len(res.Packages)), Next: res.NextLink}
	for i := range res.Packages {
		entry, err := e.Entry(rc, &res.Packages[i])
		if err != nil {
			return nil, err
		}
		body.Results = append(body.Results, entry)
	}
	if inlineCount {
		body.Count = strconv.Itoa(res.TotalHits)
	}
	return body, nil
}

// EntityURL returns the canonical URL of a package entity.
func (e *Engine) EntityURL(rc feed.RequestContext, p *api.Package) string {
	return e.feed.SiteRoot(rc) + "api/" + e.apiVersion + "/Packages(" + FormatEntityKey(p.ID, p.Version) + ")"
}

// formatDate renders a time in the verbose JSON date form "/Date(ms)/".
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return "/Date(" + strconv.FormatInt(t.UnixMilli(), 10) + ")/"
}
