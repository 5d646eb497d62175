package feed

import (
	"errors"
	"net/url"

	"github.com/rhuss/packagefeed/pkg/api"
)

// ContentAddresser maps a package entity to the URL its content is
// downloaded from. Every feed must supply one.
type ContentAddresser interface {
	ContentAddress(rc RequestContext, pkg *api.Package) (*url.URL, error)
}

// DownloadContent addresses package content under the site root at
// api/{APIVersion}/package/{Id}/{Version}.
type DownloadContent struct {
	Links      *LinkResolver
	APIVersion string
}

// V1Content addresses content through the v1 download route.
func V1Content(links *LinkResolver) *DownloadContent {
	return &DownloadContent{Links: links, APIVersion: "v1"}
}

// V2Content addresses content through the v2 download route.
func V2Content(links *LinkResolver) *DownloadContent {
	return &DownloadContent{Links: links, APIVersion: "v2"}
}

// ContentAddress implements ContentAddresser.
func (c *DownloadContent) ContentAddress(rc RequestContext, pkg *api.Package) (*url.URL, error) {
	if pkg == nil || pkg.ID == "" || pkg.Version == "" {
		return nil, errors.New("content address requires package id and version")
	}
	root, err := url.Parse(c.Links.SiteRoot(rc))
	if err != nil {
		return nil, err
	}
	return root.JoinPath("api", c.APIVersion, "package", pkg.ID, pkg.Version), nil
}
