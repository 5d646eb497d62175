package api

import (
	"strings"
	"time"
)

// EntityTypePackage is the entity type name of feed entries.
const EntityTypePackage = "NuGetGallery.V2FeedPackage"

// Package is one version of a package as exposed by the feed. Field names
// follow the V2 feed wire format.
type Package struct {
	ID                       string       `json:"Id"`
	Version                  string       `json:"Version"`
	NormalizedVersion        string       `json:"NormalizedVersion"`
	Title                    string       `json:"Title,omitempty"`
	Description              string       `json:"Description,omitempty"`
	Summary                  string       `json:"Summary,omitempty"`
	Authors                  string       `json:"Authors,omitempty"`
	Tags                     string       `json:"Tags,omitempty"`
	ProjectURL               string       `json:"ProjectUrl,omitempty"`
	Dependencies             []Dependency `json:"DependencySet,omitempty"`
	IsPrerelease             bool         `json:"IsPrerelease"`
	IsLatestVersion          bool         `json:"IsLatestVersion"`
	IsAbsoluteLatestVersion  bool         `json:"IsAbsoluteLatestVersion"`
	Listed                   bool         `json:"Listed"`
	DownloadCount            int64        `json:"DownloadCount"`
	VersionDownloadCount     int64        `json:"VersionDownloadCount"`
	PackageSize              int64        `json:"PackageSize"`
	PackageHash              string       `json:"PackageHash,omitempty"`
	PackageHashAlgorithm     string       `json:"PackageHashAlgorithm,omitempty"`
	Created                  time.Time    `json:"Created"`
	Published                time.Time    `json:"Published"`
	LastUpdated              time.Time    `json:"LastUpdated"`
	RequireLicenseAcceptance bool         `json:"RequireLicenseAcceptance"`
}

// Dependency is a dependency declared by a package version.
type Dependency struct {
	ID              string `json:"id"`
	VersionSpec     string `json:"version_spec,omitempty"`
	TargetFramework string `json:"target_framework,omitempty"`
}

// DependenciesString renders dependencies in the flattened
// "id:range:framework|id:range:framework" form used by the V2 feed.
func (p *Package) DependenciesString() string {
	parts := make([]string, 0, len(p.Dependencies))
	for _, d := range p.Dependencies {
		parts = append(parts, d.ID+":"+d.VersionSpec+":"+d.TargetFramework)
	}
	return strings.Join(parts, "|")
}
