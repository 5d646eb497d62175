package query

import (
	"strings"

	"github.com/rhuss/packagefeed/pkg/feed"
)

// ServiceDocument is the body of the service root.
type ServiceDocument struct {
	EntitySets []string `json:"EntitySets"`
}

// NewServiceDocument lists the entity sets readable under cfg.
func NewServiceDocument(cfg feed.ServiceConfiguration) *ServiceDocument {
	doc := &ServiceDocument{EntitySets: []string{}}
	if cfg.EntitySetRights(feed.EntitySetPackages).Has(feed.RightsReadMultiple) {
		doc.EntitySets = append(doc.EntitySets, feed.EntitySetPackages)
	}
	return doc
}

// MetadataContentType is the media type of the $metadata document.
const MetadataContentType = "application/xml;charset=utf-8"

// Metadata returns the EDMX document describing the feed.
func Metadata(cfg feed.ServiceConfiguration) string {
	return strings.ReplaceAll(metadataTemplate, "{{version}}", cfg.MaxProtocolVersion().String())
}

const metadataTemplate = `<?xml version="1.0" encoding="utf-8" standalone="yes"?>
<edmx:Edmx Version="1.0" xmlns:edmx="http://schemas.microsoft.com/ado/2007/06/edmx">
  <edmx:DataServices xmlns:m="http://schemas.microsoft.com/ado/2007/08/dataservices/metadata" m:DataServiceVersion="{{version}}">
    <Schema Namespace="NuGetGallery" xmlns="http://schemas.microsoft.com/ado/2006/04/edm">
      <EntityType Name="V2FeedPackage" m:HasStream="true">
        <Key>
          <PropertyRef Name="Id" />
          <PropertyRef Name="Version" />
        </Key>
        <Property Name="Id" Type="Edm.String" Nullable="false" />
        <Property Name="Version" Type="Edm.String" Nullable="false" />
        <Property Name="NormalizedVersion" Type="Edm.String" />
        <Property Name="Title" Type="Edm.String" />
        <Property Name="Description" Type="Edm.String" />
        <Property Name="Summary" Type="Edm.String" />
        <Property Name="Authors" Type="Edm.String" />
        <Property Name="Tags" Type="Edm.String" />
        <Property Name="ProjectUrl" Type="Edm.String" />
        <Property Name="Dependencies" Type="Edm.String" />
        <Property Name="IsPrerelease" Type="Edm.Boolean" Nullable="false" />
        <Property Name="IsLatestVersion" Type="Edm.Boolean" Nullable="false" />
        <Property Name="IsAbsoluteLatestVersion" Type="Edm.Boolean" Nullable="false" />
        <Property Name="Listed" Type="Edm.Boolean" Nullable="false" />
        <Property Name="DownloadCount" Type="Edm.Int64" Nullable="false" />
        <Property Name="VersionDownloadCount" Type="Edm.Int64" Nullable="false" />
        <Property Name="PackageSize" Type="Edm.Int64" Nullable="false" />
        <Property Name="PackageHash" Type="Edm.String" />
        <Property Name="PackageHashAlgorithm" Type="Edm.String" />
        <Property Name="RequireLicenseAcceptance" Type="Edm.Boolean" Nullable="false" />
        <Property Name="Created" Type="Edm.DateTime" Nullable="false" />
        <Property Name="Published" Type="Edm.DateTime" Nullable="false" />
        <Property Name="LastUpdated" Type="Edm.DateTime" Nullable="false" />
      </EntityType>
      <EntityContainer Name="FeedContext" m:IsDefaultEntityContainer="true">
        <EntitySet Name="Packages" EntityType="NuGetGallery.V2FeedPackage" />
        <FunctionImport Name="Search" EntitySet="Packages" ReturnType="Collection(NuGetGallery.V2FeedPackage)" m:HttpMethod="GET">
          <Parameter Name="searchTerm" Type="Edm.String" FixedLength="false" Unicode="false" />
          <Parameter Name="targetFramework" Type="Edm.String" FixedLength="false" Unicode="false" />
          <Parameter Name="includePrerelease" Type="Edm.Boolean" Nullable="false" />
        </FunctionImport>
        <FunctionImport Name="FindPackagesById" EntitySet="Packages" ReturnType="Collection(NuGetGallery.V2FeedPackage)" m:HttpMethod="GET">
          <Parameter Name="id" Type="Edm.String" FixedLength="false" Unicode="false" />
        </FunctionImport>
      </EntityContainer>
    </Schema>
  </edmx:DataServices>
</edmx:Edmx>
`
