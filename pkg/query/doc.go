// Package query turns feed requests into pages of packages and renders them
// as OData verbose JSON.
//
// The supported grammar is deliberately small: $top, $skip, $skiptoken,
// $orderby (one property), $inlinecount, a few $filter shapes, and the
// searchTerm, targetFramework, includePrerelease and id parameters of the
// Search and FindPackagesById service operations.
package query
