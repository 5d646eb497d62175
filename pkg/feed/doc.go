// Package feed implements the policy layer of the package feed endpoint.
//
// Four responsibilities compose around one inbound request:
//
//   - The capability gate ([Service.Capability]) declares which protocol
//     operations are supported. Binary-stream operations are always rejected
//     with [ErrUnsupportedOperation]; package content is addressed through a
//     [ContentAddresser] and served elsewhere.
//   - The paging selector ([SelectPaging]) picks default, repository-driven
//     paging or search-engine paging for each request.
//   - The cache policy ([EvaluateCachePolicy]) decides whether a response may
//     be cached and builds the [CacheDirective] applied to it.
//   - The link resolver ([LinkResolver]) computes the externally visible site
//     root used in absolute links.
//
// Everything here is pure and synchronous. Request data is passed explicitly
// as a [RequestContext]; nothing reads ambient request state.
package feed
