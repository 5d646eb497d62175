package feed

import (
	"strconv"
	"strings"

	"github.com/rhuss/packagefeed/pkg/search"
)

// Rights is a bit set of access rights on a feed resource.
type Rights int

const (
	RightsNone         Rights = 0
	RightsReadSingle   Rights = 1 << 0
	RightsReadMultiple Rights = 1 << 1
	RightsWriteAppend  Rights = 1 << 2
	RightsWriteReplace Rights = 1 << 3
	RightsWriteDelete  Rights = 1 << 4
	RightsWriteMerge   Rights = 1 << 5

	AllRead  = RightsReadSingle | RightsReadMultiple
	AllWrite = RightsWriteAppend | RightsWriteReplace | RightsWriteDelete | RightsWriteMerge
)

// Has reports whether r includes every right in want.
func (r Rights) Has(want Rights) bool {
	return want != RightsNone && r&want == want
}

// ProtocolVersion is a data service protocol version.
type ProtocolVersion int

const (
	V1 ProtocolVersion = 1
	V2 ProtocolVersion = 2
)

func (v ProtocolVersion) String() string {
	return strconv.Itoa(int(v)) + ".0"
}

// ParseProtocolVersion parses a DataServiceVersion header value such as
// "2.0" or "1.0;NetFx". Only the major version is significant.
func ParseProtocolVersion(s string) (ProtocolVersion, bool) {
	s, _, _ = strings.Cut(s, ";")
	major, _, _ := strings.Cut(strings.TrimSpace(s), ".")
	n, err := strconv.Atoi(major)
	if err != nil || n < 1 {
		return 0, false
	}
	return ProtocolVersion(n), true
}

// Resource names configured by InitializeService.
const (
	EntitySetPackages         = "Packages"
	OperationSearch           = "Search"
	OperationFindPackagesByID = "FindPackagesById"
)

// ServiceConfiguration holds the access rules and limits established once at
// startup. It is read-only after InitializeService returns.
type ServiceConfiguration struct {
	operationRights    map[string]Rights
	entitySetRights    map[string]Rights
	entitySetPageSizes map[string]int

	maxProtocolVersion ProtocolVersion
	verboseErrors      bool
}

// InitializeService builds the feed's service configuration.
func InitializeService() ServiceConfiguration {
	return ServiceConfiguration{
		operationRights: map[string]Rights{
			OperationSearch:           AllRead,
			OperationFindPackagesByID: AllRead,
		},
		entitySetRights: map[string]Rights{
			EntitySetPackages: AllRead,
		},
		entitySetPageSizes: map[string]int{
			EntitySetPackages: search.MaxPageSize,
		},
		maxProtocolVersion: V2,
		verboseErrors:      true,
	}
}

// OperationRights returns the rights on a service operation, RightsNone when
// the operation is not exposed.
func (c ServiceConfiguration) OperationRights(name string) Rights {
	return c.operationRights[name]
}

// EntitySetRights returns the rights on an entity set, RightsNone when the
// set is not exposed.
func (c ServiceConfiguration) EntitySetRights(name string) Rights {
	return c.entitySetRights[name]
}

// EntitySetPageSize returns the server page size of an entity set, 0 when
// unbounded.
func (c ServiceConfiguration) EntitySetPageSize(name string) int {
	return c.entitySetPageSizes[name]
}

// MaxProtocolVersion returns the highest protocol version served.
func (c ServiceConfiguration) MaxProtocolVersion() ProtocolVersion {
	return c.maxProtocolVersion
}

// VerboseErrors reports whether error responses carry internal detail.
func (c ServiceConfiguration) VerboseErrors() bool {
	return c.verboseErrors
}
