package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rhuss/packagefeed/pkg/api"
	"github.com/rhuss/packagefeed/pkg/feed"
	"github.com/rhuss/packagefeed/pkg/query"
	"github.com/rhuss/packagefeed/pkg/transport"
)

// feedHandler serves one feed version.
type feedHandler struct {
	engine              *query.Engine
	trustForwardedProto bool
	logger              *slog.Logger
}

func (h *feedHandler) mount(r chi.Router) {
	r.Get("/", h.handleServiceDocument)
	r.Get("/$metadata", h.handleMetadata)

	r.Get("/Packages", h.handlePackages)
	r.Get("/Packages()", h.handlePackages)
	r.Get("/Packages({key})", h.handlePackage)
	r.Head("/Packages({key})", h.handlePackage)

	r.Get("/Packages({key})/$value", h.handleReadStream)
	r.Put("/Packages({key})/$value", h.handleWriteStream)
	r.Post("/Packages({key})/$value", h.handleWriteStream)
	r.Delete("/Packages({key})/$value", h.handleDeleteStream)

	r.Get("/Search()", h.handleSearch)
	r.Get("/FindPackagesById()", h.handleFindPackagesByID)
}

func (h *feedHandler) config() feed.ServiceConfiguration {
	return h.engine.Service().Configuration()
}

func (h *feedHandler) requestContext(r *http.Request) feed.RequestContext {
	return feed.RequestContextFrom(r, h.trustForwardedProto)
}

// cachePolicy is the output cache evaluator for this feed.
func (h *feedHandler) cachePolicy(r *http.Request) (feed.CacheDirective, time.Time) {
	return h.engine.Service().CachePolicy(h.requestContext(r))
}

// protocolVersion rejects requests written for a newer protocol version than
// the feed speaks and stamps the response version.
func (h *feedHandler) protocolVersion(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := h.config().MaxProtocolVersion()
		for _, name := range []string{"DataServiceVersion", "MinDataServiceVersion"} {
			s := r.Header.Get(name)
			if s == "" {
				continue
			}
			v, ok := feed.ParseProtocolVersion(s)
			if !ok {
				h.writeError(w, api.NewInvalidRequestError(name, "malformed "+name+" header"))
				return
			}
			if v > limit {
				h.writeError(w, api.NewInvalidRequestError(name, name+" "+s+" exceeds the supported version "+limit.String()))
				return
			}
		}
		if s := r.Header.Get("MaxDataServiceVersion"); s != "" {
			if _, ok := feed.ParseProtocolVersion(s); !ok {
				h.writeError(w, api.NewInvalidRequestError("MaxDataServiceVersion", "malformed MaxDataServiceVersion header"))
				return
			}
		}
		w.Header().Set("DataServiceVersion", limit.String()+";")
		next.ServeHTTP(w, r)
	})
}

func (h *feedHandler) handleServiceDocument(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, query.Envelope{D: query.NewServiceDocument(h.config())})
}

func (h *feedHandler) handleMetadata(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", query.MetadataContentType)
	io.WriteString(w, query.Metadata(h.config()))
}

// handlePackages handles GET /Packages.
func (h *feedHandler) handlePackages(w http.ResponseWriter, r *http.Request) {
	if !h.config().EntitySetRights(feed.EntitySetPackages).Has(feed.RightsReadMultiple) {
		h.writeError(w, api.NewNotFoundError("entity set "+feed.EntitySetPackages+" is not readable"))
		return
	}
	h.serveFeed(w, r, h.engine.Packages)
}

// handleSearch handles GET /Search().
func (h *feedHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !h.config().OperationRights(feed.OperationSearch).Has(feed.RightsReadMultiple) {
		h.writeError(w, api.NewNotFoundError("operation "+feed.OperationSearch+" is not available"))
		return
	}
	h.serveFeed(w, r, h.engine.Search)
}

// handleFindPackagesByID handles GET /FindPackagesById().
func (h *feedHandler) handleFindPackagesByID(w http.ResponseWriter, r *http.Request) {
	if !h.config().OperationRights(feed.OperationFindPackagesByID).Has(feed.RightsReadMultiple) {
		h.writeError(w, api.NewNotFoundError("operation "+feed.OperationFindPackagesByID+" is not available"))
		return
	}
	h.serveFeed(w, r, h.engine.FindPackagesByID)
}

type pageFunc func(ctx context.Context, rc feed.RequestContext, opts query.Options) (*query.Result, error)

func (h *feedHandler) serveFeed(w http.ResponseWriter, r *http.Request, page pageFunc) {
	opts, err := query.ParseOptions(r.URL.Query())
	if err != nil {
		h.writeError(w, err)
		return
	}
	rc := h.requestContext(r)
	res, err := page(r.Context(), rc, opts)
	if err != nil {
		h.writeError(w, err)
		return
	}
	transport.AnnotationsFromContext(r.Context()).Paging = res.Provider

	body, err := h.engine.Feed(rc, res, opts.InlineCount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, query.Envelope{D: body})
}

// handlePackage handles GET and HEAD /Packages(Id='x',Version='y').
func (h *feedHandler) handlePackage(w http.ResponseWriter, r *http.Request) {
	if !h.config().EntitySetRights(feed.EntitySetPackages).Has(feed.RightsReadSingle) {
		h.writeError(w, api.NewNotFoundError("entity set "+feed.EntitySetPackages+" is not readable"))
		return
	}
	if _, err := query.ParseOptions(r.URL.Query()); err != nil {
		h.writeError(w, err)
		return
	}
	p, err := h.lookup(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	entry, err := h.engine.Entry(h.requestContext(r), p)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, query.Envelope{D: entry})
}

// handleReadStream handles GET /Packages(...)/$value. The entity must exist;
// its content is never served by the feed itself.
func (h *feedHandler) handleReadStream(w http.ResponseWriter, r *http.Request) {
	p, err := h.lookup(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	sp := h.streams(r)
	rs, err := sp.GetReadStream(p, "", nil)
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer rs.Close()
	w.Header().Set("Content-Type", sp.GetStreamContentType(p))
	io.Copy(w, rs)
}

// handleWriteStream handles PUT and POST /Packages(...)/$value.
func (h *feedHandler) handleWriteStream(w http.ResponseWriter, r *http.Request) {
	p, err := h.lookup(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	ws, err := h.streams(r).GetWriteStream(p, r.Header.Get("If-Match"), nil)
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer ws.Close()
	io.Copy(ws, r.Body)
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteStream handles DELETE /Packages(...)/$value.
func (h *feedHandler) handleDeleteStream(w http.ResponseWriter, r *http.Request) {
	p, err := h.lookup(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.streams(r).DeleteStream(p); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *feedHandler) streams(r *http.Request) feed.StreamProvider {
	sp, _ := h.engine.Service().Capability(feed.CapabilityStream, h.requestContext(r)).(feed.StreamProvider)
	return sp
}

// lookup resolves the entity addressed by the {key} route parameter. chi
// matches the raw path when one exists, so the key may still be escaped.
func (h *feedHandler) lookup(r *http.Request) (*api.Package, error) {
	key, err := url.PathUnescape(chi.URLParam(r, "key"))
	if err != nil {
		return nil, api.NewInvalidRequestError("key", "malformed entity key")
	}
	id, version, err := query.ParseEntityKey(key)
	if err != nil {
		return nil, api.NewInvalidRequestError("key", err.Error())
	}
	return h.engine.Package(r.Context(), id, version)
}

func (h *feedHandler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", FeedContentType)
	json.NewEncoder(w).Encode(v)
}

func (h *feedHandler) writeError(w http.ResponseWriter, err error) {
	apiErr := transport.AsAPIError(err, h.config().VerboseErrors())
	if apiErr.Type == api.ErrorTypeServerError {
		h.logger.Error("feed request failed", "error", err)
	}
	transport.WriteAPIError(w, apiErr)
}
