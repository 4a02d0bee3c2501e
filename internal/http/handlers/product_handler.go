// Product HTTP handlers.
//
// This file exposes read-only REST endpoints for the lending product catalog:
//   - GET /products                     (full catalog)
//   - GET /products/{id}                (one product)
//   - GET /conversations/{id}/products  (products currently displayed for a conversation)
//
// The catalog is immutable at runtime, so /products responses carry a weak
// ETag derived from the catalog content and support If-None-Match.
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Edmonddmeng/compass-advisor/internal/catalog"
	"github.com/Edmonddmeng/compass-advisor/internal/services"
)

// ListProductsResponse wraps the catalog listing.
type ListProductsResponse struct {
	Products []catalog.Product `json:"products"`
	Total    int               `json:"total"`
}

// catalogETag builds a weak ETag from the catalog's product ids. The catalog
// never changes within a process lifetime, so id identity is sufficient.
func catalogETag(cat *catalog.Catalog) string {
	return fmt.Sprintf(`W/"products:%d:%s"`, cat.Len(), strings.Join(cat.IDs(), ","))
}

// ListProducts godoc
// @ID          listProducts
// @Summary     List the product catalog
// @Description Returns every lending product the advisor can recommend.
// @Tags        Products
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {object} handlers.ListProductsResponse
// @Header      200  {string} ETag "Weak ETag for the catalog"
// @Success     304  {string} string "Not Modified"
// @Router      /products [get]
func (h *Handlers) ListProducts(c *gin.Context) {
	etag := catalogETag(h.catalog)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return
	}
	ok(c, http.StatusOK, ListProductsResponse{
		Products: h.catalog.Products(),
		Total:    h.catalog.Len(),
	})
}

// GetProduct godoc
// @ID          getProduct
// @Summary     Fetch one product
// @Description Returns a single lending product by its catalog id.
// @Tags        Products
// @Produce     json
//
// @Param       id  path  string  true  "Product ID"  example(bridge-fix-flip)
//
// @Success     200  {object} catalog.Product
// @Failure     404  {object} handlers.ErrorResponse "Product not found"
// @Router      /products/{id} [get]
func (h *Handlers) GetProduct(c *gin.Context) {
	p, found := h.catalog.Get(c.Param("id"))
	if !found {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "product not found")
		return
	}
	ok(c, http.StatusOK, p)
}

// ConversationProducts godoc
// @ID          conversationProducts
// @Summary     List the products displayed for a conversation
// @Description Returns the product set the client should currently show: the matched product after a recommendation, the full catalog otherwise.
// @Tags        Products
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Conversation ID (UUID)" format(uuid)
//
// @Success     200  {object} handlers.ListProductsResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Conversation not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /conversations/{id}/products [get]
func (h *Handlers) ConversationProducts(c *gin.Context) {
	conversationID := c.Param("id")
	if _, err := uuid.Parse(conversationID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}

	products, err := h.advSvc.Displayed(c.Request.Context(), userID(c), conversationID)
	if err != nil {
		switch err {
		case services.ErrConversationNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, ListProductsResponse{Products: products, Total: len(products)})
}
