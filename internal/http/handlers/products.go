package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stocklane/stocklane/internal/config"
	"github.com/stocklane/stocklane/internal/domain/product"
	"github.com/stocklane/stocklane/internal/http/middlewares"
	"github.com/stocklane/stocklane/internal/repo/postgres"
	"github.com/stocklane/stocklane/internal/storage"
)

type ProductsStore interface {
	Create(ctx context.Context, p product.Product) (product.Product, error)
	GetByID(ctx context.Context, id, owner string) (product.Product, error)
	ListByOwner(ctx context.Context, owner string) ([]product.Product, error)
	Update(ctx context.Context, id, owner string, req product.UpdateProductRequest) (product.Product, error)
	Delete(ctx context.Context, id, owner string) error
}

type ImageAcceptor interface {
	Accept(ctx context.Context, fh *multipart.FileHeader) (string, error)
}

type ProductsHandler struct {
	repo    ProductsStore
	uploads ImageAcceptor
}

func NewProductsHandler(repo ProductsStore, uploads ImageAcceptor) *ProductsHandler {
	return &ProductsHandler{
		repo:    repo,
		uploads: uploads,
	}
}

// acceptImage stores the optional image part. A missing part is not an
// error; an unreadable part or a rejected file maps to a 400 distinct
// from data-part errors.
func (h *ProductsHandler) acceptImage(ctx *gin.Context) (*string, bool) {
	fh, err := ctx.FormFile("image")

	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, true
		}

		RespondBadRequest(ctx, "Invalid image part", nil)

		return nil, false
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	url, err := h.uploads.Accept(cctx, fh)

	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotImage):
			RespondError(ctx, http.StatusBadRequest, "bad_image", "File must be an image (.jpg, .jpeg, .png).", nil)
		case errors.Is(err, storage.ErrTooLarge):
			RespondError(ctx, http.StatusBadRequest, "bad_image", "Image must not exceed 2MB.", nil)
		default:
			RespondInternal(ctx, "Could not store image")
		}

		return nil, false
	}

	return &url, true
}

func (h *ProductsHandler) CreateProduct(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing or invalid access token")
		return
	}

	raw := ctx.PostForm("data")

	if raw == "" {
		RespondBadRequest(ctx, "Missing data field", nil)
		return
	}

	var req product.CreateProductRequest

	if !BindDataPart(ctx, raw, &req) {
		return
	}

	imageURL, ok := h.acceptImage(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	created, err := h.repo.Create(cctx, product.NewFromCreateRequest(req, ownerID, imageURL))

	if err != nil {
		RespondInternal(ctx, "Could not create product")
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (h *ProductsHandler) ListProducts(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing or invalid access token")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	products, err := h.repo.ListByOwner(cctx, ownerID)

	if err != nil {
		RespondInternal(ctx, "Could not list products")
		return
	}

	ctx.JSON(http.StatusOK, products)
}

func (h *ProductsHandler) GetProductByID(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing or invalid access token")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	p, err := h.repo.GetByID(cctx, ctx.Param("id"), ownerID)

	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			RespondNotFound(ctx, "Product not found")
			return
		}

		RespondInternal(ctx, "Could not fetch product")
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *ProductsHandler) UpdateProduct(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing or invalid access token")
		return
	}

	raw := ctx.PostForm("data")

	if raw == "" {
		RespondBadRequest(ctx, "Missing data field", nil)
		return
	}

	var req product.UpdateProductRequest

	if !BindDataPart(ctx, raw, &req) {
		return
	}

	imageURL, ok := h.acceptImage(ctx)

	if !ok {
		return
	}

	// a freshly stored image joins the patch; the replaced file stays
	// behind in the blob store
	if imageURL != nil {
		req.ImageURL = imageURL
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	updated, err := h.repo.Update(cctx, ctx.Param("id"), ownerID, req)

	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			RespondNotFound(ctx, "Product not found")
			return
		}

		RespondInternal(ctx, "Could not update product")
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *ProductsHandler) DeleteProduct(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing or invalid access token")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, ctx.Param("id"), ownerID)

	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			RespondNotFound(ctx, "Product not found")
			return
		}

		RespondInternal(ctx, "Could not delete product")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}
