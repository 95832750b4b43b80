package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/stocklane/stocklane/internal/auth"
	"github.com/stocklane/stocklane/internal/domain/product"
	"github.com/stocklane/stocklane/internal/http/handlers"
	"github.com/stocklane/stocklane/internal/http/middlewares"
	"github.com/stocklane/stocklane/internal/repo/postgres"
	"github.com/stocklane/stocklane/internal/storage"
)

type fakeProductsStore struct {
	create      func(ctx context.Context, p product.Product) (product.Product, error)
	getByID     func(ctx context.Context, id, owner string) (product.Product, error)
	listByOwner func(ctx context.Context, owner string) ([]product.Product, error)
	update      func(ctx context.Context, id, owner string, req product.UpdateProductRequest) (product.Product, error)
	deleteFn    func(ctx context.Context, id, owner string) error
}

func (f *fakeProductsStore) Create(ctx context.Context, p product.Product) (product.Product, error) {
	return f.create(ctx, p)
}

func (f *fakeProductsStore) GetByID(ctx context.Context, id, owner string) (product.Product, error) {
	return f.getByID(ctx, id, owner)
}

func (f *fakeProductsStore) ListByOwner(ctx context.Context, owner string) ([]product.Product, error) {
	return f.listByOwner(ctx, owner)
}

func (f *fakeProductsStore) Update(ctx context.Context, id, owner string, req product.UpdateProductRequest) (product.Product, error) {
	return f.update(ctx, id, owner, req)
}

func (f *fakeProductsStore) Delete(ctx context.Context, id, owner string) error {
	return f.deleteFn(ctx, id, owner)
}

type fakeAcceptor struct {
	url    string
	err    error
	called bool
}

func (f *fakeAcceptor) Accept(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	f.called = true
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func newProductsTestRouter(store handlers.ProductsStore, uploads handlers.ImageAcceptor) *gin.Engine {
	gin.SetMode(gin.TestMode)

	verifier := &staticVerifier{
		claims: &auth.Claims{
			Email:            "owner@example.com",
			RegisteredClaims: jwt.RegisteredClaims{Subject: "owner-1"},
		},
	}

	r := gin.New()
	h := handlers.NewProductsHandler(store, uploads)
	mw := middlewares.NewAuthMiddleware(verifier)

	grp := r.Group("/products", mw.RequireAuth())
	grp.POST("", h.CreateProduct)
	grp.GET("", h.ListProducts)
	grp.GET("/:id", h.GetProductByID)
	grp.PUT("/:id", h.UpdateProduct)
	grp.DELETE("/:id", h.DeleteProduct)

	return r
}

// multipartBody builds the data-part plus optional image form the
// product endpoints consume.
func multipartBody(t *testing.T, data string, withImage bool) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if data != "" {
		if err := w.WriteField("data", data); err != nil {
			t.Fatalf("write data field: %v", err)
		}
	}

	if withImage {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="photo.png"`)
		h.Set("Content-Type", "image/png")

		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("create image part: %v", err)
		}
		if _, err := part.Write([]byte("png-bytes")); err != nil {
			t.Fatalf("write image part: %v", err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	return &body, w.FormDataContentType()
}

func doMultipart(t *testing.T, r *gin.Engine, method, path, data string, withImage bool) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartBody(t, data, withImage)

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

const validProductData = `{"name":"Office Chair","category":"furniture","price":119.5,"stock":4,"unit":"piece"}`

func TestCreateProductWithoutImage(t *testing.T) {
	var stored product.Product

	store := &fakeProductsStore{
		create: func(ctx context.Context, p product.Product) (product.Product, error) {
			stored = p
			return p, nil
		},
	}
	uploads := &fakeAcceptor{}
	r := newProductsTestRouter(store, uploads)

	w := doMultipart(t, r, "POST", "/products", validProductData, false)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, want 201: %s", w.Code, w.Body.String())
	}
	if uploads.called {
		t.Error("no image part was sent, the acceptor must not run")
	}
	if stored.OwnerID != "owner-1" {
		t.Errorf("got owner %q, want the token subject", stored.OwnerID)
	}
	if !stored.IsActive {
		t.Error("is_active must default to true when omitted")
	}
	if stored.ImageURL != nil {
		t.Errorf("got image_url %v, want nil", *stored.ImageURL)
	}
}

func TestCreateProductIgnoresClientImageURL(t *testing.T) {
	var stored product.Product

	store := &fakeProductsStore{
		create: func(ctx context.Context, p product.Product) (product.Product, error) {
			stored = p
			return p, nil
		},
	}
	r := newProductsTestRouter(store, &fakeAcceptor{})

	data := `{"name":"Office Chair","category":"furniture","price":119.5,"stock":4,"unit":"piece","image_url":"http://elsewhere.example/spoofed.png"}`
	w := doMultipart(t, r, "POST", "/products", data, false)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, want 201: %s", w.Code, w.Body.String())
	}
	if stored.ImageURL != nil {
		t.Errorf("got image_url %q, want nil: only uploaded files set it", *stored.ImageURL)
	}
}

func TestCreateProductRequiresMultipart(t *testing.T) {
	created := false
	store := &fakeProductsStore{
		create: func(ctx context.Context, p product.Product) (product.Product, error) {
			created = true
			return p, nil
		},
	}
	r := newProductsTestRouter(store, &fakeAcceptor{})

	form := url.Values{}
	form.Set("data", validProductData)

	req := httptest.NewRequest("POST", "/products", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400: %s", w.Code, w.Body.String())
	}
	if created {
		t.Error("a non-multipart body must not produce a product")
	}
}

func TestCreateProductStoresImageURL(t *testing.T) {
	var stored product.Product

	store := &fakeProductsStore{
		create: func(ctx context.Context, p product.Product) (product.Product, error) {
			stored = p
			return p, nil
		},
	}
	uploads := &fakeAcceptor{url: "http://localhost:8080/uploads/20260830120000_photo.png"}
	r := newProductsTestRouter(store, uploads)

	w := doMultipart(t, r, "POST", "/products", validProductData, true)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, want 201: %s", w.Code, w.Body.String())
	}
	if !uploads.called {
		t.Fatal("acceptor never ran")
	}
	if stored.ImageURL == nil || *stored.ImageURL != uploads.url {
		t.Errorf("got image_url %v, want %q", stored.ImageURL, uploads.url)
	}
}

func TestCreateProductDataErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "missing_data_field", data: ""},
		{name: "malformed_json", data: `{"name":`},
		{name: "zero_price", data: `{"name":"Chair","category":"furniture","price":0,"stock":1,"unit":"piece"}`},
		{name: "negative_stock", data: `{"name":"Chair","category":"furniture","price":10,"stock":-1,"unit":"piece"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newProductsTestRouter(&fakeProductsStore{}, &fakeAcceptor{})

			w := doMultipart(t, r, "POST", "/products", tt.data, false)

			if w.Code != http.StatusBadRequest {
				t.Errorf("got status %d, want 400: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestCreateProductRejectedImage(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "not_an_image", err: storage.ErrNotImage},
		{name: "too_large", err: storage.ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created := false
			store := &fakeProductsStore{
				create: func(ctx context.Context, p product.Product) (product.Product, error) {
					created = true
					return p, nil
				},
			}
			r := newProductsTestRouter(store, &fakeAcceptor{err: tt.err})

			w := doMultipart(t, r, "POST", "/products", validProductData, true)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("got status %d, want 400", w.Code)
			}
			if code := errorCode(t, w.Body.Bytes()); code != "bad_image" {
				t.Errorf("got error code %q, want bad_image", code)
			}
			if created {
				t.Error("rejected image must not produce a product")
			}
		})
	}
}

func TestGetProductScopedToOwner(t *testing.T) {
	store := &fakeProductsStore{
		getByID: func(ctx context.Context, id, owner string) (product.Product, error) {
			// the store only sees owner-scoped lookups, so another
			// caller's product is indistinguishable from a missing one
			if owner != "owner-1" || id != "p1" {
				return product.Product{}, postgres.ErrNotFound
			}
			return product.Product{ID: id, OwnerID: owner, Name: "Chair"}, nil
		},
	}
	r := newProductsTestRouter(store, &fakeAcceptor{})

	w := doMultipart(t, r, "GET", "/products/p1", "", false)
	if w.Code != http.StatusOK {
		t.Fatalf("own product: got status %d, want 200", w.Code)
	}

	w = doMultipart(t, r, "GET", "/products/foreign", "", false)
	if w.Code != http.StatusNotFound {
		t.Fatalf("foreign product: got status %d, want 404 not 403", w.Code)
	}
}

func TestListProductsOwnerFilter(t *testing.T) {
	store := &fakeProductsStore{
		listByOwner: func(ctx context.Context, owner string) ([]product.Product, error) {
			if owner != "owner-1" {
				t.Errorf("got owner %q, want the token subject", owner)
			}
			return []product.Product{{ID: "p1", OwnerID: owner}}, nil
		},
	}
	r := newProductsTestRouter(store, &fakeAcceptor{})

	w := doMultipart(t, r, "GET", "/products", "", false)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}

	var payload []product.Product
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(payload) != 1 {
		t.Fatalf("got %d products, want 1", len(payload))
	}
}

func TestUpdateProductJoinsFreshImage(t *testing.T) {
	var gotReq product.UpdateProductRequest

	store := &fakeProductsStore{
		update: func(ctx context.Context, id, owner string, req product.UpdateProductRequest) (product.Product, error) {
			gotReq = req
			return product.Product{ID: id, OwnerID: owner}, nil
		},
	}
	uploads := &fakeAcceptor{url: "http://localhost:8080/uploads/20260830120000_photo.png"}
	r := newProductsTestRouter(store, uploads)

	w := doMultipart(t, r, "PUT", "/products/p1", `{"price":42.0}`, true)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", w.Code, w.Body.String())
	}
	if gotReq.Price == nil || *gotReq.Price != 42.0 {
		t.Errorf("got price %v, want 42", gotReq.Price)
	}
	if gotReq.ImageURL == nil || *gotReq.ImageURL != uploads.url {
		t.Errorf("got image_url %v, want the stored URL", gotReq.ImageURL)
	}
}

func TestDeleteProductNotFound(t *testing.T) {
	store := &fakeProductsStore{
		deleteFn: func(ctx context.Context, id, owner string) error {
			return postgres.ErrNotFound
		},
	}
	r := newProductsTestRouter(store, &fakeAcceptor{})

	w := doMultipart(t, r, "DELETE", "/products/ghost", "", false)

	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", w.Code)
	}
}
