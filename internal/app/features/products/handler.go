// internal/app/features/products/handler.go
//
// Package products serves the catalog: public browsing plus
// seller-only listing management. Create and update take multipart
// bodies because they carry image files; everything else is JSON.
package products

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/exoticc/storeapi/internal/app/system/auth"
	"github.com/exoticc/storeapi/internal/app/system/htmlsanitize"
	"github.com/exoticc/storeapi/internal/app/system/httpjson"
	"github.com/exoticc/storeapi/internal/app/system/imagestore"
	"github.com/exoticc/storeapi/internal/app/system/normalize"
	"github.com/exoticc/storeapi/internal/app/system/timeouts"
	"github.com/exoticc/storeapi/internal/domain/models"
)

// maxImages caps how many files one listing may carry.
const maxImages = 10

// maxUploadBytes bounds a whole multipart request body.
const maxUploadBytes = 32 << 20

// Catalog is the product store surface the handlers need.
type Catalog interface {
	Create(ctx context.Context, p *models.Product) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	List(ctx context.Context, category string) ([]models.Product, error)
	ListBySeller(ctx context.Context, sellerID primitive.ObjectID) ([]models.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, updates bson.M) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// StoreNameSource joins seller store names onto listings.
type StoreNameSource interface {
	StoreNames(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error)
}

type Handler struct {
	Products Catalog
	Sellers  StoreNameSource
	Images   imagestore.Provider
	Log      *zap.Logger
}

func NewHandler(catalog Catalog, sellerNames StoreNameSource, images imagestore.Provider, log *zap.Logger) *Handler {
	return &Handler{Products: catalog, Sellers: sellerNames, Images: images, Log: log}
}

// productView is a listing with the seller's store name joined on.
type productView struct {
	models.Product
	StoreName string `json:"storeName,omitempty"`
}

// ServeList handles GET /api/products. An optional ?category= filter
// matches case-insensitively.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	category := normalize.QueryParam(r.URL.Query().Get("category"))
	list, err := h.Products.List(ctx, category)
	if err != nil {
		h.Log.Error("product list failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Server error fetching products.")
		return
	}

	views, err := h.joinStoreNames(ctx, list)
	if err != nil {
		h.Log.Error("store name join failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Server error fetching products.")
		return
	}
	httpjson.Write(w, http.StatusOK, views)
}

// ServeSellerList handles GET /api/products/seller: the signed-in
// seller's own catalog.
func (h *Handler) ServeSellerList(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Products.ListBySeller(ctx, sellerID)
	if err != nil {
		h.Log.Error("seller product list failed", zap.String("seller_id", sellerID.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Server error fetching seller products.")
		return
	}
	if list == nil {
		list = []models.Product{}
	}
	httpjson.Write(w, http.StatusOK, list)
}

// ServeGet handles GET /api/products/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid product ID format.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "Product not found.")
			return
		}
		h.Log.Error("product load failed", zap.String("product_id", id.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Server error fetching product.")
		return
	}

	views, err := h.joinStoreNames(ctx, []models.Product{*p})
	if err != nil {
		h.Log.Error("store name join failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Server error fetching product.")
		return
	}
	httpjson.Write(w, http.StatusOK, views[0])
}

// productForm is the parsed multipart body shared by create and
// update.
type productForm struct {
	name        string
	description string
	category    string
	price       float64
	stock       int
	files       []*multipart.FileHeader
}

// parseForm validates the multipart body. Every field is required on
// create; on update only the supplied fields are checked.
func parseForm(r *http.Request, partial bool) (*productForm, string) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, "Request body must be multipart form data."
	}

	f := &productForm{
		name:        strings.TrimSpace(r.FormValue("name")),
		description: strings.TrimSpace(r.FormValue("description")),
		category:    normalize.Category(r.FormValue("category")),
	}
	if r.MultipartForm != nil {
		f.files = r.MultipartForm.File["images"]
	}
	if len(f.files) > maxImages {
		return nil, fmt.Sprintf("At most %d images are allowed.", maxImages)
	}

	has := func(field string) bool {
		_, ok := r.MultipartForm.Value[field]
		return ok
	}

	if !partial || has("name") {
		if f.name == "" {
			return nil, "Product name is required."
		}
	}
	if !partial || has("description") {
		if f.description == "" {
			return nil, "Description is required."
		}
	}
	if !partial || has("category") {
		if f.category == "" {
			return nil, "Category is required."
		}
	}
	if !partial || has("price") {
		price, err := strconv.ParseFloat(r.FormValue("price"), 64)
		if err != nil || price <= 0 {
			return nil, "Price must be a positive number."
		}
		f.price = price
	}
	if !partial || has("stock") {
		stock, err := strconv.Atoi(r.FormValue("stock"))
		if err != nil || stock < 0 {
			return nil, "Stock must be a non-negative integer."
		}
		f.stock = stock
	}
	return f, ""
}

// ServeCreate handles POST /api/products.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}

	form, msg := parseForm(r, false)
	if msg != "" {
		httpjson.Error(w, http.StatusBadRequest, msg)
		return
	}
	if len(form.files) == 0 {
		httpjson.Error(w, http.StatusBadRequest, "Image file(s) are required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	urls, err := h.uploadAll(ctx, form.files)
	if err != nil {
		h.Log.Error("image upload failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Image upload failed.")
		return
	}

	p := &models.Product{
		SellerID:    sellerID,
		Name:        form.name,
		Description: htmlsanitize.Sanitize(form.description),
		Category:    form.category,
		Price:       form.price,
		Stock:       form.stock,
		Images:      urls,
	}
	if err := h.Products.Create(ctx, p); err != nil {
		h.Log.Error("product create failed", zap.String("seller_id", sellerID.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Server error creating product.")
		return
	}
	httpjson.Write(w, http.StatusCreated, p)
}

// ServeUpdate handles PUT /api/products/{id}. Supplied fields are
// updated in place; fresh images replace the old set entirely.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid product ID format.")
		return
	}

	form, msg := parseForm(r, true)
	if msg != "" {
		httpjson.Error(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if !h.authorizeOwner(ctx, w, id, sellerID, "update") {
		return
	}

	updates := bson.M{}
	if form.name != "" {
		updates["name"] = form.name
	}
	if form.description != "" {
		updates["description"] = htmlsanitize.Sanitize(form.description)
	}
	if form.category != "" {
		updates["category"] = form.category
	}
	if form.price > 0 {
		updates["price"] = form.price
	}
	if _, ok := r.MultipartForm.Value["stock"]; ok {
		updates["stock"] = form.stock
	}
	if len(form.files) > 0 {
		urls, err := h.uploadAll(ctx, form.files)
		if err != nil {
			h.Log.Error("image upload failed", zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "Image upload failed.")
			return
		}
		updates["images"] = urls
	}

	p, err := h.Products.Update(ctx, id, updates)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "Product not found.")
			return
		}
		h.Log.Error("product update failed", zap.String("product_id", id.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Server error updating product.")
		return
	}
	httpjson.Write(w, http.StatusOK, p)
}

// ServeDelete handles DELETE /api/products/{id}.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid product ID format.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if !h.authorizeOwner(ctx, w, id, sellerID, "delete") {
		return
	}

	if err := h.Products.Delete(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "Product not found.")
			return
		}
		h.Log.Error("product delete failed", zap.String("product_id", id.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Server error deleting product.")
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"message": "Product deleted successfully."})
}

// authorizeOwner loads the product and rejects callers who do not own
// it, writing the error response itself.
func (h *Handler) authorizeOwner(ctx context.Context, w http.ResponseWriter, id, sellerID primitive.ObjectID, action string) bool {
	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "Product not found.")
			return false
		}
		h.Log.Error("product load failed", zap.String("product_id", id.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Server Error")
		return false
	}
	if p.SellerID != sellerID {
		httpjson.Error(w, http.StatusForbidden, "Not authorized to "+action+" this product.")
		return false
	}
	return true
}

func (h *Handler) uploadAll(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		url, err := h.Images.Upload(ctx, f, fh.Filename)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", fh.Filename, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (h *Handler) joinStoreNames(ctx context.Context, list []models.Product) ([]productView, error) {
	ids := make([]primitive.ObjectID, 0, len(list))
	seen := map[primitive.ObjectID]bool{}
	for _, p := range list {
		if !seen[p.SellerID] {
			seen[p.SellerID] = true
			ids = append(ids, p.SellerID)
		}
	}

	names := map[primitive.ObjectID]string{}
	if len(ids) > 0 {
		var err error
		names, err = h.Sellers.StoreNames(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	views := make([]productView, len(list))
	for i, p := range list {
		views[i] = productView{Product: p, StoreName: names[p.SellerID]}
	}
	return views, nil
}

func (h *Handler) sellerID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not authenticated")
		return primitive.NilObjectID, false
	}
	if u.Role != models.RoleSeller {
		httpjson.Error(w, http.StatusForbidden, "Seller account required.")
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid user identifier provided.")
		return primitive.NilObjectID, false
	}
	return id, true
}
