package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"storefront-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxProductImages = 5

// CatalogServiceAPI is the catalog surface the product routes need.
type CatalogServiceAPI interface {
	CreateProduct(ctx context.Context, in services.CreateProductInput) (*services.ProductView, error)
	ListProducts(ctx context.Context) ([]services.ProductView, error)
	GetProduct(ctx context.Context, id string) (*services.ProductView, error)
	UpdateProduct(ctx context.Context, id string, in services.UpdateProductInput) (*services.StripeProduct, error)
}

// CreateProductRequest is the multipart form for product creation. UnitAmount
// is in major units; the catalog service scales it for Stripe.
type CreateProductRequest struct {
	Name        string  `form:"name" validate:"required"`
	UnitAmount  float64 `form:"unit_amount" validate:"required,gt=0"`
	Currency    string  `form:"currency" validate:"required"`
	Recurring   bool    `form:"recurring"`
	Description string  `form:"description"`
}

type UpdateProductRequest struct {
	Name       string  `form:"name" validate:"required"`
	UnitAmount float64 `form:"unit_amount" validate:"required,gt=0"`
	Currency   string  `form:"currency" validate:"required"`
	Recurring  bool    `form:"recurring"`
}

type ProductController struct {
	Catalog   CatalogServiceAPI
	Cache     *CacheManager
	UploadDir string
	Logger    *zap.Logger

	validate *validator.Validate
}

func NewProductController(catalog CatalogServiceAPI, cache *CacheManager, uploadDir string, logger *zap.Logger) *ProductController {
	return &ProductController{
		Catalog:   catalog,
		Cache:     cache,
		UploadDir: uploadDir,
		Logger:    logger,
		validate:  validator.New(),
	}
}

// CreateProduct creates the product and price in Stripe and mirrors them into
// the local table.
func (pc *ProductController) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form data"})
		return
	}
	if err := pc.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	images, err := pc.saveImages(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := pc.Catalog.CreateProduct(c.Request.Context(), services.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		UnitAmount:  req.UnitAmount,
		Currency:    req.Currency,
		Recurring:   req.Recurring,
		Images:      images,
	})
	if err != nil {
		pc.respondError(c, "Error creating product", err)
		return
	}

	pc.Cache.Invalidate(c.Request.Context())

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"data":    view,
	})
}

// GetProducts lists products from Stripe, serving from the Redis cache when a
// fresh copy exists. Listing re-syncs the local table as a side effect.
func (pc *ProductController) GetProducts(c *gin.Context) {
	if cached, ok := pc.Cache.GetProductList(c.Request.Context()); ok {
		c.JSON(http.StatusOK, gin.H{
			"message": "Products fetched successfully",
			"data":    cached,
		})
		return
	}

	products, err := pc.Catalog.ListProducts(c.Request.Context())
	if err != nil {
		pc.respondError(c, "Error fetching products", err)
		return
	}

	pc.Cache.SetProductListAsync(products)

	c.JSON(http.StatusOK, gin.H{
		"message": "Products fetched successfully",
		"data":    products,
	})
}

func (pc *ProductController) GetProduct(c *gin.Context) {
	view, err := pc.Catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		pc.respondError(c, "Error fetching product", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product fetched successfully",
		"data":    view,
	})
}

func (pc *ProductController) UpdateProduct(c *gin.Context) {
	var req UpdateProductRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form data"})
		return
	}
	if err := pc.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Images are optional on update; missing means keep the current ones.
	images, err := pc.saveImages(c)
	if err != nil && !errors.Is(err, errNoImages) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := pc.Catalog.UpdateProduct(c.Request.Context(), c.Param("id"), services.UpdateProductInput{
		Name:       req.Name,
		UnitAmount: req.UnitAmount,
		Currency:   req.Currency,
		Recurring:  req.Recurring,
		Images:     images,
	})
	if err != nil {
		pc.respondError(c, "Error updating product", err)
		return
	}

	pc.Cache.Invalidate(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully",
		"data":    updated,
	})
}

var errNoImages = errors.New("no images uploaded")

// saveImages stores uploaded image files under the upload dir and returns
// their public URLs.
func (pc *ProductController) saveImages(c *gin.Context) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, errNoImages
	}
	files := form.File["images"]
	if len(files) == 0 {
		return nil, errNoImages
	}
	if len(files) > maxProductImages {
		return nil, fmt.Errorf("at most %d images are allowed", maxProductImages)
	}

	urls := make([]string, 0, len(files))
	for _, file := range files {
		filename := fmt.Sprintf("%d%s", time.Now().UnixNano(), filepath.Ext(file.Filename))
		if err := c.SaveUploadedFile(file, filepath.Join(pc.UploadDir, filename)); err != nil {
			return nil, fmt.Errorf("failed to store image %s", file.Filename)
		}
		urls = append(urls, publicUploadURL(c, filename))
	}
	return urls, nil
}

func publicUploadURL(c *gin.Context, filename string) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/uploads/%s", scheme, c.Request.Host, filename)
}

// respondError maps service errors onto HTTP responses: validation failures
// become 400s with their message, anything else a generic 500.
func (pc *ProductController) respondError(c *gin.Context, msg string, err error) {
	var vErr *services.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
		return
	}
	pc.Logger.Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
