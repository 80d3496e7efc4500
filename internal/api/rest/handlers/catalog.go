package handlers

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/CameronXie/order-management/internal/api/rest/response"
	"github.com/CameronXie/order-management/internal/domain"
	"github.com/CameronXie/order-management/internal/repository"
)

// ProductHandler handles HTTP requests for the product catalogue.
type ProductHandler struct {
	repo   repository.ProductRepository
	logger *slog.Logger
}

// NewProductHandler creates a new ProductHandler instance.
func NewProductHandler(repo repository.ProductRepository, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{repo: repo, logger: logger}
}

// CreateProductRequest represents the request payload for creating a product.
type CreateProductRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// ProductResponse is a product as returned by the API.
type ProductResponse struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// CreateProduct handles POST /products.
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	product, ok := newProduct(w, uuid.NewString(), req)
	if !ok {
		return
	}

	if err := h.repo.CreateProduct(r.Context(), product); err != nil {
		writeError(r.Context(), w, h.logger, "failed to create product", err, "product_name", product.Name)
		return
	}

	response.JSONResponse(w, http.StatusCreated, map[string]ProductResponse{"product": toProductResponse(product)})
}

// UpdateProduct handles PUT /products/{id}. Orders already placed keep
// the prices they were created with.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req CreateProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	product, ok := newProduct(w, id, req)
	if !ok {
		return
	}

	if err := h.repo.UpdateProduct(r.Context(), product); err != nil {
		writeError(r.Context(), w, h.logger, "failed to update product", err, "product_id", id)
		return
	}

	response.JSONResponse(w, http.StatusOK, map[string]ProductResponse{"product": toProductResponse(product)})
}

// DeleteProduct handles DELETE /products/{id}.
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.repo.DeleteProduct(r.Context(), id); err != nil {
		writeError(r.Context(), w, h.logger, "failed to delete product", err, "product_id", id)
		return
	}

	response.NoContent(w, http.StatusNoContent)
}

// ListProducts handles GET /products.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.ListProducts(r.Context())
	if err != nil {
		writeError(r.Context(), w, h.logger, "failed to list products", err)
		return
	}

	resp := make([]ProductResponse, 0, len(products))
	for i := range products {
		resp = append(resp, toProductResponse(&products[i]))
	}

	response.JSONResponse(w, http.StatusOK, map[string][]ProductResponse{"products": resp})
}

// GetProduct handles GET /products/{id}.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	product, err := h.repo.GetProductByID(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, h.logger, "failed to retrieve product", err, "product_id", id)
		return
	}

	response.JSONResponse(w, http.StatusOK, map[string]ProductResponse{"product": toProductResponse(product)})
}

// newProduct validates req and writes a 400 when it is not storable as is.
func newProduct(w http.ResponseWriter, id string, req CreateProductRequest) (*domain.Product, bool) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		response.JSONErrorResponse(w, http.StatusBadRequest, "invalid name: is required")
		return nil, false
	}
	if err := domain.ValidateAmount(req.Price); err != nil {
		response.JSONErrorResponse(w, http.StatusBadRequest, "invalid price: "+err.Error())
		return nil, false
	}

	return &domain.Product{ID: id, Name: name, Price: req.Price.Truncate(domain.AmountScale)}, true
}

func toProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{ID: p.ID, Name: p.Name, Price: p.Price}
}

// ClientHandler handles HTTP requests for clients.
type ClientHandler struct {
	repo   repository.ClientRepository
	logger *slog.Logger
}

// NewClientHandler creates a new ClientHandler instance.
func NewClientHandler(repo repository.ClientRepository, logger *slog.Logger) *ClientHandler {
	return &ClientHandler{repo: repo, logger: logger}
}

// CreateClientRequest represents the request payload for creating a client.
type CreateClientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ClientResponse is a client as returned by the API.
type ClientResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateClient handles POST /clients.
func (h *ClientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	client, ok := newClient(w, uuid.NewString(), req)
	if !ok {
		return
	}

	if err := h.repo.CreateClient(r.Context(), client); err != nil {
		writeError(r.Context(), w, h.logger, "failed to create client", err, "client_email", client.Email)
		return
	}

	response.JSONResponse(w, http.StatusCreated, map[string]ClientResponse{"client": toClientResponse(client)})
}

// ListClients handles GET /clients.
func (h *ClientHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.repo.ListClients(r.Context())
	if err != nil {
		writeError(r.Context(), w, h.logger, "failed to list clients", err)
		return
	}

	resp := make([]ClientResponse, 0, len(clients))
	for i := range clients {
		resp = append(resp, toClientResponse(&clients[i]))
	}

	response.JSONResponse(w, http.StatusOK, map[string][]ClientResponse{"clients": resp})
}

// GetClient handles GET /clients/{id}.
func (h *ClientHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	client, err := h.repo.GetClientByID(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, h.logger, "failed to retrieve client", err, "client_id", id)
		return
	}

	response.JSONResponse(w, http.StatusOK, map[string]ClientResponse{"client": toClientResponse(client)})
}

// UpdateClient handles PUT /clients/{id}.
func (h *ClientHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req CreateClientRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	client, ok := newClient(w, id, req)
	if !ok {
		return
	}

	if err := h.repo.UpdateClient(r.Context(), client); err != nil {
		writeError(r.Context(), w, h.logger, "failed to update client", err, "client_id", id)
		return
	}

	response.JSONResponse(w, http.StatusOK, map[string]ClientResponse{"client": toClientResponse(client)})
}

// DeleteClient handles DELETE /clients/{id}. Clients that still own orders
// are kept and reported as a conflict.
func (h *ClientHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.repo.DeleteClient(r.Context(), id); err != nil {
		writeError(r.Context(), w, h.logger, "failed to delete client", err, "client_id", id)
		return
	}

	response.NoContent(w, http.StatusNoContent)
}

func newClient(w http.ResponseWriter, id string, req CreateClientRequest) (*domain.Client, bool) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		response.JSONErrorResponse(w, http.StatusBadRequest, "invalid name: is required")
		return nil, false
	}

	addr, err := mail.ParseAddress(req.Email)
	if err != nil {
		response.JSONErrorResponse(w, http.StatusBadRequest, "invalid email: must be a valid address")
		return nil, false
	}

	return &domain.Client{ID: id, Name: name, Email: addr.Address}, true
}

func toClientResponse(c *domain.Client) ClientResponse {
	return ClientResponse{ID: c.ID, Name: c.Name, Email: c.Email}
}
