package main

import (
	"net/http"

	"github.com/joao-fontenele/beverageshop/internal/accounts"
	"github.com/joao-fontenele/beverageshop/internal/admin"
	"github.com/joao-fontenele/beverageshop/internal/auth"
	"github.com/joao-fontenele/beverageshop/internal/catalog"
	"github.com/joao-fontenele/beverageshop/internal/orders"
	"github.com/joao-fontenele/beverageshop/internal/reviews"
	"github.com/joao-fontenele/beverageshop/internal/telemetry"
	"github.com/joao-fontenele/beverageshop/internal/voucher"
	"github.com/joao-fontenele/beverageshop/internal/wishlist"
)

type handlers struct {
	catalog  *catalog.Handler
	vouchers *voucher.Handler
	orders   *orders.Handler
	accounts *accounts.Handler
	admin    *admin.Handler
	reviews  *reviews.Handler
	wishlist *wishlist.Handler
}

func routes(mux *http.ServeMux, h handlers, a *auth.Authenticator) {
	route := func(pattern string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, telemetry.WithHTTPRoute(fn))
	}

	route("GET /api/beverages", h.catalog.HandleList)
	route("GET /api/beverages/search", h.catalog.HandleSearch)
	route("GET /api/beverages/filter", h.catalog.HandleList)
	route("GET /api/beverages/{id}", h.catalog.HandleGet)
	route("GET /api/beverages/slug/{slug}", h.catalog.HandleGetBySlug)
	route("POST /api/beverages", a.RequireAdmin(h.catalog.HandleCreate))
	route("PUT /api/beverages/{id}", a.RequireAdmin(h.catalog.HandleUpdate))
	route("DELETE /api/beverages/{id}", a.RequireAdmin(h.catalog.HandleDelete))
	route("GET /api/categories", h.catalog.HandleCategories)

	route("GET /api/brands", h.catalog.HandleBrands)
	route("GET /api/brands/with-count", h.catalog.HandleBrandsWithCount)
	route("PUT /api/brands/rename", a.RequireAdmin(h.catalog.HandleRenameBrand))
	route("DELETE /api/brands/{name}", a.RequireAdmin(h.catalog.HandleDeleteBrand))
	route("POST /api/brands/assign", a.RequireAdmin(h.catalog.HandleAssignBrand))

	route("GET /api/vouchers", h.vouchers.HandleListActive)
	route("GET /api/vouchers/all", a.RequireAdmin(h.vouchers.HandleListAll))
	route("GET /api/vouchers/{id}", h.vouchers.HandleGet)
	route("GET /api/vouchers/validate/{code}", h.vouchers.HandleValidate)
	route("POST /api/vouchers/apply", h.vouchers.HandleApply)
	route("POST /api/vouchers", a.RequireAdmin(h.vouchers.HandleCreate))
	route("PUT /api/vouchers/{id}", a.RequireAdmin(h.vouchers.HandleUpdate))
	route("DELETE /api/vouchers/{id}", a.RequireAdmin(h.vouchers.HandleDelete))

	// Order handlers resolve ownership themselves; the caller comes from the Optional middleware.
	route("POST /api/orders", h.orders.HandleCreate)
	route("GET /api/orders", h.orders.HandleList)
	route("GET /api/orders/{id}", h.orders.HandleGet)
	route("GET /api/orders/user/{userId}", h.orders.HandleListByUser)

	route("POST /api/auth/register", h.accounts.HandleRegister)
	route("POST /api/auth/login", h.accounts.HandleLogin)
	route("POST /api/auth/logout", a.RequireUser(h.accounts.HandleLogout))

	route("GET /api/admin/dashboard", a.RequireAdmin(h.admin.HandleDashboard))
	route("GET /api/admin/beverages/low-stock", a.RequireAdmin(h.admin.HandleLowStock))
	route("GET /api/admin/beverages/out-of-stock", a.RequireAdmin(h.admin.HandleOutOfStock))
	route("PUT /api/admin/orders/{id}/status", a.RequireAdmin(h.orders.HandleUpdateStatus))
	route("GET /api/admin/users", a.RequireAdmin(h.accounts.HandleListUsers))
	route("PUT /api/admin/users/{id}", a.RequireAdmin(h.accounts.HandleUpdateUser))
	route("PUT /api/admin/users/{id}/role", a.RequireAdmin(h.accounts.HandleUpdateRole))
	route("PUT /api/admin/users/{id}/toggle-status", a.RequireAdmin(h.accounts.HandleToggleStatus))
	route("DELETE /api/admin/users/{id}", a.RequireAdmin(h.accounts.HandleDeleteUser))

	route("GET /api/reviews/beverage/{beverageId}", h.reviews.HandleListByBeverage)
	route("GET /api/reviews/stats/{beverageId}", h.reviews.HandleStats)
	route("POST /api/reviews", a.RequireUser(h.reviews.HandleCreate))
	route("DELETE /api/reviews/{id}", a.RequireUser(h.reviews.HandleDelete))

	route("GET /api/wishlist/user/{userId}", a.RequireUser(h.wishlist.HandleList))
	route("POST /api/wishlist", a.RequireUser(h.wishlist.HandleAdd))
	route("DELETE /api/wishlist/{id}", a.RequireUser(h.wishlist.HandleDelete))
	route("DELETE /api/wishlist/user/{userId}/beverage/{beverageId}", a.RequireUser(h.wishlist.HandleDeleteByPair))
	route("GET /api/wishlist/check/{userId}/{beverageId}", a.RequireUser(h.wishlist.HandleCheck))
}
