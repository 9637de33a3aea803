package handlers

// @title Nwassik Requests API
// @version 0.1
// @description Requests marketplace: buy-and-deliver, pickup-and-deliver and online-service requests, plus favorites.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /v0

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name requests
// @tag.description Request operations

// @tag.name favorites
// @tag.description Favorite operations

// @tag.name health
// @tag.description Service health
