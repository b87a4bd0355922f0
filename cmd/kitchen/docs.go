package main

// @title Central Kitchen API
// @version 1.0
// @description Central kitchen fulfillment: store orders, material planning, quality control, risk pool and disputes

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name Auth
// @tag.description Login, registration and token verification

// @tag.name Orders
// @tag.description Store orders and their lifecycle

// @tag.name Production
// @tag.description Material planning, raw and cooked QC, risk pool

// @tag.name Disputes
// @tag.description Post-delivery disputes and store credits

// @tag.name Catalog
// @tag.description Products, recipes, materials and suppliers
