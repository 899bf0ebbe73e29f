package api

import (
	"github.com/gin-gonic/gin"
)

// Router owns the gin engine and the controllers mounted under BaseURL/v1.
type Router struct {
	addr        string
	baseURL     string
	controllers []Controller
}

// Config holds configuration settings for creating a new Router instance.
type Config struct {
	Addr        string // Address to listen on
	BaseURL     string // Base URL for API routes
	Controllers []Controller
}

func NewRouter(config Config) *Router {
	return &Router{
		addr:        config.Addr,
		baseURL:     config.BaseURL,
		controllers: config.Controllers,
	}
}

// Handler builds the gin engine without starting a listener.
func (r *Router) Handler() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	api := router.Group(r.baseURL)
	{
		public := api.Group("/v1")
		for _, c := range r.controllers {
			c.RegisterPublic(public)
		}
	}
	return router
}

// Run starts the HTTP server and blocks until it fails.
func (r *Router) Run() error {
	return r.Handler().Run(r.addr)
}
