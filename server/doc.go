// Package server runs a short-lived Gin HTTP server with h2c support and
// the middleware chain from server/middleware applied at the handler level.
//
//	srv := server.New(server.Config{Port: 0, MaxBodySize: "256MB"}, log)
//	srv.GinEngine().POST("/upload", handler)
//	if err := srv.Start(ctx); err != nil { ... }
//	defer srv.Stop(context.Background())
//	fmt.Println(srv.URL())
package server
