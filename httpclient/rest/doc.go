// Package rest adds typed JSON helpers on top of httpclient.
//
//	c, _ := rest.New(httpclient.Config{BaseURL: base, Auth: httpclient.BearerAuth(key)})
//	resp, err := rest.Post[completion](ctx, c, "/chat/completions", req)
package rest
