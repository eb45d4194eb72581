// Package clientip extracts the client's IP address from an HTTP request,
// checking common reverse-proxy headers before the socket address. Its main
// use here is keying a rate limiter per caller:
//
//	keyFunc := func(r *http.Request) string { return clientip.FromRequest(r) }
//	handler := permit.Middleware(limiter, keyFunc)(mux)
//
// Header values are validated as IP addresses and normalized, so spoofed or
// malformed headers yield an empty string rather than a bogus key.
package clientip
