// Package handlers provides the HTTP API of the image decoder:
//
//   - POST /api/scan starts a background scan (202, 400 or 409)
//   - GET /api/scan/status reports progress of the current or last scan
//   - POST /api/scan/stop stops the running scan
//   - GET /api/collections lists collections, children of ?path= if given
//   - GET /api/images/{id} returns an image with its fields, prompt and tags
//   - GET /api/stats and GET /api/scan-roots report library totals
//   - /health, /livez, /readyz and /version
package handlers
