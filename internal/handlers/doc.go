// Package handlers provides the HTTP handlers of the control server.
//
// It includes handlers for:
//   - Listing, filtering and refreshing the asset index
//   - Extracting single assets, categories and the whole cache
//   - Swapping, copying and clearing cached assets
//   - Asset previews and aliases
//   - Health checks, version and metrics
package handlers
