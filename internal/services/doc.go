// package services defines the provider interfaces the refresh pipeline
// consumes (episode search, playlist reads and writes, OAuth) and the
// Spotify Web API implementation of them.
//
// The tasks layer only sees SearchService and PlaylistService; everything
// Spotify-specific (endpoints, response shapes, pagination, error bodies)
// stays behind them.
package services
